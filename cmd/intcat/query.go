package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/searchlog"
)

func newFilterCmd(a *app) *cobra.Command {
	var (
		category string
		query    string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Filter integrations by category and search text",
		Example: `  intcat filter --category CRM
  intcat filter -q "lead sync"
  intcat filter --category Scheduling -q google --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, _, err := a.load()
			if err != nil {
				return err
			}

			state := catalog.DefaultFilterState().WithCategory(category).WithQuery(query)
			res := qs.Filter(state)

			if err := a.recordSearch(cmd, state, res.Count); err != nil {
				a.logger.Warn("failed to record search", "error", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			if res.Count == 0 {
				fmt.Fprintln(out, "No integrations found.")
				return nil
			}
			table := newTable(out, "ID", "Name", "Category", "Popular")
			for _, r := range res.Results {
				popular := ""
				if r.Popular {
					popular = "yes"
				}
				table.Append([]string{r.ID, r.Name, r.Category, popular})
			}
			table.Render()
			fmt.Fprintf(out, "\n%d of %d integrations\n", res.Count, qs.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", catalog.AllCategory, "category to show")
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive search over name, description and key features")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// recordSearch logs a CLI search when a search log is configured.
func (a *app) recordSearch(cmd *cobra.Command, state catalog.FilterState, count int) error {
	searches, err := a.openSearchLog()
	if err != nil || searches == nil {
		return err
	}
	defer searches.Close()

	return searches.Record(cmd.Context(), searchlog.Entry{
		Source:      searchlog.SourceCLI,
		Category:    state.Category,
		Query:       state.Query,
		ResultCount: count,
	})
}

func newCategoriesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories in selector order with counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, _, err := a.load()
			if err != nil {
				return err
			}

			counts := qs.CategoryCounts()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, counts)
			}
			table := newTable(out, "Category", "Integrations")
			for _, c := range counts {
				table.Append([]string{c.Name, strconv.Itoa(c.Count)})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print categories as JSON")
	return cmd
}

func newMissedCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "missed",
		Short: "Show the most frequent searches that found nothing",
		Long: `Show the most frequent zero-result searches from the search log, most
searched first. Requires --search-log or searchlog.path in the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			searches, err := a.openSearchLog()
			if err != nil {
				return err
			}
			if searches == nil {
				return fmt.Errorf("no search log configured: pass --search-log or set searchlog.path")
			}
			defer searches.Close()

			missed, err := searches.TopMissed(cmd.Context(), limit)
			if err != nil {
				return err
			}
			stats, err := searches.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d searches, %d with no results, %d distinct queries\n\n", stats.Searches, stats.ZeroResult, stats.DistinctQueries)
			if len(missed) == 0 {
				fmt.Fprintln(out, "No missed searches.")
				return nil
			}
			table := newTable(out, "Query", "Searches", "Last seen")
			for _, m := range missed {
				table.Append([]string{m.Query, strconv.Itoa(m.Searches), m.LastSeen.Format("2006-01-02 15:04")})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum rows (max 100)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
