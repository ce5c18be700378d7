package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/intcat/pkg/api"
	"github.com/gnana997/intcat/pkg/catalog"
	mcpserver "github.com/gnana997/intcat/pkg/mcp"
	"github.com/gnana997/intcat/pkg/mcplog"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Long: `Serve the integrations page API:

  GET /health
  GET /api/v1/categories
  GET /api/v1/integrations?category=&q=
  GET /api/v1/integrations/popular
  GET /api/v1/integrations/:id
  GET /api/v1/searches/missed?limit=

When the catalog comes from a file or directory, edits are picked up
without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyWatchFlag(cmd)
			qs, source, err := a.load()
			if err != nil {
				return err
			}
			store := catalog.NewStore(qs)
			a.logger.Info("catalog loaded", "source", source, "integrations", qs.Len(), "categories", len(qs.Categories()))

			searches, err := a.openSearchLog()
			if err != nil {
				return err
			}
			if searches != nil {
				defer searches.Close()
			}

			w, err := a.startWatcher(store)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Stop()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(store, api.WithSearchLog(searches), api.WithLogger(a.logger))
			return srv.ListenAndServe(ctx, a.cfg.HTTP.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().Bool("watch", true, "reload the catalog when its files change")
	_ = a.v.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog as an MCP server on stdio",
		Long: `Serve catalog tools to AI assistants over the Model Context Protocol:
list_categories, filter_integrations, get_integration, list_popular and
top_missed_searches.

Logs go to stderr; stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyWatchFlag(cmd)
			qs, source, err := a.load()
			if err != nil {
				return err
			}
			store := catalog.NewStore(qs)
			a.logger.Info("catalog loaded", "source", source, "integrations", qs.Len())

			searches, err := a.openSearchLog()
			if err != nil {
				return err
			}
			if searches != nil {
				defer searches.Close()
			}

			toolLog, err := mcplog.Open(a.cfg.MCP.LogFile)
			if err != nil {
				return err
			}
			defer toolLog.Close()

			w, err := a.startWatcher(store)
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Stop()
			}

			srv := mcpserver.NewServer(store,
				mcpserver.WithSearchLog(searches),
				mcpserver.WithToolLog(toolLog),
				mcpserver.WithLogger(a.logger),
			)
			return srv.ServeStdio()
		},
	}

	cmd.Flags().String("log-file", "", "write one JSONL line per tool call to this file")
	cmd.Flags().Bool("watch", true, "reload the catalog when its files change")
	_ = a.v.BindPFlag("mcp.log_file", cmd.Flags().Lookup("log-file"))
	return cmd
}
