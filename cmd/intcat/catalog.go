package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/intcat/catalogs"
	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/importer"
	"github.com/gnana997/intcat/pkg/parser"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a catalog file or directory for errors",
		Long: `Validate loads a catalog and reports every problem found: missing ids,
names or categories, duplicate ids, and records using the reserved "All"
category. Without a path the configured catalog is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.catalogPath()
			if len(args) == 1 {
				path = args[0]
			}

			var (
				cat *catalog.Catalog
				idx *catalog.CatalogIndex
				err error
			)
			source := path
			if path == "" {
				source = embeddedSource
				cat, idx, err = catalog.LoadFromBytes(catalogs.IntegrationsJSON, catalog.FormatJSON)
			} else {
				cat, idx, err = catalog.Load(path, a.cfg.CatalogGlob)
			}
			if err != nil {
				return fmt.Errorf("%s is invalid:\n%w", source, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s, %d integrations in %d categories\n",
				source, cat.Name, cat.Version, len(cat.Integrations), len(idx.Categories)-1)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var (
		output     string
		name       string
		catVersion string
	)

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Build a catalog from the site's TypeScript or JavaScript data modules",
		Long: `Import parses .ts, .tsx and .js files with tree-sitter and collects every
object literal in an array that has string name and category properties.
Values that are not literals (imported logos, computed strings) are skipped
with a warning on stderr.

The result is validated and written as JSON, or YAML when the output file
ends in .yaml or .yml.`,
		Example: `  intcat import src/data/integrations.ts -o catalogs/integrations/catalog.json`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsers := parser.NewManager(a.logger)
			defer parsers.Close()

			res, err := importer.New(parsers, a.logger).ImportFiles(args)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}

			cat, err := importer.BuildCatalog(name, catVersion, res)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return writeCatalog(cmd.OutOrStdout(), cat, catalog.FormatJSON)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := saveCatalog(f, cat, catalog.FormatFromPath(output)); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d integrations to %s\n", len(cat.Integrations), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&name, "name", "integrations", "catalog name")
	cmd.Flags().StringVar(&catVersion, "version", "1.0.0", "catalog version")
	return cmd
}

// saveCatalog writes cat to wc and closes it, returning the close error.
func saveCatalog(wc io.WriteCloser, cat *catalog.Catalog, format catalog.Format) error {
	if err := writeCatalog(wc, cat, format); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

func writeCatalog(w io.Writer, cat *catalog.Catalog, format catalog.Format) error {
	if format == catalog.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cat); err != nil {
			return fmt.Errorf("failed to encode catalog: %w", err)
		}
		return enc.Close()
	}
	return writeJSON(w, cat)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the intcat version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "intcat %s\n", strings.TrimSpace(version))
		},
	}
}
