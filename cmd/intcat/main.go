// Command intcat serves and maintains the voice agent integration catalog.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/searchlog"
	"github.com/gnana997/intcat/pkg/util"
	"github.com/gnana997/intcat/pkg/watcher"
)

// version is set at build time via ldflags.
var version = "dev"

// app is the state shared by every subcommand, filled in before any of
// them run.
type app struct {
	v      *viper.Viper
	cfg    *Config
	logger *slog.Logger

	cfgFile     string
	catalogFlag string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "intcat",
		Short: "Integration catalog for the voice agent marketing site",
		Long: `intcat loads the catalog of third-party tools the voice agent integrates
with and serves category and free-text filtering over HTTP, MCP and the
command line.

Without --catalog or catalog_path in .intcat/config.yaml the catalog bundled
into the binary is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./.intcat/config.yaml)")
	flags.StringVar(&a.catalogFlag, "catalog", "", "catalog file or directory (default: embedded catalog)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: json, text")
	flags.String("search-log", "", "SQLite file to record searches in")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("searchlog.path", flags.Lookup("search-log"))

	root.AddCommand(
		newServeCmd(a),
		newMCPCmd(a),
		newFilterCmd(a),
		newCategoriesCmd(a),
		newValidateCmd(a),
		newImportCmd(a),
		newMissedCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	if err := readConfig(a.v, a.cfgFile, "."); err != nil {
		return err
	}
	cfg, err := decodeConfig(a.v)
	if err != nil {
		return err
	}
	logCfg, err := util.ParseLoggerConfig(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = util.NewLogger(logCfg)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}
	return nil
}

func (a *app) catalogPath() string {
	return resolveCatalogPath(a.catalogFlag, a.cfg)
}

func (a *app) load() (*catalog.QueryService, string, error) {
	return loadSnapshot(a.catalogPath(), a.cfg, a.logger)
}

// openSearchLog returns nil when no search log is configured.
func (a *app) openSearchLog() (*searchlog.Store, error) {
	if a.cfg.SearchLog.Path == "" {
		return nil, nil
	}
	s, err := searchlog.Open(a.cfg.SearchLog.Path)
	if err != nil {
		return nil, err
	}
	a.logger.Info("search log enabled", "path", a.cfg.SearchLog.Path)
	return s, nil
}

// applyWatchFlag lets an explicit --watch override watch.enabled. serve and
// mcp both define the flag, so it cannot be bound to one viper key.
func (a *app) applyWatchFlag(cmd *cobra.Command) {
	if f := cmd.Flags().Lookup("watch"); f != nil && f.Changed {
		a.cfg.Watch.Enabled, _ = cmd.Flags().GetBool("watch")
	}
}

// startWatcher hot-reloads store from the catalog path. It returns nil when
// serving the embedded catalog or when watching is disabled.
func (a *app) startWatcher(store *catalog.Store) (*watcher.CatalogWatcher, error) {
	path := a.catalogPath()
	if path == "" || !a.cfg.Watch.Enabled {
		return nil, nil
	}

	opts := watcher.DefaultOptions()
	opts.DebounceMs = a.cfg.Watch.DebounceMs
	opts.Patterns = a.cfg.CatalogGlob

	load := func() (*catalog.QueryService, error) {
		qs, _, err := loadSnapshot(path, a.cfg, a.logger)
		return qs, err
	}
	w, err := watcher.New(path, store, load, opts, a.logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
