package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/gnana997/intcat/catalogs"
	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/util"
)

const (
	configDir  = ".intcat"
	configName = "config"
	envPrefix  = "INTCAT"

	// embeddedSource names the bundled catalog in logs and output.
	embeddedSource = "embedded"
)

// Config holds the contents of .intcat/config.yaml, overlaid with INTCAT_*
// environment variables and command-line flags.
type Config struct {
	CatalogPath string          `mapstructure:"catalog_path"`
	CatalogGlob []string        `mapstructure:"catalog_glob"`
	HTTP        HTTPConfig      `mapstructure:"http"`
	Log         LogConfig       `mapstructure:"log"`
	MCP         MCPConfig       `mapstructure:"mcp"`
	SearchLog   SearchLogConfig `mapstructure:"searchlog"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Watch       WatchConfig     `mapstructure:"watch"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MCPConfig struct {
	// LogFile receives one JSONL line per tool call. Empty disables it.
	LogFile string `mapstructure:"log_file"`
}

type SearchLogConfig struct {
	// Path is the SQLite file searches are recorded in. Empty disables it.
	Path string `mapstructure:"path"`
}

type CacheConfig struct {
	Size int `mapstructure:"size"`
}

type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMs int  `mapstructure:"debounce_ms"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog_path", "")
	v.SetDefault("catalog_glob", catalog.DefaultPatterns)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", string(util.LevelInfo))
	v.SetDefault("log.format", string(util.FormatJSON))
	v.SetDefault("mcp.log_file", "")
	v.SetDefault("searchlog.path", "")
	v.SetDefault("cache.size", catalog.DefaultCacheSize)
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce_ms", 200)
}

// readConfig points v at cfgFile, or at .intcat/config.yaml in dir when
// cfgFile is empty, and reads it. A missing default file is not an error.
func readConfig(v *viper.Viper, cfgFile, dir string) error {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(dir, configDir))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// decodeConfig unmarshals v into a Config.
func decodeConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// resolveCatalogPath applies the fallback chain:
//  1. Explicit --catalog flag value
//  2. catalog_path from config or INTCAT_CATALOG_PATH
//  3. "" meaning the embedded catalog
func resolveCatalogPath(flagValue string, cfg *Config) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg != nil {
		return cfg.CatalogPath
	}
	return ""
}

// loadSnapshot loads the catalog at path, or the embedded one when path is
// empty. It returns the snapshot and a label for where it came from.
func loadSnapshot(path string, cfg *Config, logger *slog.Logger) (*catalog.QueryService, string, error) {
	opts := []catalog.QueryOption{
		catalog.WithCacheSize(cfg.Cache.Size),
		catalog.WithLogger(logger),
	}

	if path == "" {
		qs, err := catalog.LoadAndQueryBytes(catalogs.IntegrationsJSON, catalog.FormatJSON, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load embedded catalog: %w", err)
		}
		return qs, embeddedSource, nil
	}

	qs, err := catalog.LoadAndQuery(path, cfg.CatalogGlob, opts...)
	if err != nil {
		return nil, "", err
	}
	return qs, path, nil
}
