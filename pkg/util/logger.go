package util

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	Output io.Writer
}

// DefaultLoggerConfig logs info and above as JSON to stderr. Stdout is left
// alone because the MCP transport owns it.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// ParseLoggerConfig builds a config from the string values found in config
// files and flags. Empty values keep the defaults.
func ParseLoggerConfig(level, format string) (LoggerConfig, error) {
	cfg := DefaultLoggerConfig()

	switch l := LogLevel(strings.ToLower(level)); l {
	case "":
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		cfg.Level = l
	default:
		return cfg, fmt.Errorf("unknown log level %q", level)
	}

	switch f := LogFormat(strings.ToLower(format)); f {
	case "":
	case FormatJSON, FormatText:
		cfg.Format = f
	default:
		return cfg, fmt.Errorf("unknown log format %q", format)
	}

	return cfg, nil
}

// NewLogger creates a new structured logger with the given configuration
func NewLogger(config LoggerConfig) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(config.Level)}

	if config.Format == FormatText {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NopLogger discards everything. Handy in tests.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
