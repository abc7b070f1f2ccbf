// Package logging configures structured logging for the process on top of
// log/slog. Components obtain scoped loggers via
// slog.Default().With("component", ...).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format is the log output format.
type Format string

const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON Format = "json"
	// FormatText outputs logfmt-style key=value lines.
	FormatText Format = "text"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// Format is the output format: "json" or "text".
	Format string

	// AddSource includes file:line in log records.
	AddSource bool

	// Writer is the output destination. Defaults to os.Stdout.
	Writer io.Writer
}

// Setup builds a logger from the configuration, installs it as the process
// default, and returns it.
func Setup(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// ParseLevel parses a log level string into a slog.Level.
// An empty string defaults to info.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// ParseFormat parses a log format string into a Format.
// An empty string defaults to JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "JSON", "":
		return FormatJSON, nil
	case "text", "TEXT":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", s)
	}
}
