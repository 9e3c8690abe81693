// Package logger builds the structured slog logger shared by recordkv
// components.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is text (default) or json.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

var level = new(slog.LevelVar)

// New returns a logger writing to cfg.Output. All loggers built here share
// one level, adjustable at runtime with SetLevel.
func New(cfg Config) *slog.Logger {
	level.Set(ParseLevel(cfg.Level))
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(out, opts)
	default:
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h)
}

func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
