package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger is the service logger: JSON lines on stdout tagged with
// the service name.
func NewJSONLogger(service, level string) *slog.Logger {
	return New(os.Stdout, service, level, true)
}

// NewCLILogger writes human-readable lines to w, normally stderr, so that
// command output on stdout stays machine-readable.
func NewCLILogger(w io.Writer, level string) *slog.Logger {
	return New(w, "invoicectl", level, false)
}

func New(w io.Writer, service, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
