// Package logger carries the structured logger through contexts.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type Logger = *slog.Logger

// FromContext retrieves the logger from ctx, falling back to slog.Default.
func FromContext(ctx context.Context) Logger {
	value := ctx.Value(loggerContextKey)
	logger, ok := value.(Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// Insert returns a copy of ctx carrying logger.
func Insert(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// New builds a logger writing to w. Format is "text" or "json"; level is
// one of debug, info, warn, error.
func New(w io.Writer, level, format string) (Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

type contextKey struct{}

var loggerContextKey contextKey
