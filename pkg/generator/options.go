package generator

import (
	"log/slog"
	"os"
)

// Option attaches observability hooks to a generator. None of them changes
// thresholds, window sizes or block sizes, which are fixed.
type Option func(*Generator)

// WithLogger sets the logger used for warm-up and state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithMetrics records pipeline counters into m.
func WithMetrics(m *Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithAbort replaces the handler the non-fallible draws call on a persistent
// health failure. The default logs the error and exits the process.
func WithAbort(abort func(error)) Option {
	return func(g *Generator) { g.abort = abort }
}

func exitOnFailure(l *slog.Logger) func(error) {
	return func(err error) {
		l.Error("jitter generator aborting: timing source failed health tests", "err", err)
		os.Exit(2)
	}
}
