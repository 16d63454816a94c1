package rewrite

import (
	"io"
	"log/slog"

	"github.com/gogpu/warpsync/internal/opts"
)

// Option configures ApplyGreedily.
type Option func(*config)

type config struct {
	limits opts.Options
	logger *slog.Logger
}

func newConfig(options []Option) config {
	cfg := config{
		limits: opts.GetDefaultOptions(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range options {
		o(&cfg)
	}
	return cfg
}

// WithMaxIterations bounds the number of sweeps. Zero means unbounded.
// Defaults to 10 or $WARPSYNC_MAX_ITERATIONS.
func WithMaxIterations(n int) Option {
	return func(c *config) { c.limits.MaxIterations = n }
}

// WithMaxRewrites bounds the total number of applied rewrites. Zero means
// unbounded, the default unless $WARPSYNC_MAX_REWRITES is set.
func WithMaxRewrites(n int) Option {
	return func(c *config) { c.limits.MaxRewrites = n }
}

// WithLogger sets the logger for applied rewrites. Nil keeps the default,
// which discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
