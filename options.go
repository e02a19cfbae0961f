package taskmux

import "github.com/sirupsen/logrus"

// config collects the cross-cutting collaborators shared by tasks and
// registries. Options mutate a config rather than the generic types
// themselves so the same Option works for both.
type config struct {
	observer Observer
	logger   logrus.FieldLogger
	runner   Runner
}

func newConfig(opts []Option) config {
	cfg := config{runner: goRunner{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a Task or a Registry at creation time.
type Option func(*config)

// WithObserver attaches an Observer that receives started, coalesced,
// finished, and cancelled events.
func WithObserver(o Observer) Option {
	return func(cfg *config) {
		cfg.observer = o
	}
}

// WithLogger attaches a logrus logger; task state transitions are logged
// at debug level. Without it the library is silent.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithRunner replaces the default one-goroutine-per-task runner, e.g.
// with a BoundedRunner.
func WithRunner(r Runner) Option {
	return func(cfg *config) {
		cfg.runner = r
	}
}
