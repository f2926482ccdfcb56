package worker

import (
	"time"

	"github.com/cuscogo/huntd/pkg/logger"
)

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name used for logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithResolveTimeout bounds how long a worker waits for a GPS fix.
func WithResolveTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.resolveTimeout = d
		}
	}
}
