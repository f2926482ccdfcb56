package app

import (
	"time"

	workerpool "github.com/cuscogo/huntd/internal/adapters/mq/worker"
	"github.com/cuscogo/huntd/internal/domain/catalog"
	"github.com/cuscogo/huntd/pkg/logger"
)

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithDatabasePath sets the SQLite database location. ":memory:" is valid.
func WithDatabasePath(path string) Option {
	return func(s *Service) {
		s.databasePath = path
	}
}

// WithBiomes sets the biome catalog used to build the geo index.
func WithBiomes(biomes []catalog.Biome) Option {
	return func(s *Service) {
		s.biomes = biomes
	}
}

// WithItems sets the hunt item catalog.
func WithItems(items []catalog.Item) Option {
	return func(s *Service) {
		s.items = make(map[string]catalog.Item, len(items))
		for _, it := range items {
			s.items[it.ID] = it
		}
	}
}

// WithWorkerCount sets the number of deferred evaluation workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithQueueSize bounds the deferred evaluation queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithDedupeSize bounds the deferred-scheduling dedupe cache.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithLocationResolver injects the late GPS fix provider used by the
// deferred evaluation pipeline.
func WithLocationResolver(r workerpool.Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// WithResolveTimeout bounds how long a worker waits for a GPS fix.
func WithResolveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.resolveTimeout = d
		}
	}
}
