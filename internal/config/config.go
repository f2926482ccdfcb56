// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and environment on top.
// - External errors are wrapped via this package's error kinds.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabasePath is the SQLite database location. ":memory:" is valid.
	DatabasePath string `koanf:"database_path"`

	// BiomeCatalogPath points at the YAML biome catalog. An invalid
	// catalog degrades the service to "no bonuses" instead of failing.
	BiomeCatalogPath string `koanf:"biome_catalog_path"`

	// ItemCatalogPath points at the YAML hunt item catalog.
	ItemCatalogPath string `koanf:"item_catalog_path"`

	// QueueSize bounds the deferred evaluation queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of deferred evaluation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the deferred-scheduling dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ResolveTimeoutMS bounds how long a worker waits for a GPS fix.
	ResolveTimeoutMS int `koanf:"resolve_timeout_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		DatabasePath:     "huntd.db",
		BiomeCatalogPath: "biomes.yaml",
		ItemCatalogPath:  "items.yaml",
		QueueSize:        1024,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       10000,
		ResolveTimeoutMS: 30000,
	}
}
