// Package config defines service configuration structures and loading hooks.
package config

import (
	"runtime"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the posting ingest queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many ingest keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver picks the catalog backend: memory or postgres.
	StoreDriver string `koanf:"store_driver"`

	// PostgresDSN is required when StoreDriver is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// UpstreamURL is the marketplace REST backend. Empty disables syncing.
	UpstreamURL string `koanf:"upstream_url"`

	UpstreamTimeoutMS     int `koanf:"upstream_timeout_ms"`
	UpstreamSyncIntervalS int `koanf:"upstream_sync_interval_s"`

	// RecommendationThreshold is the strict cutoff for the recommendations view.
	RecommendationThreshold int `koanf:"recommendation_threshold"`

	// DashboardThreshold and DashboardTopN shape the dashboard view.
	DashboardThreshold int `koanf:"dashboard_threshold"`
	DashboardTopN      int `koanf:"dashboard_top_n"`

	// MaxLimit caps GET /recommendations?limit.
	MaxLimit int `koanf:"max_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		QueueSize:               10_000,
		WorkerCount:             runtime.NumCPU() * 2,
		DedupeSize:              100_000,
		StoreDriver:             DriverMemory,
		UpstreamTimeoutMS:       5_000,
		UpstreamSyncIntervalS:   300,
		RecommendationThreshold: 20,
		DashboardThreshold:      30,
		DashboardTopN:           6,
		MaxLimit:                100,
	}
}
