// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and HEROES_ env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
	"time"
)

// Store drivers understood by the backend.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BaseURL is where the HeroClient finds the backend.
	BaseURL string `koanf:"base_url"`

	// HeroesPath is the collection path relative to BaseURL.
	HeroesPath string `koanf:"heroes_path"`

	// DebounceMS is the quiet period the search pipeline waits for.
	DebounceMS int `koanf:"debounce_ms"`

	// ClientTimeoutMS bounds a single backend call; 0 disables the timeout.
	ClientTimeoutMS int `koanf:"client_timeout_ms"`

	// StoreDriver selects the hero store: memory or postgres.
	StoreDriver string `koanf:"store_driver"`

	// DatabaseURL is the Postgres DSN used by the postgres driver.
	DatabaseURL string `koanf:"database_url"`

	// SeedDefaults loads the classic hero roster into an empty store.
	SeedDefaults bool `koanf:"seed_defaults"`

	// RateLimitRPS and RateLimitBurst throttle the backend; 0 disables it.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// MessageLimit caps the in-memory message log.
	MessageLimit int `koanf:"message_limit"`

	// SeedWorkers sets the number of workers used by the seed command.
	SeedWorkers int `koanf:"seed_workers"`

	// Metrics* shape what serve exports on /metrics.
	MetricsEnabled   bool              `koanf:"metrics_enabled"`
	MetricsNamespace string            `koanf:"metrics_namespace"`
	MetricsBuckets   []float64         `koanf:"metrics_buckets"`
	MetricsLabels    map[string]string `koanf:"metrics_labels"`
	MetricsRefreshMS int               `koanf:"metrics_refresh_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		BaseURL:         "http://localhost:9080",
		HeroesPath:      "api/heroes",
		DebounceMS:      300,
		ClientTimeoutMS: 0,
		StoreDriver:     DriverMemory,
		SeedDefaults:    true,
		RateLimitRPS:    0,
		RateLimitBurst:  10,
		MessageLimit:    1000,
		SeedWorkers:     runtime.NumCPU(),

		MetricsEnabled:   true,
		MetricsNamespace: "heroes",
		MetricsRefreshMS: 5000,
	}
}

// Debounce returns DebounceMS as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// ClientTimeout returns ClientTimeoutMS as a duration.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.ClientTimeoutMS) * time.Millisecond
}
