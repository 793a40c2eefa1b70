// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers an optional YAML file and environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount bounds how many batch pairs are decomposed in parallel.
	WorkerCount int `koanf:"worker_count"`

	// CacheSize is the number of decomposition results kept in memory. 0 disables the cache.
	CacheSize int `koanf:"cache_size"`

	// CacheTTLSeconds is how long a cached result stays valid.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// MaxBatchSize caps the number of pairs in one batch request.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MaxCategories caps the number of buckets in one period.
	MaxCategories int `koanf:"max_categories"`

	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		WorkerCount:     runtime.NumCPU(),
		CacheSize:       4096,
		CacheTTLSeconds: 600,
		MaxBatchSize:    500,
		MaxCategories:   1000,
		MaxBodyBytes:    4 << 20,
	}
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be >= 1, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must be >= 0, got %d", ErrInvalidConfig, c.CacheSize)
	case c.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: cache_ttl_seconds must be >= 0, got %d", ErrInvalidConfig, c.CacheTTLSeconds)
	case c.MaxBatchSize < 1:
		return fmt.Errorf("%w: max_batch_size must be >= 1, got %d", ErrInvalidConfig, c.MaxBatchSize)
	case c.MaxCategories < 1:
		return fmt.Errorf("%w: max_categories must be >= 1, got %d", ErrInvalidConfig, c.MaxCategories)
	case c.MaxBodyBytes < 1:
		return fmt.Errorf("%w: max_body_bytes must be >= 1, got %d", ErrInvalidConfig, c.MaxBodyBytes)
	}
	return nil
}
