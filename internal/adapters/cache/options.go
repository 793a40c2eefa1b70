// Package cache provides a bounded, expiring store for computed results.
package cache

import "time"

// Option applies a configuration option to the LRU.
type Option func(*config)

type config struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	onEvict func()
}

// WithMaxSize sets the maximum number of entries.
// If maxSize <= 0 the cache stores nothing.
func WithMaxSize(maxSize int) Option {
	return func(c *config) {
		c.maxSize = maxSize
	}
}

// WithTTL sets how long an entry stays valid. Zero or negative disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEvictionHook registers a callback invoked for every capacity eviction.
func WithEvictionHook(fn func()) Option {
	return func(c *config) {
		c.onEvict = fn
	}
}
