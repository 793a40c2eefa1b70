package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Default cache configuration constants.
const (
	defaultMaxSize = 1024
	defaultTTL     = 10 * time.Minute
)

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// LRU is a size-bounded least-recently-used cache with optional expiry.
// It is safe for concurrent use.
type LRU[T any] struct {
	mu    sync.Mutex
	cfg   config
	items map[string]*list.Element
	order *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an LRU with configuration options.
func New[T any](opts ...Option) *LRU[T] {
	cfg := config{
		maxSize: defaultMaxSize,
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LRU[T]{
		cfg:   cfg,
		items: make(map[string]*list.Element),
		order: list.New(),
	}
}

// Enabled reports whether the cache can hold any entry.
func (c *LRU[T]) Enabled() bool {
	return c.cfg.maxSize > 0
}

// Get returns the value for key and whether it was present and fresh.
func (c *LRU[T]) Get(key string) (T, bool) {
	var zero T
	if !c.Enabled() {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if c.expired(e) {
		c.remove(elem)
		c.misses.Add(1)
		return zero, false
	}
	c.order.MoveToFront(elem)
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *LRU[T]) Set(key string, value T) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value}
	if c.cfg.ttl > 0 {
		e.expiresAt = c.cfg.now().Add(c.cfg.ttl)
	}

	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(e)

	for c.order.Len() > c.cfg.maxSize {
		c.remove(c.order.Back())
		if c.cfg.onEvict != nil {
			c.cfg.onEvict()
		}
	}
}

// Delete removes key if present.
func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*entry[T])) {
			c.remove(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Stats returns hit and miss counts since creation.
func (c *LRU[T]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[T]) expired(e *entry[T]) bool {
	return !e.expiresAt.IsZero() && c.cfg.now().After(e.expiresAt)
}

// remove must be called with c.mu held.
func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
