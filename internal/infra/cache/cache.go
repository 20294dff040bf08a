// Package cache provides a small in-memory TTL cache. The exchange-rate
// client keeps its process-wide rate here.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

type options struct {
	now     func() time.Time
	janitor bool
}

// Option configures a cache.
type Option func(*options)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithoutJanitor disables the background sweep of expired entries. Expired
// entries are still never returned.
func WithoutJanitor() Option {
	return func(o *options) { o.janitor = false }
}

// InMemory is a thread-safe in-memory cache with TTL.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a new in-memory cache with the given TTL. Unless disabled, a
// goroutine sweeps expired entries every TTL until Close is called.
func New[T any](ttl time.Duration, opts ...Option) *InMemory[T] {
	o := options{now: time.Now, janitor: true}
	for _, opt := range opts {
		opt(&o)
	}

	c := &InMemory[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		now:   o.now,
		stop:  make(chan struct{}),
	}
	if o.janitor && ttl > 0 {
		go c.cleanup()
	}
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes a value from the cache.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Close stops the background sweep. It is safe to call more than once.
func (c *InMemory[T]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Purge drops expired entries and returns how many were removed.
func (c *InMemory[T]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, v := range c.items {
		if !now.Before(v.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

func (c *InMemory[T]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
