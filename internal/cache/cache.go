// Package cache is a process-wide time-boxed memo store with tag-based
// revalidation.
//
// Entries expire after their TTL and can be dropped early by tag. Concurrent
// misses on the same key each run the fill function; the last writer wins.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// InvalidateFunc observes tag invalidations. n is the number of entries dropped.
type InvalidateFunc func(tag string, n int)

type entry struct {
	value   any
	expires time.Time
	tags    []string
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	byTag   map[string]map[string]struct{}
	now     func() time.Time

	hooksMu sync.RWMutex
	hooks   []InvalidateFunc
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		byTag:   make(map[string]map[string]struct{}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds a cache key from an operation name and its parameters.
func Key(op string, params ...string) string {
	if len(params) == 0 {
		return op
	}
	return op + "|" + strings.Join(params, "|")
}

// Get returns the live value for key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Set stores v under key for ttl and indexes it under tags. A non-positive
// ttl stores nothing.
func (c *Cache) Set(key string, v any, ttl time.Duration, tags ...string) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
	c.entries[key] = entry{value: v, expires: c.now().Add(ttl), tags: tags}
	for _, tag := range tags {
		keys, ok := c.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// Delete drops one key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	c.removeLocked(key)
	c.mu.Unlock()
}

func (c *Cache) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for _, tag := range e.tags {
		if keys, ok := c.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}

// InvalidateTag drops every entry carrying tag and returns how many were
// dropped. Hooks run after the lock is released.
func (c *Cache) InvalidateTag(tag string) int {
	c.mu.Lock()
	keys := c.byTag[tag]
	n := len(keys)
	for key := range keys {
		c.removeLocked(key)
	}
	delete(c.byTag, tag)
	c.mu.Unlock()

	c.hooksMu.RLock()
	hooks := c.hooks
	c.hooksMu.RUnlock()
	for _, h := range hooks {
		h(tag, n)
	}
	return n
}

// OnInvalidate registers a hook called after every InvalidateTag.
func (c *Cache) OnInvalidate(fn InvalidateFunc) {
	c.hooksMu.Lock()
	c.hooks = append(c.hooks, fn)
	c.hooksMu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep evicts expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, e := range c.entries {
		if !now.Before(e.expires) {
			c.removeLocked(key)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is cancelled.
func (c *Cache) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := c.Sweep(); n > 0 {
				logger.Debug("cache: swept expired entries", slog.Int("count", n), slog.Int("remaining", c.Len()))
			}
		}
	}
}

// Remember returns the cached value for key or fills it with fn. Errors are
// returned to the caller and never cached. A nil cache calls fn directly.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, tags []string, fn func(context.Context) (T, error)) (T, error) {
	if c != nil {
		if v, ok := c.Get(key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	if c != nil {
		c.Set(key, v, ttl, tags...)
	}
	return v, nil
}
