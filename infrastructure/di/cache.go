package di

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is how often expired entries are evicted. Entries are
// also checked lazily on read, so the sweep only bounds memory growth
// between reads.
const sweepInterval = time.Minute

// InMemoryCache backs the query-bus caching middleware. The only cached
// read today is the per-user nudge list, which tolerates short staleness
// because the snapshot it derives from changes at most a few times a day.
// Per-process caching is fine for that: a Lambda instance serving a stale
// list for one TTL window is indistinguishable from a repeat compose.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewInMemoryCache creates a cache and starts its eviction sweep. The
// sweep goroutine lives as long as the process; the container creates
// exactly one cache.
func NewInMemoryCache() *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]cacheEntry),
	}
	go c.sweep()
	return c
}

// Get returns the cached value for key, treating expired entries as
// absent.
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value under key for ttl seconds
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(time.Duration(ttl) * time.Second),
	}
	return nil
}

// Delete removes the entry for key
func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Clear drops every entry
func (c *InMemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	return nil
}

func (c *InMemoryCache) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
