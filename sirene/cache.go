package sirene

import (
	"fmt"
	"sync"
	"time"
)

// Clock returns the current time. Injected so tests control expiry.
type Clock func() time.Time

// Cache is a TTL cache for search pages, keyed by the built query plus
// page parameters. Entries are immutable once written and expire by
// timestamp; upstream data changes slowly relative to the window, so no
// invalidation protocol exists. Safe for concurrent use.
type Cache struct {
	ttl time.Duration
	now Clock

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	page     *SearchPage
	storedAt time.Time
}

// NewCache builds a cache with the given TTL. A nil clock means time.Now.
func NewCache(ttl time.Duration, now Clock) *Cache {
	if now == nil {
		now = time.Now
	}

	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// CacheKey derives the cache key for a query and its page parameters.
func CacheKey(query string, page, pageSize int) string {
	return fmt.Sprintf("%s|%d|%d", query, page, pageSize)
}

// Get returns the cached page for key, or false when absent or expired.
func (c *Cache) Get(key string) (*SearchPage, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.storedAt) > c.ttl {
		return nil, false
	}

	return entry.page, true
}

// Put stores a page under key, evicting any expired entries on the way.
func (c *Cache) Put(key string, page *SearchPage) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{page: page, storedAt: now}
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
