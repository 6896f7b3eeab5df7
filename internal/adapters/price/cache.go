package price

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value   float64
	expires time.Time // zero means no expiry
}

// Cache is a small in-process price cache. Spot prices carry a TTL; historical
// prices never expire since a past day's close does not change.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(key string) (float64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		return 0, false
	}
	return entry.value, true
}

func (c *Cache) Set(key string, value float64, ttl time.Duration) {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}
