package poeapi

import (
	"sync"
	"time"
)

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// responseCache maps a request URL to a previously fetched body with an
// expiry. Expired entries read as misses and are only ever superseded
// by the next write for the same key; there is no eviction. The key
// space is bounded by the small set of accounts and characters a user
// actually watches, so unbounded growth is accepted.
type responseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	clock   func() time.Time
}

func newResponseCache() *responseCache {
	return &responseCache{
		entries: make(map[string]cacheEntry),
		clock:   time.Now,
	}
}

// get returns the payload for key if it has not expired.
func (c *responseCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.clock().Before(entry.expiresAt) {
		return nil, false
	}
	return entry.payload, true
}

// put unconditionally overwrites any existing entry for key.
func (c *responseCache) put(key string, payload []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		payload:   payload,
		expiresAt: c.clock().Add(ttl),
	}
}
