// Package cache caches per-symbol key levels between scans, in memory or in
// Redis with graceful degradation.
package cache

import (
	"sync"
	"time"

	"crypto-signal-scanner/internal/keylevels"
)

type cachedLevels struct {
	levels    keylevels.Levels
	expiresAt time.Time
}

// TTLCache is an in-memory key-level cache with a fixed TTL. The clock is
// injectable so expiry can be tested deterministically.
type TTLCache struct {
	mu    sync.RWMutex
	cache map[string]cachedLevels
	ttl   time.Duration
	now   func() time.Time
}

// NewTTLCache creates a cache. A nil clock defaults to time.Now.
func NewTTLCache(ttl time.Duration, now func() time.Time) *TTLCache {
	if now == nil {
		now = time.Now
	}
	return &TTLCache{
		cache: make(map[string]cachedLevels),
		ttl:   ttl,
		now:   now,
	}
}

// Get returns the cached levels for a symbol if present and not expired.
func (c *TTLCache) Get(symbol string) (keylevels.Levels, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.cache[symbol]
	if !exists {
		return nil, false
	}
	if c.now().After(cached.expiresAt) {
		return nil, false
	}
	return cached.levels, true
}

// Set stores levels for a symbol with the cache TTL.
func (c *TTLCache) Set(symbol string, levels keylevels.Levels) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[symbol] = cachedLevels{
		levels:    levels,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Clear removes all cached entries.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]cachedLevels)
}

// CleanupExpired removes expired entries.
func (c *TTLCache) CleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for symbol, cached := range c.cache {
		if now.After(cached.expiresAt) {
			delete(c.cache, symbol)
		}
	}
}
