package tariff

import (
	"sync"
	"time"

	"github.com/chrishsmith/sourcify-sub007/internal/service"
)

// rateEntry is one cached live rate.
type rateEntry struct {
	expiry time.Time
	rate   float64
}

// RateCache is a thread-safe, TTL-bounded cache for live program rates.
// Expired entries are retained: a failed upstream fetch degrades to the
// last-known value flagged stale rather than a hard failure.
type RateCache struct {
	entries map[string]rateEntry
	ttl     time.Duration
	now     func() time.Time

	hits        int64
	misses      int64
	staleServes int64

	mu sync.RWMutex
}

// NewRateCache creates a cache with the given TTL. A zero TTL defaults to
// 15 minutes.
func NewRateCache(ttl time.Duration) *RateCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	return &RateCache{
		entries: make(map[string]rateEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached rate for a key. fresh is false once the entry has
// outlived its TTL; known is false when the key has never been stored.
func (c *RateCache) Get(key string) (rate float64, fresh, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return 0, false, false
	}
	if c.now().After(entry.expiry) {
		c.staleServes++
		return entry.rate, false, true
	}
	c.hits++
	return entry.rate, true, true
}

// Put stores a rate under the key with a fresh TTL window.
func (c *RateCache) Put(key string, rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = rateEntry{rate: rate, expiry: c.now().Add(c.ttl)}
}

// Status reports the observable cache state.
func (c *RateCache) Status() service.CacheStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return service.CacheStatus{
		Entries:     len(c.entries),
		Hits:        c.hits,
		Misses:      c.misses,
		StaleServes: c.staleServes,
		TTL:         c.ttl,
	}
}

// Clear removes all entries and resets counters.
func (c *RateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]rateEntry)
	c.hits, c.misses, c.staleServes = 0, 0, 0
}
