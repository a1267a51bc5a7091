package auth

import (
	"sync"
	"time"

	"github.com/demonshower/BFTBrain/internal/domain"
)

const (
	// DefaultCacheSize bounds the number of verified tokens kept in memory.
	DefaultCacheSize = 10000

	cacheSweepInterval = time.Minute
)

type cachedReplica struct {
	replica   *domain.Replica
	expiresAt time.Time
}

// tokenCache holds verified replicas until their cache deadline. Expired
// entries are swept at most once per cacheSweepInterval, or whenever the
// cache is full.
type tokenCache struct {
	mu         sync.Mutex
	entries    map[string]cachedReplica
	maxEntries int
	nextSweep  time.Time
}

func newTokenCache(maxEntries int) *tokenCache {
	return &tokenCache{
		entries:    make(map[string]cachedReplica),
		maxEntries: maxEntries,
	}
}

func (c *tokenCache) get(token string, now time.Time) (*domain.Replica, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[token]
	if !ok {
		return nil, false
	}
	if !now.Before(entry.expiresAt) {
		delete(c.entries, token)
		return nil, false
	}
	return entry.replica, true
}

// put stores entry unless the cache is still full after a sweep.
func (c *tokenCache) put(token string, entry cachedReplica, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !now.Before(c.nextSweep) || len(c.entries) >= c.maxEntries {
		c.sweep(now)
	}
	if _, exists := c.entries[token]; !exists && len(c.entries) >= c.maxEntries {
		return
	}
	c.entries[token] = entry
}

func (c *tokenCache) sweep(now time.Time) {
	for token, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, token)
		}
	}
	c.nextSweep = now.Add(cacheSweepInterval)
}

func (c *tokenCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
