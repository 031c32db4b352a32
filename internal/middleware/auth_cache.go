package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

const (
	ownerCacheTTL      = 5 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("owner not found (cached)")

type cachedOwner struct {
	ownerID   string
	negative  bool
	fetchedAt time.Time
}

func (co cachedOwner) expired(now time.Time) bool {
	ttl := ownerCacheTTL
	if co.negative {
		ttl = negativeCacheTTL
	}
	return now.Sub(co.fetchedAt) >= ttl
}

// hashKey returns a hex-encoded SHA-256 hash of the API key so raw keys
// are never stored in memory.
func hashKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

// CachedOwnerLookup wraps an OwnerLookup with a bounded in-memory cache.
// Failed lookups are cached briefly so unknown keys do not hit the database
// on every request.
type CachedOwnerLookup struct {
	inner OwnerLookup
	mu    sync.RWMutex
	cache map[string]cachedOwner
	now   func() time.Time
}

// NewCachedOwnerLookup creates a caching wrapper around inner. ctx controls
// the lifetime of the background eviction goroutine.
func NewCachedOwnerLookup(ctx context.Context, inner OwnerLookup) *CachedOwnerLookup {
	c := &CachedOwnerLookup{
		inner: inner,
		cache: make(map[string]cachedOwner),
		now:   time.Now,
	}
	go c.evictLoop(ctx)
	return c
}

func (c *CachedOwnerLookup) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.evictExpiredLocked()
			c.mu.Unlock()
		}
	}
}

func (c *CachedOwnerLookup) evictExpiredLocked() {
	now := c.now()
	for k, v := range c.cache {
		if v.expired(now) {
			delete(c.cache, k)
		}
	}
}

// GetOwnerByAPIKey returns a cached owner ID or delegates to the inner lookup.
func (c *CachedOwnerLookup) GetOwnerByAPIKey(ctx context.Context, apiKey string) (string, error) {
	hk := hashKey(apiKey)

	c.mu.RLock()
	entry, ok := c.cache[hk]
	c.mu.RUnlock()
	if ok && !entry.expired(c.now()) {
		if entry.negative {
			return "", errCachedNotFound
		}
		return entry.ownerID, nil
	}

	ownerID, err := c.inner.GetOwnerByAPIKey(ctx, apiKey)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cache) >= maxCacheEntries {
		c.evictExpiredLocked()
		for k := range c.cache {
			if len(c.cache) < maxCacheEntries {
				break
			}
			delete(c.cache, k)
		}
	}
	if err != nil {
		c.cache[hk] = cachedOwner{negative: true, fetchedAt: c.now()}
		return "", err
	}
	c.cache[hk] = cachedOwner{ownerID: ownerID, fetchedAt: c.now()}

	return ownerID, nil
}
