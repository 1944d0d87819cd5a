package recommend

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	id      string
	found   bool
	expires time.Time
}

// CachingResolver wraps another Resolver with a TTL-based in-memory cache.
// Both hits and definitive misses are cached; errors are not.
type CachingResolver struct {
	base Resolver
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[int]cacheEntry
}

// NewCachingResolver returns a Resolver that caches lookups for the provided TTL.
func NewCachingResolver(base Resolver, ttl time.Duration) *CachingResolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingResolver{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[int]cacheEntry),
	}
}

// Lookup returns a cached mapping when available, otherwise it delegates to
// the underlying resolver and stores the result.
func (c *CachingResolver) Lookup(ctx context.Context, id int) (string, bool, error) {
	if c == nil || c.base == nil {
		return "", false, ErrUnavailable
	}

	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[id]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.id, entry.found, nil
	}

	primaryID, found, err := c.base.Lookup(ctx, id)
	if err != nil {
		return "", false, err
	}

	c.mu.Lock()
	c.items[id] = cacheEntry{id: primaryID, found: found, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return primaryID, found, nil
}
