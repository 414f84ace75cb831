package extract

import (
	"sort"
	"sync"
	"time"

	"github.com/agentic-research/genmeta/api"
)

type cacheEntry struct {
	summary   api.Summary
	createdAt time.Time
	hitCount  int
}

// Cache memoizes extraction results keyed by content fingerprint. Inserts
// beyond the entry limit first purge entries past their time-to-live,
// then evict the lowest-hit-count fifth of what remains. Stored summaries
// are never mutated; only hit bookkeeping changes after insertion.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	entries    map[string]*cacheEntry

	now func() time.Time // test hook
}

func NewCache(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		maxEntries: maxEntries,
		ttl:        ttl,
		entries:    make(map[string]*cacheEntry),
		now:        time.Now,
	}
}

// Get returns the cached summary for a fingerprint, counting the hit.
func (c *Cache) Get(fingerprint string) (api.Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fingerprint]
	if !ok {
		return api.Summary{}, false
	}
	e.hitCount++
	return e.summary, true
}

// Put inserts a freshly computed summary, evicting as needed to stay
// within the entry limit.
func (c *Cache) Put(fingerprint string, s api.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = &cacheEntry{summary: s, createdAt: c.now()}
	if len(c.entries) <= c.maxEntries {
		return
	}
	c.purgeExpired()
	if len(c.entries) > c.maxEntries {
		c.evictColdest()
	}
}

// GetOrCompute returns the cached summary for a fingerprint, computing
// and storing it on a miss. The compute function runs outside the cache
// lock, so concurrent misses on distinct fingerprints never serialize;
// concurrent misses on the same fingerprint may compute twice, with the
// later result winning.
func (c *Cache) GetOrCompute(fingerprint string, compute func() (api.Summary, error)) (api.Summary, error) {
	if s, ok := c.Get(fingerprint); ok {
		return s, nil
	}
	s, err := compute()
	if err != nil {
		return api.Summary{}, err
	}
	c.Put(fingerprint, s)
	return s, nil
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// purgeExpired drops entries older than the TTL. Caller holds the lock.
func (c *Cache) purgeExpired() {
	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.entries {
		if e.createdAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
}

// evictColdest removes the lowest-hit-count 20% of entries, favoring
// entries that have proven reused. Ties break toward older entries.
// Caller holds the lock.
func (c *Cache) evictColdest() {
	type ranked struct {
		key string
		e   *cacheEntry
	}
	all := make([]ranked, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, ranked{k, e})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].e.hitCount != all[j].e.hitCount {
			return all[i].e.hitCount < all[j].e.hitCount
		}
		return all[i].e.createdAt.Before(all[j].e.createdAt)
	})
	n := len(all) / 5
	if n < 1 {
		n = 1
	}
	for _, r := range all[:n] {
		delete(c.entries, r.key)
	}
}
