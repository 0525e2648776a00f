package journal

import (
	"sync"
	"time"
)

// CacheKey identifies a cached listing by container and query.
type CacheKey struct {
	Container string
	Query     string
}

type cacheEntry struct {
	corpus    Corpus
	fetchedAt time.Time
}

// Cache memoizes concatenated corpora for a bounded time. Writers must call
// Invalidate synchronously after a successful write so a reader never sees
// data older than its own write.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[CacheKey]cacheEntry
}

// NewCache creates a cache whose entries expire after ttl. A ttl <= 0
// disables caching. now defaults to time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[CacheKey]cacheEntry),
	}
}

// Get returns the cached corpus for key if present and not expired.
func (c *Cache) Get(key CacheKey) (Corpus, bool) {
	if c.ttl <= 0 {
		return Corpus{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Corpus{}, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		delete(c.entries, key)
		return Corpus{}, false
	}
	return e.corpus, true
}

// Put stores corpus under key, stamped with the current time.
func (c *Cache) Put(key CacheKey, corpus Corpus) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{corpus: corpus, fetchedAt: c.now()}
}

// Invalidate drops key.
func (c *Cache) Invalidate(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateContainer drops every key in container.
func (c *Cache) InvalidateContainer(container string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.Container == container {
			delete(c.entries, key)
		}
	}
}
