package embedding

import (
	"sync"
	"sync/atomic"
)

// Cache maps node IDs to embedding vectors, keyed by content hash so a
// vector is only reused while the node's content is unchanged.
// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	hash string
	vec  []float32
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the vector cached for id when it was stored under hash.
// An entry stored under a different hash is stale and is evicted.
func (c *Cache) Get(id, hash string) ([]float32, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()

	if ok && e.hash == hash {
		c.hits.Add(1)
		return e.vec, true
	}
	if ok {
		c.mu.Lock()
		if cur, still := c.entries[id]; still && cur.hash != hash {
			delete(c.entries, id)
		}
		c.mu.Unlock()
	}
	c.misses.Add(1)
	return nil, false
}

// Put stores vec for id under hash, replacing any previous entry.
// Nil vectors are not cached.
func (c *Cache) Put(id, hash string, vec []float32) {
	if vec == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{hash: hash, vec: vec}
}

// Invalidate removes the entry for id.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// HitRate returns hits and misses since the cache was created.
func (c *Cache) HitRate() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
