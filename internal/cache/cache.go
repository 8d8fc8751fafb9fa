// Package cache provides the in-memory entity store used by the project
// manager.
//
// A Cache holds complete entities keyed by identifier. It has no TTL and no
// eviction; entries change only through Set or Update and disappear only on
// Clear.
//
//	projects := cache.New[project.ID, project.Project]("project", metrics)
//	projects.Set(p.ID, p)
//	p, ok := projects.Get(id)
package cache

import "sync"

// Cache is a thread-safe map from K to V.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	kind    string
	metrics *Metrics
}

// New creates an empty cache. kind labels the cache in metrics; metrics may
// be nil.
func New[K comparable, V any](kind string, metrics *Metrics) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]V),
		kind:    kind,
		metrics: metrics,
	}
}

// Get returns the entry for k, if present.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	v, ok := c.entries[k]
	c.mu.RUnlock()

	if ok {
		c.metrics.recordHit(c.kind)
	} else {
		c.metrics.recordMiss(c.kind)
	}
	return v, ok
}

// Set inserts or overwrites the entry for k.
func (c *Cache[K, V]) Set(k K, v V) {
	c.mu.Lock()
	c.entries[k] = v
	size := len(c.entries)
	c.mu.Unlock()

	c.metrics.recordSet(c.kind, size)
}

// Update stores fn(old, ok) under k and returns it. fn runs with the write
// lock held, so it must not call back into the cache.
func (c *Cache[K, V]) Update(k K, fn func(old V, ok bool) V) V {
	c.mu.Lock()
	old, ok := c.entries[k]
	v := fn(old, ok)
	c.entries[k] = v
	size := len(c.entries)
	c.mu.Unlock()

	c.metrics.recordSet(c.kind, size)
	return v
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]V)
	c.mu.Unlock()

	c.metrics.recordClear(c.kind)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
