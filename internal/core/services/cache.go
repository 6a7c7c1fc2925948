package services

import (
	"sync"
	"time"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// Cache defaults.
const (
	DefaultCacheMaxEntries = 100
	DefaultCacheTTL        = 30 * time.Minute
)

// CachedCollectionEntry wraps a collection with cache bookkeeping.
// Entries are transient and rebuildable from the vector store.
type CachedCollectionEntry struct {
	Collection     domain.VectorCollection
	CachedAt       time.Time
	ExpiresAt      time.Time
	AccessCount    int64
	LastAccessedAt time.Time
}

// collectionCache is a bounded in-process cache of collection metadata.
// Entries expire after a TTL regardless of access pattern, and the
// least-recently-accessed entry is evicted when the cache exceeds its
// maximum size. Safe for concurrent use.
type collectionCache struct {
	mu         sync.Mutex
	entries    map[string]*CachedCollectionEntry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

func newCollectionCache(maxEntries int, ttl time.Duration) *collectionCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &collectionCache{
		entries:    make(map[string]*CachedCollectionEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the cached collection, if present and unexpired.
func (c *collectionCache) Get(name string) (*domain.VectorCollection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.After(entry.ExpiresAt) {
		delete(c.entries, name)
		return nil, false
	}

	entry.AccessCount++
	entry.LastAccessedAt = now
	col := entry.Collection
	return &col, true
}

// Put stores a collection, evicting the least-recently-accessed entry
// when the cache is full.
func (c *collectionCache) Put(name string, col domain.VectorCollection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[name]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[name] = &CachedCollectionEntry{
		Collection:     col,
		CachedAt:       now,
		ExpiresAt:      now.Add(c.ttl),
		LastAccessedAt: now,
	}
}

// Delete removes an entry.
func (c *collectionCache) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}

// Len returns the number of entries, expired ones included.
func (c *collectionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops expired entries first, then the least-recently
// accessed one if the cache is still full. Caller holds the lock.
func (c *collectionCache) evictLocked(now time.Time) {
	for name, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, name)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var oldest string
	var oldestAt time.Time
	for name, entry := range c.entries {
		if oldest == "" || entry.LastAccessedAt.Before(oldestAt) {
			oldest = name
			oldestAt = entry.LastAccessedAt
		}
	}
	if oldest != "" {
		delete(c.entries, oldest)
	}
}
