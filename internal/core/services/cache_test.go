package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

func testCollection(name string) domain.VectorCollection {
	return domain.VectorCollection{Name: name, VectorSize: 768, Distance: domain.DistanceCosine}
}

func TestCollectionCache_PutGet(t *testing.T) {
	c := newCollectionCache(10, time.Minute)

	c.Put("a", testCollection("a"))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 768, got.VectorSize)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCollectionCache_TTLExpiry(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c := newCollectionCache(10, 30*time.Minute)
	c.now = func() time.Time { return now }

	c.Put("a", testCollection("a"))

	now = base.Add(29 * time.Minute)
	_, ok := c.Get("a")
	assert.True(t, ok, "entry inside TTL must survive")

	now = base.Add(31 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry past TTL must expire")
	assert.Zero(t, c.Len(), "expired entry is removed on read")
}

func TestCollectionCache_LRUEviction(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c := newCollectionCache(3, time.Hour)
	c.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("col-%d", i)
		c.Put(name, testCollection(name))
		now = now.Add(time.Second)
	}

	// Touch col-0 and col-2 so col-1 becomes the least recently used.
	_, ok := c.Get("col-0")
	require.True(t, ok)
	now = now.Add(time.Second)
	_, ok = c.Get("col-2")
	require.True(t, ok)
	now = now.Add(time.Second)

	c.Put("col-3", testCollection("col-3"))

	assert.Equal(t, 3, c.Len())
	_, ok = c.Get("col-1")
	assert.False(t, ok, "least recently used entry must be evicted")
	for _, name := range []string{"col-0", "col-2", "col-3"} {
		_, ok = c.Get(name)
		assert.True(t, ok, "%s must survive eviction", name)
	}
}

func TestCollectionCache_EvictsExpiredBeforeLRU(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c := newCollectionCache(2, 10*time.Minute)
	c.now = func() time.Time { return now }

	c.Put("stale", testCollection("stale"))
	now = base.Add(11 * time.Minute)
	c.Put("fresh", testCollection("fresh"))
	now = now.Add(time.Second)

	c.Put("newer", testCollection("newer"))

	_, ok := c.Get("fresh")
	assert.True(t, ok, "unexpired entry must not be LRU-evicted while an expired one exists")
	_, ok = c.Get("stale")
	assert.False(t, ok)
}

func TestCollectionCache_Delete(t *testing.T) {
	c := newCollectionCache(10, time.Minute)
	c.Put("a", testCollection("a"))
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	c.Delete("a") // deleting a missing entry is fine
}

func TestCollectionCache_UpdateDoesNotEvict(t *testing.T) {
	c := newCollectionCache(2, time.Hour)
	c.Put("a", testCollection("a"))
	c.Put("b", testCollection("b"))

	// Re-putting an existing key must not push out the other entry.
	c.Put("a", testCollection("a"))
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b")
	assert.True(t, ok)
}
