package cache

import (
	"context"
	"testing"

	"github.com/hupe1980/segmento/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_EdgeCases(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRUBlockCache(50, rc)
	ctx := context.Background()
	k := CacheKey{Kind: CacheKindBlob, Path: "centroids.json", Offset: 1}

	// Item larger than capacity
	c.Set(ctx, k, make([]byte, 60))
	_, ok := c.Get(ctx, k)
	assert.False(t, ok, "item > capacity should not be cached")

	// Update existing item
	c.Set(ctx, k, make([]byte, 10))
	assert.Equal(t, int64(10), c.Size())
	assert.Equal(t, int64(10), rc.MemoryUsage())

	c.Set(ctx, k, make([]byte, 20))
	assert.Equal(t, int64(20), c.Size())
	assert.Equal(t, int64(20), rc.MemoryUsage())

	c.Set(ctx, k, make([]byte, 5))
	assert.Equal(t, int64(5), c.Size())
	assert.Equal(t, int64(5), rc.MemoryUsage())

	// Update rejected by the controller
	rc2 := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c2 := NewLRUBlockCache(50, rc2)
	c2.Set(ctx, k, make([]byte, 8))
	c2.Set(ctx, k, make([]byte, 12))

	val, ok := c2.Get(ctx, k)
	require.True(t, ok)
	assert.Len(t, val, 8, "update should have been rejected by controller")
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRUBlockCache(10, nil)
	ctx := context.Background()

	a := CacheKey{Kind: CacheKindAnalytics, Path: "a"}
	b := CacheKey{Kind: CacheKindAnalytics, Path: "b"}
	d := CacheKey{Kind: CacheKindAnalytics, Path: "d"}

	c.Set(ctx, a, make([]byte, 4))
	c.Set(ctx, b, make([]byte, 4))

	// Touch a so b becomes least recently used.
	_, ok := c.Get(ctx, a)
	require.True(t, ok)

	c.Set(ctx, d, make([]byte, 4))

	_, ok = c.Get(ctx, b)
	assert.False(t, ok)
	_, ok = c.Get(ctx, a)
	assert.True(t, ok)
	_, ok = c.Get(ctx, d)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(8), c.Size())
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()
	k := CacheKey{Kind: CacheKindBlob, Path: "x"}
	c.Set(ctx, k, []byte{1})
	c.Get(ctx, k)
	c.Get(ctx, CacheKey{Kind: CacheKindBlob, Path: "y"})

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_InvalidateByManifest(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	c := NewLRUBlockCache(100, rc)
	ctx := context.Background()
	c.Set(ctx, CacheKey{Kind: CacheKindAnalytics, ManifestID: 1, Path: "distribution"}, []byte("a"))
	c.Set(ctx, CacheKey{Kind: CacheKindAnalytics, ManifestID: 1, Path: "stats", Offset: 2}, []byte("b"))
	c.Set(ctx, CacheKey{Kind: CacheKindAnalytics, ManifestID: 2, Path: "distribution"}, []byte("c"))

	c.Invalidate(func(k CacheKey) bool {
		return k.ManifestID == 1
	})

	_, ok := c.Get(ctx, CacheKey{Kind: CacheKindAnalytics, ManifestID: 1, Path: "distribution"})
	assert.False(t, ok)
	_, ok = c.Get(ctx, CacheKey{Kind: CacheKindAnalytics, ManifestID: 2, Path: "distribution"})
	assert.True(t, ok)
	assert.Equal(t, int64(1), rc.MemoryUsage())

	require.NoError(t, c.Close())
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Equal(t, 0, c.Len())
}

func TestCacheKind_String(t *testing.T) {
	assert.Equal(t, "blob", CacheKindBlob.String())
	assert.Equal(t, "analytics", CacheKindAnalytics.String())
	assert.Equal(t, "unknown", CacheKindUnknown.String())
}
