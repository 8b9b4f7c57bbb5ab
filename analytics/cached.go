package analytics

import (
	"context"
	"strconv"
	"strings"

	"github.com/hupe1980/segmento/codec"
	"github.com/hupe1980/segmento/internal/cache"
)

// Cached memoises Engine results in a block cache. Keys carry the bundle
// version, so results from an older bundle are never served after a reload
// and can be dropped with InvalidateVersion.
type Cached struct {
	*Engine

	cache   cache.BlockCache
	version uint64
	codec   codec.Codec
}

// NewCached wraps e. A nil cache disables memoisation; a nil codec uses
// codec.Default.
func NewCached(e *Engine, c cache.BlockCache, version uint64, cd codec.Codec) *Cached {
	if cd == nil {
		cd = codec.Default
	}
	return &Cached{Engine: e, cache: c, version: version, codec: cd}
}

// Version returns the bundle version the cache entries are keyed by.
func (c *Cached) Version() uint64 { return c.version }

// InvalidateVersion drops every analytics entry of the given version.
func (c *Cached) InvalidateVersion(version uint64) {
	if c.cache == nil {
		return
	}
	c.cache.Invalidate(func(k cache.CacheKey) bool {
		return k.Kind == cache.CacheKindAnalytics && k.ManifestID == version
	})
}

func (c *Cached) key(op string, cluster int, features []string, maxFeatures int) cache.CacheKey {
	var sb strings.Builder
	sb.WriteString(op)
	sb.WriteByte('/')
	sb.WriteString(strconv.Itoa(cluster))
	sb.WriteByte('/')
	sb.WriteString(strconv.Itoa(maxFeatures))
	for _, f := range features {
		sb.WriteByte('/')
		sb.WriteString(f)
	}
	return cache.CacheKey{
		Kind:       cache.CacheKindAnalytics,
		ManifestID: c.version,
		Path:       sb.String(),
	}
}

// memo looks key up, falling back to compute and storing the encoded result.
// Encoding failures only skip the store.
func memo[T any](c *Cached, key cache.CacheKey, compute func() (T, error)) (T, error) {
	ctx := context.Background()
	if c.cache != nil {
		if b, ok := c.cache.Get(ctx, key); ok {
			var v T
			if err := c.codec.Unmarshal(b, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := compute()
	if err != nil || c.cache == nil {
		return v, err
	}
	if b, err := c.codec.Marshal(v); err == nil {
		c.cache.Set(ctx, key, b)
	}
	return v, nil
}

// Distribution is Engine.Distribution, memoised.
func (c *Cached) Distribution() []SegmentCount {
	v, _ := memo(c, c.key("distribution", -1, nil, 0), func() ([]SegmentCount, error) {
		return c.Engine.Distribution(), nil
	})
	return v
}

// Stats is Engine.Stats, memoised.
func (c *Cached) Stats(cluster int, features []string, maxFeatures int) (SegmentStats, error) {
	return memo(c, c.key("stats", cluster, features, maxFeatures), func() (SegmentStats, error) {
		return c.Engine.Stats(cluster, features, maxFeatures)
	})
}

// AllStats is Engine.AllStats, memoised.
func (c *Cached) AllStats(features []string, maxFeatures int) ([]SegmentStats, error) {
	return memo(c, c.key("all-stats", -1, features, maxFeatures), func() ([]SegmentStats, error) {
		return c.Engine.AllStats(features, maxFeatures)
	})
}

// Info is Engine.Info, memoised.
func (c *Cached) Info(cluster int) (SegmentInfo, error) {
	return memo(c, c.key("info", cluster, nil, 0), func() (SegmentInfo, error) {
		return c.Engine.Info(cluster)
	})
}

// Summary is Engine.Summary, memoised.
func (c *Cached) Summary() Summary {
	v, _ := memo(c, c.key("summary", -1, nil, 0), func() (Summary, error) {
		return c.Engine.Summary(), nil
	})
	return v
}
