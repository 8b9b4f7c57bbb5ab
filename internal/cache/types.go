package cache

import (
	"context"
)

// CacheKind is used to separate key spaces.
type CacheKind uint8

const (
	CacheKindUnknown   CacheKind = iota
	CacheKindBlob                // Blob store blocks
	CacheKindAnalytics           // Encoded distribution / stats / segment results
)

// String implements fmt.Stringer.
func (k CacheKind) String() string {
	switch k {
	case CacheKindBlob:
		return "blob"
	case CacheKindAnalytics:
		return "analytics"
	default:
		return "unknown"
	}
}

// CacheKey must be stable across processes and bundle-safe.
// If the cached value depends on the loaded bundle, include ManifestID.
type CacheKey struct {
	Kind CacheKind
	// ManifestID is the manifest version the value was derived from.
	ManifestID uint64
	// Offset is a logical block identifier (byte offset or cluster id).
	Offset uint64
	// Path identifies the source (blob name or analytics query).
	Path string
}

// BlockCache is a byte-oriented cache for immutable values.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached value. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a value. Callers must treat b as immutable afterwards.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	// Close releases any resources.
	Close() error
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}

var (
	_ BlockCache = (*LRUBlockCache)(nil)
	_ BlockCache = (*ShardedLRUBlockCache)(nil)
)
