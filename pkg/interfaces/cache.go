package interfaces

import (
	"context"
	"time"
)

// CacheProvider stores decoded API responses between reads.
type CacheProvider interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// TaggedCache extends CacheProvider with tag based invalidation. Entries are
// stored under one or more tags; invalidating a tag evicts every entry that
// carries it.
type TaggedCache interface {
	CacheProvider
	SetTagged(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error
	InvalidateTags(ctx context.Context, tags ...string) error
	// TagVersion returns a token that changes whenever one of tags is
	// invalidated or the cache is cleared.
	TagVersion(tags ...string) uint64
	// SetTaggedAt stores value only while the tags are still at version. It
	// reports whether the entry was stored.
	SetTaggedAt(ctx context.Context, version uint64, key string, value any, ttl time.Duration, tags ...string) (bool, error)
}
