package apiclient

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// TagCache is an in-memory TaggedCache backed by an expiring LRU. Entries are
// indexed by tag so a mutation can evict every read that depends on it.
type TagCache struct {
	mu      sync.Mutex
	lru     *expirable.LRU[string, cacheEntry]
	size    int
	now     func() time.Time
	byTag   map[string]map[string]struct{}
	keyTags map[string][]string
	// gens counts invalidations per tag; epoch counts Clear calls.
	gens  map[string]uint64
	epoch uint64
}

type cacheEntry struct {
	value   any
	expires time.Time
}

var _ interfaces.TaggedCache = (*TagCache)(nil)

// NewTagCache creates a cache holding at most size entries; maxTTL bounds the
// lifetime of any entry regardless of the ttl passed to Set.
func NewTagCache(size int, maxTTL time.Duration) *TagCache {
	if size <= 0 {
		size = 256
	}
	return &TagCache{
		lru:     expirable.NewLRU[string, cacheEntry](size, nil, maxTTL),
		size:    size,
		now:     time.Now,
		byTag:   make(map[string]map[string]struct{}),
		keyTags: make(map[string][]string),
		gens:    make(map[string]uint64),
	}
}

func (c *TagCache) Get(_ context.Context, key string) (any, error) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.lru.Remove(key)
		return nil, nil
	}
	return entry.value, nil
}

func (c *TagCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.SetTagged(ctx, key, value, ttl)
}

func (c *TagCache) SetTagged(_ context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, ttl, tags)
	return nil
}

// TagVersion sums the generations of tags. Generations only grow, so the
// sum moves whenever any of them is invalidated.
func (c *TagCache) TagVersion(tags ...string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version(tags)
}

// SetTaggedAt drops the write when an invalidation of tags happened after
// version was read, so a slow read never restores data a mutation evicted.
func (c *TagCache) SetTaggedAt(_ context.Context, version uint64, key string, value any, ttl time.Duration, tags ...string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version(tags) != version {
		return false, nil
	}
	c.store(key, value, ttl, tags)
	return true, nil
}

func (c *TagCache) version(tags []string) uint64 {
	v := c.epoch
	for _, tag := range tags {
		v += c.gens[tag]
	}
	return v
}

func (c *TagCache) store(key string, value any, ttl time.Duration, tags []string) {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expires = c.now().Add(ttl)
	}
	c.lru.Add(key, entry)
	c.unindex(key)
	if len(tags) > 0 {
		c.keyTags[key] = append([]string(nil), tags...)
		for _, tag := range tags {
			keys := c.byTag[tag]
			if keys == nil {
				keys = make(map[string]struct{})
				c.byTag[tag] = keys
			}
			keys[key] = struct{}{}
		}
	}
	if len(c.keyTags) > 2*c.size {
		c.prune()
	}
}

func (c *TagCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
	c.unindex(key)
	return nil
}

func (c *TagCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.byTag = make(map[string]map[string]struct{})
	c.keyTags = make(map[string][]string)
	c.epoch++
	return nil
}

// InvalidateTags evicts every entry stored under any of tags.
func (c *TagCache) InvalidateTags(_ context.Context, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		c.gens[tag]++
		for key := range c.byTag[tag] {
			c.lru.Remove(key)
			c.unindex(key)
		}
		delete(c.byTag, tag)
	}
	return nil
}

// Len reports the number of live entries.
func (c *TagCache) Len() int {
	return c.lru.Len()
}

func (c *TagCache) unindex(key string) {
	for _, tag := range c.keyTags[key] {
		if keys := c.byTag[tag]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
	delete(c.keyTags, key)
}

// prune drops index entries for keys the LRU already evicted.
func (c *TagCache) prune() {
	for key := range c.keyTags {
		if !c.lru.Contains(key) {
			c.unindex(key)
		}
	}
}
