package references

import (
	"sync"

	"github.com/apiprobe/apiprobe/json"
)

type cacheKey struct {
	digest string
	ref    Reference
}

// Cache memoizes resolved, fully inlined subtrees under a (scope chain
// digest, reference string) key, avoiding exponential blow-up when the same
// shared definition is reached from many places. Entries are write-once for
// the lifetime of the cache; concurrent duplicate resolution work is benign,
// a corrupted entry is not, so check-then-insert runs under the mutex with a
// re-check after acquiring it.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]any
}

// NewCache creates an empty reference cache.
func NewCache() *Cache {
	return &Cache{entries: map[cacheKey]any{}}
}

// Load returns an independent copy of the cached subtree for the key, if present.
func (c *Cache) Load(digest string, ref Reference) (any, bool) {
	c.mu.Lock()
	v, ok := c.entries[cacheKey{digest: digest, ref: ref}]
	c.mu.Unlock()

	if !ok {
		return nil, false
	}

	return json.CloneAny(v), true
}

// Store inserts the subtree for the key unless another caller won the race,
// and returns an independent copy of the winning entry either way.
func (c *Cache) Store(digest string, ref Reference, value any) any {
	key := cacheKey{digest: digest, ref: ref}

	c.mu.Lock()
	winner, ok := c.entries[key]
	if !ok {
		winner = value
		c.entries[key] = value
	}
	c.mu.Unlock()

	return json.CloneAny(winner)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// DocumentCache memoizes externally fetched documents by absolute URI, since
// remote fetches are expensive and idempotent. Each resolver owns one by
// default; pass the same cache to several resolvers to share fetched
// documents across them.
type DocumentCache struct {
	mu      sync.Mutex
	entries map[string]any
}

// NewDocumentCache creates an empty document cache.
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{entries: map[string]any{}}
}

func (c *DocumentCache) load(uri string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[uri]
	return v, ok
}

func (c *DocumentCache) store(uri string, doc any) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[uri]; ok {
		return existing
	}
	c.entries[uri] = doc
	return doc
}

// Len returns the number of memoized documents.
func (c *DocumentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
