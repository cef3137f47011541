package client

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/example/devfs/pkg/fs"
)

// ListingCache caches directory listings by path for a fixed TTL
type ListingCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

type listingCacheEntry struct {
	entries    []fs.Entry
	expiration time.Time
}

// NewListingCache creates a cache holding at most maxSize listings
func NewListingCache(maxSize int, ttl time.Duration) (*ListingCache, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &ListingCache{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// Store caches a copy of entries for path
func (c *ListingCache) Store(path string, entries []fs.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Add(path, listingCacheEntry{
		entries:    append([]fs.Entry(nil), entries...),
		expiration: c.now().Add(c.ttl),
	})
}

// Get returns a copy of the cached listing for path
func (c *ListingCache) Get(path string) ([]fs.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.cache.Get(path)
	if !ok {
		return nil, false
	}
	entry := v.(listingCacheEntry)
	if !c.now().Before(entry.expiration) {
		c.cache.Remove(path)
		return nil, false
	}
	return append([]fs.Entry(nil), entry.entries...), true
}

// Purge drops every cached listing
func (c *ListingCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}

// Len returns the number of cached listings, expired ones included
func (c *ListingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
