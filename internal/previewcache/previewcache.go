// Package previewcache is the in-process link-preview cache. Entries
// expire 24 hours after they were stored.
package previewcache

import (
	"sync"
	"time"
)

const DefaultTTL = 24 * time.Hour

type Metadata struct {
	URL         string
	Title       string
	Description string
	ImageURL    string
}

type item struct {
	metadata  Metadata
	expiresAt time.Time
}

type Cache struct {
	mu    sync.RWMutex
	items map[string]item
	ttl   time.Duration
	now   func() time.Time
}

func New() *Cache {
	return NewWithTTL(DefaultTTL)
}

func NewWithTTL(ttl time.Duration) *Cache {
	return &Cache{
		items: make(map[string]item),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the cached metadata for a URL; expired entries are misses.
func (c *Cache) Get(url string) (Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[url]
	if !ok || c.now().After(it.expiresAt) {
		return Metadata{}, false
	}
	return it.metadata, true
}

func (c *Cache) Put(url string, md Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[url] = item{
		metadata:  md,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, url)
}

// Sweep removes expired entries and returns how many were dropped.
// Scheduled periodically by the aggregator.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for url, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, url)
			dropped++
		}
	}
	return dropped
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
