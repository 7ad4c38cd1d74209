package sentiment

import (
	"container/list"
	"context"
	"sync"

	"github.com/hyperjump/reviewlens/internal/metrics"
)

// Cache stores model results keyed by normalized text.
type Cache interface {
	Get(ctx context.Context, key string) (Result, bool)
	Set(ctx context.Context, key string, value Result)
	Close() error
}

// MemoryCache is an in-process LRU cache.
type MemoryCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value Result
}

// NewMemoryCache creates a new cache with the given capacity.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached result for key if present.
func (c *MemoryCache) Get(_ context.Context, key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		metrics.ObserveCache("memory", "hit")
		return elem.Value.(*cacheEntry).value, true
	}
	metrics.ObserveCache("memory", "miss")
	return Result{}, false
}

// Set stores the result for key, evicting the oldest entry if at capacity.
func (c *MemoryCache) Set(_ context.Context, key string, value Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	metrics.ObserveCache("memory", "set")
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *MemoryCache) Close() error { return nil }
