package extraction

import (
	"context"
	"fmt"
	"sync"

	"Paggo/backend/go/pkg/util"
)

// Cache memoizes extraction results. Implementations must be safe for
// concurrent use. A failed lookup is reported as a miss.
type Cache interface {
	Lookup(ctx context.Context, key Key) (Result, bool)
	Store(ctx context.Context, key Key, result Result)
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*LRUCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

// MemoryCache keeps every result for the life of the process. Nothing is
// ever evicted, so memory grows with the number of distinct artifacts.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key]Result
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[Key]Result)}
}

func (c *MemoryCache) Lookup(_ context.Context, key Key) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok
}

func (c *MemoryCache) Store(_ context.Context, key Key, result Result) {
	c.mu.Lock()
	c.entries[key] = result
	c.mu.Unlock()
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LRUCache bounds the in-memory cache to a fixed number of entries.
type LRUCache struct {
	lru *util.LRUCache[Key, Result]
}

// NewLRUCache builds a bounded cache. onEvict may be nil.
func NewLRUCache(capacity int, onEvict func()) (*LRUCache, error) {
	var hook func(Key, Result)
	if onEvict != nil {
		hook = func(Key, Result) { onEvict() }
	}
	lru, err := util.NewLRU[Key, Result](capacity, hook)
	if err != nil {
		return nil, err
	}
	return &LRUCache{lru: lru}, nil
}

func (c *LRUCache) Lookup(_ context.Context, key Key) (Result, bool) {
	return c.lru.Get(key)
}

func (c *LRUCache) Store(_ context.Context, key Key, result Result) {
	c.lru.Put(key, result)
}

// CacheSettings selects a Cache implementation.
type CacheSettings struct {
	Backend  string // "memory" or "redis"
	Policy   string // "unbounded" or "lru"; memory backend only
	Capacity int
	OnEvict  func()
}

// NewCache returns the in-memory cache described by s. Redis caches are
// built with NewRedisCache since they need a client.
func NewCache(s CacheSettings) (Cache, error) {
	if s.Backend != "" && s.Backend != "memory" {
		return nil, fmt.Errorf("cache backend %q needs a client", s.Backend)
	}
	switch s.Policy {
	case "", "unbounded":
		return NewMemoryCache(), nil
	case "lru":
		return NewLRUCache(s.Capacity, s.OnEvict)
	default:
		return nil, fmt.Errorf("unknown cache policy: %s", s.Policy)
	}
}
