package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hydrolearn/knowsearch/pkg/types"
)

// entry wraps a cached value with its expiration metadata
type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means the entry never expires
	createdAt time.Time
}

// Stats is a point-in-time snapshot of one cache's counters
type Stats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
}

// Cache is a capacity-bounded associative store with per-entry TTL and
// least-recently-used eviction. Safe for concurrent use. The mutex covers
// only in-memory map mutation; callers never block on it across I/O.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	lru      *lru.Cache[K, *entry[V]]
	capacity int
	hits     uint64
	misses   uint64

	// now is replaceable in tests to simulate TTL expiry
	now func() time.Time
}

// New creates a bounded cache. Capacity must be a positive integer.
func New[K comparable, V any](capacity int) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity %d: %w", capacity, types.ErrInvalidCapacity)
	}

	inner, err := lru.New[K, *entry[V]](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &Cache[K, V]{
		lru:      inner,
		capacity: capacity,
		now:      time.Now,
	}, nil
}

// Get returns the value for key and promotes it to most-recently-used.
// An entry whose TTL has passed is removed and counted as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return zero, false
	}

	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		c.misses++
		return zero, false
	}

	c.hits++
	return e.value, true
}

// Put stores value under key. An existing key is replaced and promoted;
// a new key at capacity evicts exactly one entry, the least-recently-used.
// A ttl <= 0 means the entry never expires.
func (c *Cache[K, V]) Put(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := &entry[V]{value: value, createdAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	c.lru.Add(key, e)
}

// Delete removes key if present. Idempotent.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Clear removes all entries and resets the hit/miss counters.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.hits = 0
	c.misses = 0
}

// Size returns the number of live entries.
func (c *Cache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a snapshot of the cache counters. HitRate is 0 before
// the first access.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:     c.lru.Len(),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
