package cache

import (
	"sync"
	"time"
)

// TTLCache is a mutex-guarded map with per-entry expiry. The clock is
// injectable so TTL behavior is testable without sleeping.
type TTLCache[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]ttlItem[T]
}

type ttlItem[T any] struct {
	data      T
	expiresAt time.Time
}

// NewTTLCache creates a TTL cache reading time from the system clock.
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return NewTTLCacheWithClock[T](ttl, time.Now)
}

// NewTTLCacheWithClock creates a TTL cache with an explicit clock.
func NewTTLCacheWithClock[T any](ttl time.Duration, now func() time.Time) *TTLCache[T] {
	return &TTLCache[T]{
		ttl:   ttl,
		now:   now,
		items: make(map[string]ttlItem[T]),
	}
}

// Get retrieves a value from the cache, treating expired entries as misses.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	item, exists := c.items[key]
	if !exists {
		return zero, false
	}
	if c.now().After(item.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return item.data, true
}

// Set stores a value under the cache TTL. Last writer wins.
func (c *TTLCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = ttlItem[T]{
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes a key from the cache.
func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// CleanExpired removes all expired entries and returns the removed count.
func (c *TTLCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Size returns the current number of items in the cache.
func (c *TTLCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
