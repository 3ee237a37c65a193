package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCacheWithClock[string](time.Hour, func() time.Time { return now })

	c.Set("rates", "table")

	got, ok := c.Get("rates")
	require.True(t, ok)
	assert.Equal(t, "table", got)

	// Exactly at the deadline the entry is still valid.
	now = now.Add(time.Hour)
	_, ok = c.Get("rates")
	assert.True(t, ok)

	// One tick past the deadline it reads as a miss and is evicted.
	now = now.Add(time.Nanosecond)
	_, ok = c.Get("rates")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestTTLCacheMissOnUnknownKey(t *testing.T) {
	c := NewTTLCache[int](time.Hour)
	got, ok := c.Get("absent")
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestTTLCacheLastWriterWins(t *testing.T) {
	c := NewTTLCache[int](time.Hour)
	c.Set("k", 1)
	c.Set("k", 2)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, c.Size())
}

func TestTTLCacheSetRefreshesExpiry(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCacheWithClock[int](time.Hour, func() time.Time { return now })

	c.Set("k", 1)
	now = now.Add(50 * time.Minute)
	c.Set("k", 2)

	// 50 + 30 minutes past the first write, but only 30 past the second.
	now = now.Add(30 * time.Minute)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache[int](time.Hour)
	c.Set("k", 1)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCacheCleanExpired(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCacheWithClock[int](time.Hour, func() time.Time { return now })

	c.Set("old-a", 1)
	c.Set("old-b", 2)
	now = now.Add(2 * time.Hour)
	c.Set("fresh", 3)

	removed := c.CleanExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Size())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestManagerCleanupLifecycle(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCacheWithClock[int](time.Millisecond, func() time.Time { return now })
	c.Set("k", 1)
	now = now.Add(time.Second)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
	m.Stop()
}
