package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(10)

	// Miss on empty cache
	_, ok := c.Get("kb:abc")
	assert.False(t, ok)

	c.Set("kb:abc", `[{"id":"c1"}]`, 5*time.Minute)

	value, ok := c.Get("kb:abc")
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"c1"}]`, value)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestMemoryCache_TTLExpiration(t *testing.T) {
	c := NewMemoryCache(10)

	c.Set("tutor:k1", "answer", 100*time.Millisecond)

	// Available immediately
	_, ok := c.Get("tutor:k1")
	assert.True(t, ok)

	time.Sleep(150 * time.Millisecond)

	// Expired, and lazily removed on Get
	_, ok = c.Get("tutor:k1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestMemoryCache_PerEntryTTL(t *testing.T) {
	c := NewMemoryCache(10)

	c.Set("short", "a", 50*time.Millisecond)
	c.Set("long", "b", 5*time.Minute)

	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)

	value, ok := c.Get("long")
	assert.True(t, ok)
	assert.Equal(t, "b", value)
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	c := NewMemoryCache(3)

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("key-%d", i), "v", 5*time.Minute)
	}

	assert.Equal(t, 3, c.Stats().Size)

	// Oldest entry evicted
	_, ok := c.Get("key-0")
	assert.False(t, ok)

	for i := 1; i < 4; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok)
	}
}

func TestMemoryCache_LRUOrdering(t *testing.T) {
	c := NewMemoryCache(3)

	c.Set("a", "1", 5*time.Minute)
	c.Set("b", "2", 5*time.Minute)
	c.Set("c", "3", 5*time.Minute)

	// Touch "a" so "b" becomes least recently used
	c.Get("a")

	c.Set("d", "4", 5*time.Minute)

	_, ok := c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestMemoryCache_UpdateExistingEntry(t *testing.T) {
	c := NewMemoryCache(10)

	c.Set("k", "first", 5*time.Minute)
	c.Set("k", "second", 5*time.Minute)

	value, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "second", value)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestMemoryCache_CleanupExpired(t *testing.T) {
	c := NewMemoryCache(10)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("old-%d", i), "v", 50*time.Millisecond)
	}
	c.Set("fresh", "v", 5*time.Minute)

	time.Sleep(100 * time.Millisecond)

	removed := c.CleanupExpired()
	assert.Equal(t, 3, removed)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(100)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(n int) {
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", n)
				c.Set(key, "v", 5*time.Minute)
				c.Get(key)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	_, ok := c.Get("key-0")
	assert.True(t, ok)
}
