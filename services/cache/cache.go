package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a generic key-value store with per-entry expiry. The key space is
// partitioned by fingerprint namespace so the retrieval cache and the answer
// cache never collide. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key, or false if absent or expired.
	Get(key string) (string, bool)

	// Set stores value under key for at most ttl.
	Set(key, value string, ttl time.Duration)
}

// entry is a single cache entry with its own TTL
type entry struct {
	key       string
	value     string
	expiresAt time.Time
	element   *list.Element // For LRU tracking
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCache is an in-memory LRU cache with per-entry TTL.
// Thread-safe implementation using sync.Mutex.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List // Doubly linked list for LRU tracking
	maxSize int
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a new MemoryCache bounded to maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists || e.isExpired(time.Now()) {
		c.misses++
		if exists {
			c.removeEntry(key)
		}
		return "", false
	}

	// Move to front (most recently used)
	c.lruList.MoveToFront(e.element)
	c.hits++

	return e.value, true
}

// Set stores a value in the cache with the given TTL.
func (c *MemoryCache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)

	if e, exists := c.entries[key]; exists {
		e.value = value
		e.expiresAt = expiresAt
		c.lruList.MoveToFront(e.element)
		return
	}

	// Evict least recently used entry if cache is full
	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	e.element = c.lruList.PushFront(key)
	c.entries[key] = e
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// Stats represents cache statistics
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
}

// removeEntry removes an entry from the cache (must be called with lock held)
func (c *MemoryCache) removeEntry(key string) {
	if e, exists := c.entries[key]; exists {
		c.lruList.Remove(e.element)
		delete(c.entries, key)
	}
}

// evictLRU evicts the least recently used entry (must be called with lock held)
func (c *MemoryCache) evictLRU() {
	back := c.lruList.Back()
	if back != nil {
		key := back.Value.(string)
		c.lruList.Remove(back)
		delete(c.entries, key)
	}
}

// CleanupExpired removes all expired entries and returns how many were dropped.
// Expiry is otherwise enforced lazily on Get; call this periodically if the
// key space churns faster than it is read.
func (c *MemoryCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expired := make([]string, 0)
	for key, e := range c.entries {
		if e.isExpired(now) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.removeEntry(key)
	}
	return len(expired)
}

// StartCleanupWorker periodically removes expired entries until stopCh closes.
func (c *MemoryCache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}
