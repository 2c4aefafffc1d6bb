package memory

import (
	"context"
	"sync"
	"time"

	"solana-token-feed/internal/storage"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Cache is an in-memory implementation of storage.Cache.
type Cache struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Compile-time interface checks.
var (
	_ storage.Cache   = (*Cache)(nil)
	_ storage.Sweeper = (*Cache)(nil)
)

// Get returns the value for key. Returns ErrNotFound if absent or expired.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = c.newEntry(value, ttl)
	return nil
}

// SetMany stores several entries with the same ttl.
func (c *Cache) SetMany(_ context.Context, entries map[string][]byte, ttl time.Duration) error {
	for key := range entries {
		if key == "" {
			return storage.ErrInvalidInput
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, value := range entries {
		c.data[key] = c.newEntry(value, ttl)
	}
	return nil
}

// Ping always succeeds.
func (c *Cache) Ping(context.Context) error {
	return nil
}

// Sweep removes expired entries.
func (c *Cache) Sweep(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var n int64
	for key, e := range c.data {
		if e.expired(now) {
			delete(c.data, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// caller holds c.mu
func (c *Cache) newEntry(value []byte, ttl time.Duration) entry {
	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	return e
}
