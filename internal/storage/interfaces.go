package storage

import (
	"context"
	"time"
)

// Cache is a TTL-bounded key/value store holding JSON documents.
type Cache interface {
	// Get returns the value for key. Returns ErrNotFound if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetMany stores several entries with the same ttl.
	SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Sweeper is implemented by caches that can drop expired entries eagerly.
type Sweeper interface {
	// Sweep removes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int64, error)
}
