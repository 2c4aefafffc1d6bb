package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-token-feed/internal/storage"
)

// Cache implements storage.Cache on the cache_entries table.
// Expired rows are invisible to Get and removed by Sweep.
type Cache struct {
	pool *Pool
	now  func() time.Time
}

// NewCache creates a new Cache.
func NewCache(pool *Pool) *Cache {
	return &Cache{pool: pool, now: time.Now}
}

// Compile-time interface checks.
var (
	_ storage.Cache   = (*Cache)(nil)
	_ storage.Sweeper = (*Cache)(nil)
)

const upsertEntry = `
	INSERT INTO cache_entries (key, value, expires_at, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()
`

// Get returns the value for key. Returns ErrNotFound if absent or expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM cache_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)
	`

	var value []byte
	if err := c.pool.QueryRow(ctx, query, key, c.now()).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	return value, nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return storage.ErrInvalidInput
	}
	if _, err := c.pool.Exec(ctx, upsertEntry, key, value, c.expiry(ttl)); err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	return nil
}

// SetMany upserts all entries in one batch.
func (c *Cache) SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	expiresAt := c.expiry(ttl)
	batch := &pgx.Batch{}
	for key, value := range entries {
		if key == "" {
			return storage.ErrInvalidInput
		}
		batch.Queue(upsertEntry, key, value, expiresAt)
	}

	if err := c.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("set cache entries: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Sweep deletes expired rows.
func (c *Cache) Sweep(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= $1`, c.now())
	if err != nil {
		return 0, fmt.Errorf("sweep cache entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// expiry converts ttl to an absolute deadline; nil means no expiry.
func (c *Cache) expiry(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := c.now().Add(ttl)
	return &t
}
