package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-feed/internal/storage"
	"solana-token-feed/internal/storage/migrations"
)

func TestCache_SetAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	cache := NewCache(pool)
	ctx := context.Background()

	err := cache.Set(ctx, storage.KeyAllRecords, []byte(`[{"address":"X"}]`), time.Minute)
	require.NoError(t, err)

	got, err := cache.Get(ctx, storage.KeyAllRecords)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"address":"X"}]`, string(got))

	// Overwrite
	err = cache.Set(ctx, storage.KeyAllRecords, []byte(`[]`), time.Minute)
	require.NoError(t, err)

	got, err = cache.Get(ctx, storage.KeyAllRecords)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
}

func TestCache_GetMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	cache := NewCache(pool)

	_, err := cache.Get(context.Background(), "record:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCache_ExpiryAndSweep(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	cache := NewCache(pool)
	ctx := context.Background()
	now := time.Now()
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", []byte(`1`), time.Second))
	require.NoError(t, cache.Set(ctx, "forever", []byte(`2`), 0))

	now = now.Add(time.Minute)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = cache.Get(ctx, "forever")
	assert.NoError(t, err)

	n, err := cache.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCache_SetMany(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	cache := NewCache(pool)
	ctx := context.Background()

	entries := map[string][]byte{
		storage.RecordKey("A"): []byte(`{"address":"A"}`),
		storage.RecordKey("B"): []byte(`{"address":"B"}`),
	}
	require.NoError(t, cache.SetMany(ctx, entries, time.Minute))

	for key, want := range entries {
		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got))
	}

	require.NoError(t, cache.Ping(ctx))
}

func TestNewPool_TagsApplicationName(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	var name string
	err := pool.QueryRow(context.Background(), "SELECT current_setting('application_name')").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, ApplicationName, name)

	// Schema files are idempotent and can be re-applied on every start.
	applied, err := migrations.RunPostgresMigrations(context.Background(), pool)
	require.NoError(t, err)
	assert.NotEmpty(t, applied)
}
