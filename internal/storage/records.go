package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/observability"
)

// RecordStore reads and writes token records through a Cache using the key scheme.
// Every backend failure other than a miss is returned as *CacheError.
type RecordStore struct {
	cache Cache
	ttl   time.Duration
}

// NewRecordStore creates a RecordStore writing entries with ttl.
func NewRecordStore(cache Cache, ttl time.Duration) *RecordStore {
	return &RecordStore{cache: cache, ttl: ttl}
}

// TTL returns the entry lifetime.
func (s *RecordStore) TTL() time.Duration {
	return s.ttl
}

// Cache returns the underlying cache.
func (s *RecordStore) Cache() Cache {
	return s.cache
}

// All returns the full record set. Returns ErrNotFound if no cycle has been stored.
func (s *RecordStore) All(ctx context.Context) ([]*domain.Token, error) {
	var tokens []*domain.Token
	if err := s.getJSON(ctx, KeyAllRecords, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// PutAll stores the full record set.
func (s *RecordStore) PutAll(ctx context.Context, tokens []*domain.Token) error {
	if tokens == nil {
		tokens = []*domain.Token{}
	}
	return s.setJSON(ctx, KeyAllRecords, tokens)
}

// Get returns one record by address. Returns ErrNotFound on a miss.
func (s *RecordStore) Get(ctx context.Context, address string) (*domain.Token, error) {
	var t domain.Token
	if err := s.getJSON(ctx, RecordKey(address), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// PutEach stores every record under its per-address key in one call.
func (s *RecordStore) PutEach(ctx context.Context, tokens []*domain.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	entries := make(map[string][]byte, len(tokens))
	for _, t := range tokens {
		if t == nil || t.Address == "" {
			return ErrInvalidInput
		}
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		entries[RecordKey(t.Address)] = b
	}
	if err := s.cache.SetMany(ctx, entries, s.ttl); err != nil {
		return s.fail("set_many", "", err)
	}
	return nil
}

// GetPage returns a precomputed listing. Returns ErrNotFound on a miss.
func (s *RecordStore) GetPage(ctx context.Context, key string) (*domain.Page, error) {
	var p domain.Page
	if err := s.getJSON(ctx, key, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PutPage stores a precomputed listing.
func (s *RecordStore) PutPage(ctx context.Context, key string, page domain.Page) error {
	if page.Tokens == nil {
		page.Tokens = []*domain.Token{}
	}
	return s.setJSON(ctx, key, page)
}

// Ping reports whether the backing cache is reachable.
func (s *RecordStore) Ping(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return s.fail("ping", "", err)
	}
	return nil
}

func (s *RecordStore) getJSON(ctx context.Context, key string, v any) error {
	b, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return s.fail("get", key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return s.fail("decode", key, err)
	}
	return nil
}

func (s *RecordStore) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		return s.fail("set", key, err)
	}
	return nil
}

func (s *RecordStore) fail(op, key string, err error) error {
	observability.RecordCacheError(op)
	return &CacheError{Op: op, Key: key, Err: err}
}
