package api

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/filter"
	"solana-token-feed/internal/storage"
)

// Collector produces a fresh filtered record set without touching the cache.
type Collector interface {
	Collect(ctx context.Context) ([]*domain.Token, error)
}

// QueryService answers listing and lookup requests from the cache. When the
// cache has nothing or cannot be reached it collects directly from upstream.
type QueryService struct {
	store     *storage.RecordStore
	collector Collector
	logger    logrus.FieldLogger
}

// NewQueryService creates a QueryService. collector may be nil, in which case
// a cache outage yields an empty listing.
func NewQueryService(store *storage.RecordStore, collector Collector, logger logrus.FieldLogger) *QueryService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &QueryService{
		store:     store,
		collector: collector,
		logger:    logger.WithField("component", "query"),
	}
}

// List returns one page. Cursorless requests matching a precomputed listing are
// served from that entry; everything else is filtered from the full set.
func (s *QueryService) List(ctx context.Context, spec domain.FilterSpec) (domain.Page, error) {
	if spec.Cursor == "" && s.store != nil {
		page, err := s.store.GetPage(ctx, storage.ComboKey(spec.Period, spec.SortBy, spec.Limit))
		if err == nil {
			return *page, nil
		}
		s.logMiss(err, "listing")
	}

	tokens, err := s.records(ctx)
	if err != nil {
		return domain.Page{}, err
	}
	return filter.Apply(tokens, spec), nil
}

// Get returns one record. The per-address entry is tried first, then the full
// set. Returns storage.ErrNotFound when the address is in neither.
func (s *QueryService) Get(ctx context.Context, addr string) (*domain.Token, error) {
	if s.store != nil {
		t, err := s.store.Get(ctx, addr)
		if err == nil {
			return t, nil
		}
		s.logMiss(err, "record")
	}

	tokens, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tokens {
		if t != nil && t.Address == addr {
			return t, nil
		}
	}
	return nil, storage.ErrNotFound
}

// records returns the cached full set, or a directly collected one when the
// cache misses or fails.
func (s *QueryService) records(ctx context.Context) ([]*domain.Token, error) {
	if s.store != nil {
		tokens, err := s.store.All(ctx)
		if err == nil {
			return tokens, nil
		}
		s.logMiss(err, storage.KeyAllRecords)
	}

	if s.collector == nil {
		return nil, nil
	}
	tokens, err := s.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *QueryService) logMiss(err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.WithField("key", what).Debug("cache miss")
		return
	}
	s.logger.WithError(err).WithField("key", what).Warn("cache read failed; falling back")
}
