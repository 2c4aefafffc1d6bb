// Package app assembles the service components from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/config"
	"solana-token-feed/internal/orchestrator"
	"solana-token-feed/internal/storage"
	"solana-token-feed/internal/storage/memory"
	"solana-token-feed/internal/storage/migrations"
	pgstore "solana-token-feed/internal/storage/postgres"
	"solana-token-feed/internal/upstream"
)

// Components are the pieces shared by every binary.
type Components struct {
	Store        *storage.RecordStore
	Orchestrator *orchestrator.Orchestrator
}

// Build creates the cache store, upstream clients and orchestrator.
// The returned cleanup releases the cache backend.
func Build(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*Components, func(), error) {
	cache, cleanup, err := NewCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, nil, err
	}
	store := storage.NewRecordStore(cache, cfg.Cache.TTL)

	thresholds := cfg.Thresholds()
	opts := orchestrator.Options{
		Primary:     upstream.NewDexScreenerClient(cfg.Primary.BaseURL, SourceOptions(cfg.Primary, logger)...),
		Store:       store,
		Queries:     cfg.Refresh.Queries,
		Thresholds:  &thresholds,
		Concurrency: cfg.Refresh.Concurrency,
		Logger:      logger,
	}
	if !cfg.Secondary.Disabled {
		opts.Secondary = upstream.NewGeckoTerminalClient(cfg.Secondary.BaseURL, SourceOptions(cfg.Secondary, logger)...).
			WithMaxBatch(cfg.Secondary.BatchSize)
	}

	return &Components{
		Store:        store,
		Orchestrator: orchestrator.New(opts),
	}, cleanup, nil
}

// NewCache opens the configured cache backend. Postgres migrations run on open.
func NewCache(ctx context.Context, cfg config.CacheConfig, logger logrus.FieldLogger) (storage.Cache, func(), error) {
	switch cfg.Backend {
	case config.CacheBackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.WithFields(logrus.Fields{"backend": cfg.Backend, "migrations": applied}).Info("cache ready")
		return pgstore.NewCache(pool), pool.Close, nil
	default:
		logger.WithField("backend", config.CacheBackendMemory).Info("cache ready")
		return memory.NewCache(), func() {}, nil
	}
}

// SourceOptions converts a source section into client options.
func SourceOptions(s config.SourceConfig, logger logrus.FieldLogger) []upstream.Option {
	return []upstream.Option{
		upstream.WithRateLimit(s.RequestsPerMinute),
		upstream.WithTimeout(s.Timeout),
		upstream.WithRetryPolicy(s.RetryPolicy()),
		upstream.WithLogger(logger),
	}
}
