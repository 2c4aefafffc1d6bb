package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be > 0, got %v", c.Refresh.Interval)
	}
	if c.Refresh.Concurrency < 1 {
		return errors.New("refresh.concurrency must be >= 1")
	}

	if err := c.Primary.validate("primary"); err != nil {
		return err
	}
	if !c.Secondary.Disabled {
		if err := c.Secondary.validate("secondary"); err != nil {
			return err
		}
		if c.Secondary.BatchSize < 1 {
			return errors.New("secondary.batch_size must be >= 1")
		}
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendPostgres:
		if c.Cache.PostgresDSN == "" {
			return errors.New("cache.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", CacheBackendMemory, CacheBackendPostgres, c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be > 0")
	}

	if c.Hub.Heartbeat <= 0 {
		return errors.New("hub.heartbeat must be > 0")
	}
	if c.Hub.SendBuffer < 1 {
		return errors.New("hub.send_buffer must be >= 1")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return errors.New("kafka.topic is required when kafka is enabled")
		}
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	for name, v := range map[string]float64{
		"changes.price_relative":      c.Changes.PriceRelative,
		"changes.volume_relative":     c.Changes.VolumeRelative,
		"changes.market_cap_relative": c.Changes.MarketCapRelative,
		"changes.tx_count_relative":   c.Changes.TxCountRelative,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", name, v)
		}
	}

	return nil
}

func (s *SourceConfig) validate(prefix string) error {
	if s.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", prefix)
	}
	if s.RequestsPerMinute < 0 {
		return fmt.Errorf("%s.requests_per_minute must be >= 0", prefix)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%s.timeout must be > 0", prefix)
	}
	if s.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%s.retry.max_attempts must be >= 1", prefix)
	}
	if s.Retry.Multiplier < 1 {
		return fmt.Errorf("%s.retry.multiplier must be >= 1, got %v", prefix, s.Retry.Multiplier)
	}
	if s.Retry.MaxDelay > 0 && s.Retry.MaxDelay < s.Retry.BaseDelay {
		return fmt.Errorf("%s.retry.max_delay (%v) cannot be below base_delay (%v)", prefix, s.Retry.MaxDelay, s.Retry.BaseDelay)
	}
	return nil
}
