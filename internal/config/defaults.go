package config

import (
	"time"

	"solana-token-feed/internal/orchestrator"
	"solana-token-feed/internal/upstream"
)

// Default values for optional configuration fields.
const (
	DefaultAddr            = ":8080"
	DefaultMetricsPath     = "/metrics"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultRefreshInterval = 60 * time.Second
	DefaultCacheBackend    = CacheBackendMemory
	DefaultCacheTTL        = 5 * time.Minute
	DefaultHeartbeat       = 30 * time.Second
	DefaultSendBuffer      = 64
	DefaultKafkaTopic      = "solana-token-updates"
	DefaultKafkaClientID   = "solana-token-feed"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultShutdownTimeout = 30 * time.Second
)

// Cache backends.
const (
	CacheBackendMemory   = "memory"
	CacheBackendPostgres = "postgres"
)

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = DefaultRefreshInterval
	}
	if c.Refresh.Concurrency == 0 {
		c.Refresh.Concurrency = orchestrator.DefaultConcurrency
	}
	if len(c.Refresh.Queries) == 0 {
		c.Refresh.Queries = append([]string(nil), orchestrator.DefaultQueries...)
	}

	// Source defaults
	applySourceDefaults(&c.Primary, upstream.DefaultDexScreenerURL, upstream.DefaultDexScreenerRateLimit, 0)
	applySourceDefaults(&c.Secondary, upstream.DefaultGeckoTerminalURL, upstream.DefaultGeckoTerminalRateLimit, upstream.GeckoTerminalMaxBatch)

	// Cache defaults
	if c.Cache.Backend == "" {
		c.Cache.Backend = DefaultCacheBackend
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	// Hub defaults
	if c.Hub.Heartbeat == 0 {
		c.Hub.Heartbeat = DefaultHeartbeat
	}
	if c.Hub.SendBuffer == 0 {
		c.Hub.SendBuffer = DefaultSendBuffer
	}

	// Kafka defaults
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = DefaultKafkaTopic
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = DefaultKafkaClientID
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}

	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultShutdownTimeout
	}
}

func applySourceDefaults(s *SourceConfig, baseURL string, rpm, batch int) {
	if s.BaseURL == "" {
		s.BaseURL = baseURL
	}
	if s.RequestsPerMinute == 0 {
		s.RequestsPerMinute = rpm
	}
	if s.Timeout == 0 {
		s.Timeout = upstream.DefaultTimeout
	}
	if s.BatchSize == 0 {
		s.BatchSize = batch
	}
	if s.Retry.MaxAttempts == 0 {
		s.Retry.MaxAttempts = upstream.DefaultMaxAttempts
	}
	if s.Retry.BaseDelay == 0 {
		s.Retry.BaseDelay = upstream.DefaultBaseDelay
	}
	if s.Retry.Multiplier == 0 {
		s.Retry.Multiplier = upstream.DefaultMultiplier
	}
	if s.Retry.MaxDelay == 0 {
		s.Retry.MaxDelay = upstream.DefaultMaxDelay
	}
}
