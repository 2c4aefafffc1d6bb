// Package config loads the service configuration from YAML.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Refresh   RefreshConfig  `yaml:"refresh"`
	Primary   SourceConfig   `yaml:"primary"`
	Secondary SourceConfig   `yaml:"secondary"`
	Cache     CacheConfig    `yaml:"cache"`
	Hub       HubConfig      `yaml:"hub"`
	Kafka     KafkaConfig    `yaml:"kafka"`
	Log       LogConfig      `yaml:"log"`
	Changes   ChangesConfig  `yaml:"changes"`
	Shutdown  ShutdownConfig `yaml:"shutdown"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MetricsPath  string        `yaml:"metrics_path"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RefreshConfig controls the scheduled refresh cycle.
type RefreshConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Queries     []string      `yaml:"queries"`
}

// SourceConfig configures one upstream HTTP source.
type SourceConfig struct {
	BaseURL           string        `yaml:"base_url"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
	BatchSize         int           `yaml:"batch_size"`
	Retry             RetryConfig   `yaml:"retry"`
	// Disabled turns the source off. Only honored for the secondary source.
	Disabled bool `yaml:"disabled"`
}

// RetryConfig mirrors upstream.RetryPolicy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	Multiplier  float64       `yaml:"multiplier"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend     string        `yaml:"backend"` // memory | postgres
	PostgresDSN string        `yaml:"postgres_dsn"`
	TTL         time.Duration `yaml:"ttl"`
}

// HubConfig configures the websocket subscriber hub.
type HubConfig struct {
	Heartbeat  time.Duration `yaml:"heartbeat"`
	SendBuffer int           `yaml:"send_buffer"`
}

// KafkaConfig configures the optional Kafka sink.
type KafkaConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"client_id"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// ChangesConfig overrides the relative change thresholds. Zero keeps the default.
type ChangesConfig struct {
	PriceRelative     float64 `yaml:"price_relative"`
	VolumeRelative    float64 `yaml:"volume_relative"`
	MarketCapRelative float64 `yaml:"market_cap_relative"`
	TxCountRelative   float64 `yaml:"tx_count_relative"`
}

// ShutdownConfig bounds graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}
