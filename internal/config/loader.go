package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"solana-token-feed/internal/changes"
	"solana-token-feed/internal/upstream"
)

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
// An empty path yields the defaults.
func LoadWithDefaults(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// RetryPolicy converts the retry section.
func (s SourceConfig) RetryPolicy() upstream.RetryPolicy {
	return upstream.RetryPolicy{
		MaxAttempts: s.Retry.MaxAttempts,
		BaseDelay:   s.Retry.BaseDelay,
		Multiplier:  s.Retry.Multiplier,
		MaxDelay:    s.Retry.MaxDelay,
	}
}

// Thresholds returns the change thresholds with configured overrides applied.
func (c *Config) Thresholds() changes.Thresholds {
	t := changes.DefaultThresholds()
	if c.Changes.PriceRelative > 0 {
		t.PriceRelative = c.Changes.PriceRelative
	}
	if c.Changes.VolumeRelative > 0 {
		t.VolumeRelative = c.Changes.VolumeRelative
	}
	if c.Changes.MarketCapRelative > 0 {
		t.MarketCapRelative = c.Changes.MarketCapRelative
	}
	if c.Changes.TxCountRelative > 0 {
		t.TxCountRelative = c.Changes.TxCountRelative
	}
	return t
}

// NewLogger builds a logrus logger from the log section.
func (l LogConfig) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
