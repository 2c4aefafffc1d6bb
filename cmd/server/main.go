// Package main runs the token feed service:
// - Refresh (scheduled): fetch → normalize → merge → filter → diff → cache
// - Publish: changed records to websocket subscribers and, optionally, Kafka
// - HTTP: token API, /health, /status, /metrics and /ws
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/api"
	"solana-token-feed/internal/app"
	"solana-token-feed/internal/broadcast"
	"solana-token-feed/internal/config"
	"solana-token-feed/internal/feed"
	"solana-token-feed/internal/hub"
	"solana-token-feed/internal/scheduler"
)

const defaultConfigPath = "configs/server.yaml"

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	configPath := flag.String("config", envOr("CONFIG_PATH", defaultConfigPath), "Path to YAML config")
	addr := flag.String("addr", os.Getenv("HTTP_ADDR"), "HTTP listen address (overrides config)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (selects the postgres cache)")
	useMemory := flag.Bool("use-memory", false, "Use the in-memory cache regardless of config")
	kafkaBrokers := flag.String("kafka-brokers", os.Getenv("KAFKA_BROKERS"), "Comma-separated Kafka brokers (enables the Kafka sink)")
	refreshInterval := flag.Duration("refresh-interval", 0, "Refresh interval (overrides config)")

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *postgresDSN != "" {
		cfg.Cache.Backend = config.CacheBackendPostgres
		cfg.Cache.PostgresDSN = *postgresDSN
	}
	if *useMemory {
		cfg.Cache.Backend = config.CacheBackendMemory
	}
	if *kafkaBrokers != "" {
		cfg.Kafka.Enabled = true
		cfg.Kafka.Brokers = splitList(*kafkaBrokers)
	}
	if *refreshInterval > 0 {
		cfg.Refresh.Interval = *refreshInterval
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	// Setup logger
	logger := cfg.Log.NewLogger()
	log := logger.WithField("component", "server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, cleanup, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build components: %v", err)
	}
	defer cleanup()

	// Subscribers
	subscribers := hub.New(
		hub.WithHeartbeat(cfg.Hub.Heartbeat),
		hub.WithSendBuffer(cfg.Hub.SendBuffer),
		hub.WithLogger(logger),
	)
	publishers := broadcast.Fanout{broadcast.NewHubPublisher(subscribers)}

	if cfg.Kafka.Enabled {
		producer, err := broadcast.NewSyncProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			log.Fatalf("Failed to connect to Kafka: %v", err)
		}
		kafka := broadcast.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		defer kafka.Close()
		publishers = append(publishers, kafka)
		log.WithFields(logrus.Fields{"brokers": cfg.Kafka.Brokers, "topic": cfg.Kafka.Topic}).Info("kafka sink enabled")
	}

	feedService := feed.NewService(components.Orchestrator, publishers, logger)
	sched := scheduler.New(cfg.Refresh.Interval, feedService.RunScheduled, logger)

	apiServer := api.NewServer(api.Options{
		Query:       api.NewQueryService(components.Store, components.Orchestrator, logger),
		Store:       components.Store,
		Feed:        feedService,
		Cycles:      components.Orchestrator,
		Hub:         subscribers,
		MetricsPath: cfg.Server.MetricsPath,
		Logger:      logger,
	})
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var g run.Group

	// Signals
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	// HTTP server
	g.Add(func() error {
		log.WithField("addr", cfg.Server.Addr).Info("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer shutdownCancel()
		subscribers.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP server shutdown")
		}
	})

	// Refresh scheduler
	schedCtx, schedCancel := context.WithCancel(ctx)
	g.Add(func() error {
		sched.Start(schedCtx)
		<-schedCtx.Done()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer stopCancel()
		return sched.Stop(stopCtx)
	}, func(error) {
		schedCancel()
	})

	log.WithFields(logrus.Fields{
		"interval": cfg.Refresh.Interval,
		"queries":  cfg.Refresh.Queries,
		"cache":    cfg.Cache.Backend,
	}).Info("server starting")

	err = g.Run()
	var sigErr run.SignalError
	switch {
	case err == nil, errors.As(err, &sigErr):
		log.WithError(err).Info("shutdown complete")
	default:
		log.Fatalf("Server error: %v", err)
	}
}

// loadConfig reads path with defaults applied. A missing file at the default
// path yields the defaults. Callers validate after applying flag overrides.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return config.LoadWithDefaults(path)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
