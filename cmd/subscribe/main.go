// Package main follows a running feed's websocket endpoint and prints each
// token update as one JSON line.
//
// Usage:
//
//	subscribe -url ws://localhost:8080/ws
//	subscribe -url ws://localhost:8080/ws -summary
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/subscriber"
)

func main() {
	url := flag.String("url", envOr("FEED_WS_URL", "ws://localhost:8080/ws"), "Feed websocket URL")
	summary := flag.Bool("summary", false, "Log one line per update instead of printing records")
	maxReconnect := flag.Duration("max-reconnect-delay", 30*time.Second, "Upper bound between reconnect attempts")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := subscriber.DefaultConfig()
	cfg.MaxReconnectDelay = *maxReconnect

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	client, err := subscriber.Dial(dialCtx, *url, &cfg, logger)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			logger.Info("interrupted")
			return
		case u, ok := <-client.Updates():
			if !ok {
				return
			}
			if *summary {
				logger.WithFields(logrus.Fields{
					"source":      u.SourceOfUpdate,
					"count":       u.Count,
					"observed_at": u.ObservedAt,
				}).Info("token update")
				continue
			}
			if err := enc.Encode(u); err != nil {
				logger.WithError(err).Error("encode update")
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
