// Package main runs a single refresh cycle and prints its summary.
//
// Usage:
//
//	refresh -config configs/server.yaml
//	refresh -collect-only -records   # fetch and filter without touching the cache
//	refresh -format markdown         # cycle report with top movers
//	refresh -format csv > tokens.csv # every filtered record
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-token-feed/internal/app"
	"solana-token-feed/internal/config"
	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/orchestrator"
	"solana-token-feed/internal/reporting"
)

const defaultConfigPath = "configs/server.yaml"

// summary is the printed result.
type summary struct {
	CycleID  string          `json:"cycleId,omitempty"`
	State    string          `json:"state"`
	Records  int             `json:"records"`
	Changed  int             `json:"changed"`
	Dropped  int             `json:"dropped"`
	Failed   int             `json:"failedQueries"`
	Duration string          `json:"duration"`
	Error    string          `json:"error,omitempty"`
	Tokens   []*domain.Token `json:"tokens,omitempty"`
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to YAML config")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (selects the postgres cache)")
	collectOnly := flag.Bool("collect-only", false, "Fetch, merge and filter without reading or writing the cache")
	printRecords := flag.Bool("records", false, "Include records in the JSON output (changed records, or all with -collect-only)")
	format := flag.String("format", "json", "Output format: json, csv or markdown")
	flag.Parse()

	switch *format {
	case "json", "csv", "markdown":
	default:
		logrus.Fatalf("Unknown format %q", *format)
	}

	path := *configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *postgresDSN != "" {
		cfg.Cache.Backend = config.CacheBackendPostgres
		cfg.Cache.PostgresDSN = *postgresDSN
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	logger := cfg.Log.NewLogger()
	// Summary goes to stdout, logs to stderr.
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, cleanup, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to build components: %v", err)
	}
	defer cleanup()

	var (
		out    summary
		tokens []*domain.Token
		report *reporting.Report
	)
	if *collectOnly {
		collected, err := components.Orchestrator.Collect(ctx)
		out.State = string(orchestrator.StateDone)
		if err != nil {
			out.State = string(orchestrator.StateFailed)
			out.Error = err.Error()
		}
		out.Records = len(collected)
		tokens = collected
		if *printRecords {
			out.Tokens = collected
		}
		report = reporting.FromResult(&orchestrator.Result{
			State:  orchestrator.State(out.State),
			Tokens: collected,
		}, time.Now(), reporting.DefaultTopMovers)
		report.Error = out.Error
	} else {
		res, err := components.Orchestrator.Refresh(ctx, domain.UpdateSourceManual)
		out = summarize(res)
		if err != nil {
			out.Error = err.Error()
		}
		if res != nil {
			tokens = res.Tokens
			if *printRecords {
				out.Tokens = res.Changed
			}
		}
		report = reporting.FromResult(res, time.Now(), reporting.DefaultTopMovers)
		report.Error = out.Error
	}

	if err := write(*format, out, tokens, report); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
	if out.Error != "" {
		os.Exit(1)
	}
}

func write(format string, out summary, tokens []*domain.Token, report *reporting.Report) error {
	switch format {
	case "csv":
		rendered, err := reporting.RenderCSV(tokens)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(os.Stdout, rendered)
		return err
	case "markdown":
		_, err := fmt.Fprint(os.Stdout, reporting.RenderMarkdown(report))
		return err
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}

func summarize(res *orchestrator.Result) summary {
	if res == nil {
		return summary{State: string(orchestrator.StateFailed)}
	}
	return summary{
		CycleID:  res.CycleID,
		State:    string(res.State),
		Records:  len(res.Tokens),
		Changed:  len(res.Changed),
		Dropped:  res.Dropped,
		Failed:   res.FailedQueries,
		Duration: res.Duration.String(),
	}
}
