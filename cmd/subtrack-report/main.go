// subtrack-report computes one period report and prints it as JSON.
// Useful from cron or for debugging aggregation without the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"subtrack/internal/config"
	"subtrack/internal/core"
	applog "subtrack/internal/log"
	"subtrack/internal/period"
	"subtrack/internal/report"
	"subtrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	// Reports go to stdout, so logging stays on stderr and only speaks up
	// when something is wrong.
	logger := applog.New(applog.Config{
		Level:     slog.LevelWarn,
		Component: "subtrack-report",
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}),
	})
	applog.SetDefault(logger)

	var (
		periodFlag   = flag.String("period", "monthly", "report period: weekly, monthly, or yearly")
		anchorFlag   = flag.String("anchor", "", "anchor date (2006-01-02), defaults to today")
		currencyFlag = flag.String("currency", "", "display currency, defaults to the stored setting")
	)
	flag.Parse()

	cfg := config.Load()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	anchor := core.DateOf(time.Now().UTC())
	if *anchorFlag != "" {
		if anchor, err = core.ParseDate(*anchorFlag); err != nil {
			logger.Error("Invalid anchor date", "anchor", *anchorFlag)
			os.Exit(1)
		}
	}

	display := core.Currency(*currencyFlag)
	if *currencyFlag == "" {
		settings, err := repo.GetSettings(ctx)
		if err != nil {
			logger.Error("Failed to read settings", "error", err)
			os.Exit(1)
		}
		display = settings.DefaultCurrency
	} else if display, err = core.ParseCurrency(*currencyFlag); err != nil {
		logger.Error("Invalid display currency", "currency", *currencyFlag)
		os.Exit(1)
	}

	engine := report.NewEngine(repo, repo, repo)
	metrics, err := engine.ComputeMetrics(ctx, period.ParseKind(*periodFlag), anchor, display)
	if err != nil {
		logger.Error("Failed to compute report", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metrics); err != nil {
		logger.Error("Failed to encode report", "error", err)
		os.Exit(1)
	}
}
