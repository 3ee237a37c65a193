package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"subtrack/internal/amqp"
	"subtrack/internal/cache"
	"subtrack/internal/config"
	apphttp "subtrack/internal/http"
	applog "subtrack/internal/log"
	"subtrack/internal/rates"
	"subtrack/internal/report"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The env credential wins; the one stored in settings is the fallback
	// so the API stays usable without redeploying.
	apiKey := cfg.RateAPIKey
	if apiKey == "" {
		if settings, err := repo.GetSettings(ctx); err == nil {
			apiKey = settings.APIKey
		} else {
			logger.Warn("Failed to read settings, continuing without stored API key", "error", err)
		}
	}

	var provider rates.Provider
	if cfg.RateAPIBaseURL != "" {
		provider = rates.NewHTTPProviderWithBaseURL(cfg.RateAPIBaseURL)
	} else {
		provider = rates.NewHTTPProvider()
	}
	rateService := rates.NewService(provider, apiKey)
	converter := rates.NewConverter(rateService)

	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP, continuing without sync publishing", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	expenseService := services.NewExpenseService(repo, converter, publisher)
	subscriptionService := services.NewSubscriptionService(repo, converter, publisher)
	engine := report.NewEngine(repo, repo, repo)

	cacheManager := cache.NewManager()
	cacheManager.Register(rateService.Cache())
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, repo, expenseService, subscriptionService, engine)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting subtrack server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
