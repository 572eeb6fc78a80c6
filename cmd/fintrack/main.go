package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/kvstore"
	applog "fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store := kvstore.Open(cfg.DBPath, logger.Logger)
	defer store.Close()

	keys := kvstore.Keys{Namespace: cfg.Namespace}
	bus := notify.NewBus()

	// Mirror transactions-changed onto AMQP when a broker is configured;
	// local writes never wait on it.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		bus.Forward = amqpClient.PublishTransactionsChanged
		logger.Info("AMQP forwarding enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	repos := apphttp.Repositories{
		Accounts:     storage.NewAccountsRepository(store, keys.Accounts()),
		Categories:   storage.NewCategoriesRepository(store, keys.Categories(), services.GoalsCategoryName),
		Budgets:      storage.NewBudgetsRepository(store, keys.Budgets()),
		Cuotas:       storage.NewCuotasRepository(store, keys.Cuotas()),
		Transactions: storage.NewTransactionsRepository(store, keys.Transactions(), bus),
		Investments:  storage.NewInvestmentsRepository(store, keys.Positions(), keys.Snapshots(), keys.Refs()),
	}
	goals := services.NewGoalService(storage.NewGoalsRepository(store, keys.Goals()), repos.Categories)
	stats := services.NewStatsService(repos.Budgets, repos.Transactions, bus)

	cacheManager := cache.NewManager()
	cacheManager.Register(stats.SpentCache())
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, repos, goals, stats, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port, "namespace", cfg.Namespace)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
