package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/export"
	gsheet "fintrack/internal/export/google"
	mem "fintrack/internal/export/memory"
	"fintrack/internal/kvstore"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting fintrack-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store := kvstore.Open(cfg.DBPath, logger.Logger)
	defer store.Close()

	keys := kvstore.Keys{Namespace: cfg.Namespace}
	transactions := storage.NewTransactionsRepository(store, keys.Transactions(), nil)

	// Pick the export sink: Google Sheets when configured, in-memory
	// otherwise so the loop still runs locally.
	var writer export.TransactionWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = mem.New()
		logger.Info("Google Sheets disabled - exporting to memory sink")
	}

	processor := export.NewProcessor(transactions, writer, export.ProcessorConfig{
		PollInterval: cfg.ExportInterval,
		BatchSize:    cfg.ExportBatchSize,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start export processor", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Consume transactions-changed messages to trigger immediate exports.
	// Without a broker the periodic tick alone drives the processor.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeTransactionsChanged(gctx, func(msg *amqp.TransactionsChangedMessage) error {
				logger.Info("Transactions changed", "revision", msg.Revision)
				processor.Trigger()
				return nil
			})
			if err == context.Canceled {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic export only")
	}

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		return processor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
