package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/barthos4/ma-caisse/internal/amqp"
	"github.com/barthos4/ma-caisse/internal/config"
	applog "github.com/barthos4/ma-caisse/internal/log"
	"github.com/barthos4/ma-caisse/internal/sheets"
	gsheet "github.com/barthos4/ma-caisse/internal/sheets/google"
	sheetsmem "github.com/barthos4/ma-caisse/internal/sheets/memory"
	"github.com/barthos4/ma-caisse/internal/store/sqlite"
	"github.com/barthos4/ma-caisse/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting caisse-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The sheet mirror target: Google Sheets when configured, otherwise an
	// in-process mirror so the worker can run end to end locally.
	var (
		appender sheets.RowAppender
		remover  sheets.RowRemover
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender, remover = client, client
		logger.Info("Google Sheets mirror initialized", "sheet", cfg.GoogleSheetName)
	} else {
		mirror := sheetsmem.New()
		appender, remover = mirror, mirror
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring in memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.New(repo, appender, remover)

	// Catch up on anything missed while the worker was down.
	if err := w.ScanPending(ctx, cfg.MirrorBatchSize); err != nil {
		logger.Error("Initial pending scan failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, w.Handlers(gctx))
	})
	g.Go(func() error {
		return w.RunPendingScan(gctx, cfg.MirrorInterval, cfg.MirrorBatchSize)
	})

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"scan_interval", cfg.MirrorInterval,
		"batch_size", cfg.MirrorBatchSize)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
