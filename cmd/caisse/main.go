package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/barthos4/ma-caisse/internal/amqp"
	"github.com/barthos4/ma-caisse/internal/config"
	"github.com/barthos4/ma-caisse/internal/core"
	"github.com/barthos4/ma-caisse/internal/export"
	apphttp "github.com/barthos4/ma-caisse/internal/http"
	applog "github.com/barthos4/ma-caisse/internal/log"
	"github.com/barthos4/ma-caisse/internal/services"
	"github.com/barthos4/ma-caisse/internal/store"
	storemem "github.com/barthos4/ma-caisse/internal/store/memory"
	"github.com/barthos4/ma-caisse/internal/store/sqlite"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentApp)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var repo store.Repository
	switch cfg.DataBackend {
	case "sqlite":
		r, err := sqlite.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		repo = r
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		repo = storemem.New()
		logger.Info("Initialized memory backend")
	}
	defer repo.Close()

	// AMQP is optional: without a broker the ledger still works, only the
	// off-site mirror is skipped (the worker's pending scan catches up).
	var publisher services.MirrorPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without mirror events", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	hub := core.NewHub()
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:   services.NewTransactionService(repo, publisher, hub),
		Categories:     services.NewCategoryService(repo, hub),
		Budgets:        services.NewBudgetService(repo, hub),
		Settings:       services.NewSettingsService(repo, hub),
		Reports:        services.NewReportService(repo),
		PDF:            export.NewPDFRenderer(&http.Client{Timeout: 15 * time.Second}),
		Hub:            hub,
		DefaultOwnerID: cfg.DefaultOwnerID,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

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

	logger.Info("Starting caisse server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
