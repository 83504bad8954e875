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

	"github.com/noobzdxz-gif/Tracking-App/internal/amqp"
	"github.com/noobzdxz-gif/Tracking-App/internal/backend"
	"github.com/noobzdxz-gif/Tracking-App/internal/config"
	apphttp "github.com/noobzdxz-gif/Tracking-App/internal/http"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/services"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
)

func main() {
	// .env is for local development; absence is not an error
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The AMQP nudge channel is optional. Without it the in-process sync
	// processor still drains the durable queue on its poll interval.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP sync channel connected", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled, sync runs on the poll loop only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.New(ctx, backend.Type(cfg.RemoteBackend), logger)
	if err != nil {
		logger.Error("Failed to initialize remote backend", "error", err)
		os.Exit(1)
	}

	processorConfig := services.DefaultSyncProcessorConfig()
	processorConfig.PollInterval = cfg.SyncInterval
	processorConfig.BatchSize = cfg.SyncBatchSize
	processorConfig.MaxRetries = cfg.SyncMaxRetries
	processorConfig.CleanupInterval = cfg.CleanupInterval

	processor := services.NewSyncProcessor(repo, store, processorConfig, logger)
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	service := services.NewEntryService(repo, amqpClient, logger)
	srv := apphttp.NewServer(cfg, service, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting trackd", "port", cfg.Port, "backend", cfg.RemoteBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := processor.Stop(shutdownCtx); err != nil {
			logger.Error("Sync processor shutdown error", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
