package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/noobzdxz-gif/Tracking-App/internal/amqp"
	"github.com/noobzdxz-gif/Tracking-App/internal/backend"
	"github.com/noobzdxz-gif/Tracking-App/internal/config"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/services"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
	"github.com/noobzdxz-gif/Tracking-App/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting track-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

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

	syncWorker := worker.NewSyncWorker(repo, processor, store, logger)

	// Catch up on anything missed while the worker was down, then warm the
	// option cache. Neither failure is fatal.
	syncWorker.StartupCheck(ctx)
	if err := syncWorker.RefreshOptions(ctx); err != nil {
		logger.Warn("Failed to refresh option cache", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// AMQP nudges trigger immediate drains; the reconnect loop survives
	// broker restarts.
	g.Go(func() error {
		err := amqp.ConsumeWithReconnect(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			func(msg *amqp.EntrySyncMessage) error {
				return syncWorker.HandleMessage(gctx, msg)
			})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// The periodic loop covers lost messages.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		optionTicker := time.NewTicker(24 * time.Hour)
		defer optionTicker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				processor.ProcessBatch(gctx)
			case <-optionTicker.C:
				if err := syncWorker.RefreshOptions(gctx); err != nil {
					logger.Warn("Periodic option refresh failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
