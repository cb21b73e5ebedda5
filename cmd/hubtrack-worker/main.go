package main

import (
	"context"
	"errors"
	"os"
	"time"

	"hubtrack/internal/amqp"
	"hubtrack/internal/backend"
	"hubtrack/internal/cli"
	"hubtrack/internal/config"
	"hubtrack/internal/log"
	"hubtrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker, (*config.Config).Validate)
	logger.Info("Starting hubtrack-worker")
	if cfg.DataBackend != string(backend.SQLiteBackend) {
		logger.Warn("Ledger worker sees only its own memory store; use DATA_BACKEND=sqlite to share data with the server")
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker consumes events; it must not publish them.
	bcfg.AMQPURL = ""
	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	be, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer be.Cleanup()

	ledger, err := factory.CreateLedger(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}

	w := worker.NewLedgerWorker(be.Store, ledger.Ledger, cfg.SyncBatchSize)

	logger.Info("Performing startup sync check...", "remote_ledger", ledger.Remote)
	if err := w.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client, relying on periodic sync", "error", err)
		} else {
			defer client.Close()
			go func() {
				if err := client.ConsumePaymentStatus(ctx, w.HandlePaymentStatus); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", "error", err)
				}
			}()
			logger.Info("Consuming payment status events", "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - relying on periodic sync only")
	}

	w.Run(ctx, cfg.SyncInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("hubtrack-worker stopped")
}
