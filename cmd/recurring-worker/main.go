package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting recurring-worker")

	store, closeStore, err := cli.InitStore(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer closeStore()

	amqpClient := cli.InitAMQP(context.Background(), cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	engines := cli.NewEngines(store, cli.Publisher(amqpClient), cfg)
	w := worker.NewRecurringWorker(store, engines.Recurring, engines.Savings, cfg.WorkerConcurrency)

	ctx, done := cli.GracefulShutdown(30*time.Second, nil)

	scheduler := worker.NewScheduler(ctx, w)
	if err := scheduler.Register(cfg.RecurringCron); err != nil {
		logger.Error("Failed to schedule recurring job", "error", err)
		os.Exit(1)
	}

	logger.Info("Running initial recurring expense processing")
	if result, err := w.RunAll(ctx); err != nil {
		logger.Error("Initial processing failed", "error", err, "failed", result.Failed)
	}

	scheduler.Start()
	defer scheduler.Stop()

	if amqpClient != nil {
		go func() {
			if err := amqpClient.Consume(ctx, w.HandleMessage); err != nil && ctx.Err() == nil {
				logger.Error("AMQP consumer stopped", "error", err)
			}
		}()
		logger.Info("Listening for worker commands", "queue", cfg.AMQPQueue)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker shutdown complete")
}
