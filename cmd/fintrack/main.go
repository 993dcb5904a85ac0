package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	store, closeStore, err := cli.InitStore(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	amqpClient := cli.InitAMQP(context.Background(), cfg)
	engines := cli.NewEngines(store, cli.Publisher(amqpClient), cfg)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              store,
		Savings:            engines.Savings,
		Recurring:          engines.Recurring,
		Dashboard:          engines.Dashboard,
		Insights:           engines.Insights,
		Events:             cli.Publisher(amqpClient),
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaterializeTTL:     cfg.MaterializeCacheTTL,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		closeAll(logger, amqpClient, closeStore)
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func closeAll(logger *log.Logger, client *amqp.Client, closeStore func() error) {
	if client != nil {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
	}
	if err := closeStore(); err != nil {
		logger.Warn("Failed to close ledger store", "error", err)
	}
}
