// Package cli holds the start-up code shared by cmd/fintrack,
// cmd/recurring-worker and cmd/fintrackctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/joho/godotenv"
)

// SetupLogger builds the process logger from cfg and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	return SetupLoggerTo(cfg, component, os.Stdout)
}

// SetupLoggerTo is SetupLogger writing to out.
func SetupLoggerTo(cfg *config.Config, component string, out io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads and validates the configuration.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAndValidateConfig is LoadConfig for long-running binaries: it exits the
// process on failure.
func LoadAndValidateConfig() *config.Config {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the ledger backend selected by cfg.
func InitStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (ledger.Store, backend.CleanupFunc, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).Create(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res.Store, res.Cleanup, nil
}

// InitAMQP connects to the broker when AMQP_URL is set. A failed connection
// is logged and reported as a nil client so the caller runs without events.
func InitAMQP(ctx context.Context, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		slog.InfoContext(ctx, "AMQP disabled, events will not be published")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	slog.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// Publisher converts a possibly nil client to an EventPublisher. A nil client
// becomes a nil interface so the engines skip publishing.
func Publisher(client *amqp.Client) services.EventPublisher {
	if client == nil {
		return nil
	}
	return client
}

// Engines bundles the finance engines over one store.
type Engines struct {
	Savings   *services.SavingsEngine
	Recurring *services.RecurringMaterializer
	Dashboard *services.DashboardAggregator
	Insights  *services.InsightEngine
}

func NewEngines(store ledger.Store, events services.EventPublisher, cfg *config.Config) Engines {
	savings := services.NewSavingsEngine(store, events)
	return Engines{
		Savings:   savings,
		Recurring: services.NewRecurringMaterializer(store, events),
		Dashboard: services.NewDashboardAggregator(store, savings),
		Insights:  services.NewInsightEngine(store, services.WithCurrencySymbol(cfg.InsightCurrencySymbol)),
	}
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. After
// cancellation cleanup runs with a context bounded by timeout, then done closes.
func GracefulShutdown(timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			slog.Warn("Shutdown timeout reached")
			return
		}
		slog.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
