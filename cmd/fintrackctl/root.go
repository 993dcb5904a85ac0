package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/period"

	"github.com/spf13/cobra"
)

var (
	flagOwner   string
	flagYear    int
	flagMonth   int
	flagBackend string
	flagDBPath  string
	flagQuiet   bool
)

// app holds what PersistentPreRunE opened for the running command.
var app struct {
	cfg     *config.Config
	logger  *log.Logger
	store   ledger.Store
	cleanup backend.CleanupFunc
	engines cli.Engines
}

var rootCmd = &cobra.Command{
	Use:               "fintrackctl",
	Short:             "Personal finance ledger CLI",
	Long:              "Inspect savings, dashboards and insights, and run recurring expense maintenance.",
	SilenceUsage:      true,
	PersistentPreRunE: openLedger,
}

// Execute is the main entry point called from main.go.
func Execute() {
	err := rootCmd.Execute()
	closeLedger()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOwner, "owner", "o", os.Getenv("FINTRACK_OWNER"), "Ledger owner (defaults to $FINTRACK_OWNER)")
	rootCmd.PersistentFlags().IntVarP(&flagYear, "year", "y", 0, "Year (defaults to the current year)")
	rootCmd.PersistentFlags().IntVarP(&flagMonth, "month", "m", 0, "Month 1-12 (defaults to the current month)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Override DATA_BACKEND (sqlite, memory)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Override SQLITE_DB_PATH")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func openLedger(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	if flagDBPath != "" {
		cfg.SQLiteDBPath = flagDBPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs go to stderr so command output stays pipeable.
	logger := cli.SetupLoggerTo(cfg, log.ComponentCLI, os.Stderr)

	store, cleanup, err := cli.InitStore(cmd.Context(), logger, cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	app.cfg = cfg
	app.logger = logger
	app.store = store
	app.cleanup = cleanup
	app.engines = cli.NewEngines(store, nil, cfg)
	return nil
}

func closeLedger() {
	if app.cleanup == nil {
		return
	}
	if err := app.cleanup(); err != nil {
		app.logger.Warn("Failed to close ledger store", "error", err)
	}
	app.cleanup = nil
}

// commandContext bounds one CLI operation.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 2*time.Minute)
}

func requireOwner() (core.Owner, error) {
	if flagOwner == "" {
		return "", errors.New("owner is required: pass --owner or set FINTRACK_OWNER")
	}
	return core.Owner(flagOwner), nil
}

// targetMonth resolves --year/--month, filling missing parts from the current UTC month.
func targetMonth() (int, int, error) {
	year, month := period.Of(time.Now().UTC())
	if flagYear != 0 {
		year = flagYear
	}
	if flagMonth != 0 {
		month = flagMonth
	}
	if !period.Valid(year, month) {
		return 0, 0, fmt.Errorf("invalid month %04d-%02d", year, month)
	}
	return year, month, nil
}

func progress(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
