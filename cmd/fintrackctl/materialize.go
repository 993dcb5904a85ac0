package main

import (
	"errors"
	"fmt"

	"fintrack/internal/cli"
	"fintrack/internal/worker"

	"github.com/spf13/cobra"
)

var (
	flagAll   bool
	flagAsync bool
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Create this month's occurrences of recurring expenses",
	Long: "Materializes recurring expense templates into the current month and refreshes\n" +
		"the month's savings snapshot. With --async the work is queued for recurring-worker.",
	RunE: runMaterialize,
}

func init() {
	materializeCmd.Flags().BoolVar(&flagAll, "all", false, "Process every owner with recurring expenses")
	materializeCmd.Flags().BoolVar(&flagAsync, "async", false, "Queue a request over AMQP instead of running locally")
	rootCmd.AddCommand(materializeCmd)
}

func runMaterialize(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if flagAsync {
		owner, err := requireOwner()
		if err != nil {
			return err
		}
		client := cli.InitAMQP(ctx, app.cfg)
		if client == nil {
			return errors.New("AMQP is not configured or unreachable")
		}
		defer client.Close()
		if err := client.RequestMaterialize(ctx, owner); err != nil {
			return fmt.Errorf("request materialization: %w", err)
		}
		fmt.Printf("  Queued materialization for %s\n", owner)
		return nil
	}

	w := worker.NewRecurringWorker(app.store, app.engines.Recurring, app.engines.Savings, app.cfg.WorkerConcurrency)

	if flagAll {
		progress("  Processing all owners...\n")
		result, err := w.RunAll(ctx)
		fmt.Printf("  Owners: %d  Created: %d  Failed: %d\n", result.Owners, result.Created, result.Failed)
		return err
	}

	owner, err := requireOwner()
	if err != nil {
		return err
	}
	created, err := w.ProcessOwner(ctx, owner)
	if err != nil {
		return err
	}
	fmt.Printf("  Created %d expense(s) for %s\n", created, owner)
	return nil
}
