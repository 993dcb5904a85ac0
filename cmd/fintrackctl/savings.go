package main

import (
	"fmt"

	"fintrack/internal/cli"

	"github.com/spf13/cobra"
)

var savingsCmd = &cobra.Command{
	Use:   "savings",
	Short: "Show the accumulated savings balance for a month",
	RunE:  runSavings,
}

func init() {
	rootCmd.AddCommand(savingsCmd)
}

func runSavings(cmd *cobra.Command, _ []string) error {
	owner, err := requireOwner()
	if err != nil {
		return err
	}
	year, month, err := targetMonth()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	balance, err := app.engines.Savings.ComputeSavings(ctx, owner, year, month)
	if err != nil {
		return fmt.Errorf("compute savings: %w", err)
	}

	fmt.Print(cli.RenderSavings(year, month, balance, app.cfg.InsightCurrencySymbol))
	return nil
}
