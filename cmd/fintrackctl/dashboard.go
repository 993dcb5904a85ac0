package main

import (
	"fmt"

	"fintrack/internal/cli"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the monthly dashboard",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
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

	summary, err := app.engines.Dashboard.BuildDashboard(ctx, owner, year, month)
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}

	fmt.Println(cli.RenderDashboard(summary, app.cfg.InsightCurrencySymbol))
	return nil
}
