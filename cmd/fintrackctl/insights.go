package main

import (
	"fmt"

	"fintrack/internal/cli"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show spending insights for a month",
	RunE:  runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, _ []string) error {
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

	insights, err := app.engines.Insights.DeriveInsights(ctx, owner, year, month)
	if err != nil {
		return fmt.Errorf("derive insights: %w", err)
	}

	if len(insights) == 0 {
		fmt.Println("  No insights for this month.")
		return nil
	}
	fmt.Print(cli.RenderInsights(insights))
	return nil
}
