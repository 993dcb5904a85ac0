package main

import (
	"fmt"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/period"

	"github.com/spf13/cobra"
)

var flagList bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Recompute a month's savings snapshot, or list stored snapshots",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVarP(&flagList, "list", "l", false, "List stored snapshots instead of refreshing")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	owner, err := requireOwner()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if flagList {
		snaps, err := app.store.ListSnapshots(ctx, owner)
		if err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}
		rows := make([][]string, 0, len(snaps))
		for _, s := range snaps {
			rows = append(rows, []string{
				s.Month.Format("2006-01"),
				core.FormatAmount(s.SavingsBalance),
				s.CreatedAt.UTC().Format("2006-01-02 15:04"),
			})
		}
		fmt.Println(cli.RenderTable(cli.Table{
			Title:   "Savings snapshots",
			Headers: []string{"Month", "Balance", "Computed"},
			Rows:    rows,
		}))
		return nil
	}

	year, month, err := targetMonth()
	if err != nil {
		return err
	}
	snap, err := app.engines.Savings.RefreshSnapshot(ctx, owner, year, month)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}
	y, m := period.Of(snap.Month)
	fmt.Print(cli.RenderSavings(y, m, snap.SavingsBalance, app.cfg.InsightCurrencySymbol))
	return nil
}
