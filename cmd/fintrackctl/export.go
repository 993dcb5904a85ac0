package main

import (
	"errors"
	"fmt"

	"fintrack/internal/export/sheets"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Append the month's dashboard summary to a Google Sheet",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if !app.cfg.ExportEnabled() {
		return errors.New("export is not configured: set GOOGLE_SPREADSHEET_ID and service account credentials")
	}
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

	exporter, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   app.cfg.GoogleSpreadsheetID,
		SheetName:       app.cfg.GoogleSheetName,
		CredentialsFile: app.cfg.GoogleCredentialsFile,
		CredentialsJSON: app.cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}

	summary, err := app.engines.Dashboard.BuildDashboard(ctx, owner, year, month)
	if err != nil {
		return fmt.Errorf("build dashboard: %w", err)
	}

	progress("  Exporting %04d-%02d for %s...\n", year, month, owner)
	updated, err := exporter.ExportSummary(ctx, owner, summary)
	if err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	fmt.Printf("  Appended to %s\n", updated)
	return nil
}
