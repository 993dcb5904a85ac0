// Package sheets appends monthly dashboard summaries to a Google Sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the target sheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile when both are set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates an Exporter authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case cfg.CredentialsJSON != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID, "sheet", cfg.SheetName)
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing service, for example one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Exporter {
	if sheetName == "" {
		sheetName = "Summary"
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// Header returns the column titles matching SummaryRow.
func Header() []any {
	row := []any{"Month", "Owner", "Income", "Spent", "Monthly balance", "Savings balance", "Total budget", "Over budget"}
	for _, c := range core.AllCategories {
		row = append(row, c.Label())
	}
	return row
}

// SummaryRow flattens a dashboard into one sheet row. Amounts are fixed
// two-decimal strings.
func SummaryRow(owner core.Owner, d core.DashboardSummary) []any {
	row := []any{
		fmt.Sprintf("%04d-%02d", d.Year, d.Month),
		owner.String(),
		core.FormatAmount(d.Income),
		core.FormatAmount(d.TotalSpent),
		core.FormatAmount(d.MonthlyBalance),
		core.FormatAmount(d.SavingsBalance),
		core.FormatAmount(d.BudgetSummary.TotalBudget),
		d.BudgetSummary.IsOverBudgeted,
	}
	for _, c := range core.AllCategories {
		row = append(row, core.FormatAmount(d.CategoryBreakdown[c]))
	}
	return row
}

// ExportSummary appends the summary row, preceded by Header when the sheet is
// empty, and returns the updated range. Cells are stored as given (RAW) so an
// owner beginning with "=" is never evaluated as a formula.
func (e *Exporter) ExportSummary(ctx context.Context, owner core.Owner, d core.DashboardSummary) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	empty, err := e.isEmpty(ctx)
	if err != nil {
		return "", err
	}
	rows := [][]any{SummaryRow(owner, d)}
	if empty {
		rows = append([][]any{Header()}, rows...)
	}

	vr := &gsheet.ValueRange{Values: rows}
	rng := fmt.Sprintf("%s!A:A", e.sheetName)

	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append summary to %s: %w", e.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Exported dashboard summary",
		"owner", owner,
		"year", d.Year,
		"month", d.Month,
		"range", ref)
	return ref, nil
}

// isEmpty reports whether the first cell of the sheet is blank.
func (e *Exporter) isEmpty(ctx context.Context) (bool, error) {
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, fmt.Sprintf("%s!A1", e.sheetName)).
		Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read %s header: %w", e.sheetName, err)
	}
	return len(resp.Values) == 0, nil
}
