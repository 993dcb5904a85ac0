// Package storage is the SQLite ledger backend. Amounts are stored as integer
// cents and calendar dates as ISO text so that range filters compare as strings.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/period"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339Nano
)

var _ ledger.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps pragmas and writes on the same handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func dateText(t time.Time) string { return t.UTC().Format(dateLayout) }

// monthText normalizes any instant to the first day of its month.
func monthText(t time.Time) string { return dateText(period.MonthStart(period.Of(t))) }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// Incomes

func (r *SQLiteRepository) GetIncome(ctx context.Context, owner core.Owner, month time.Time) (*core.Income, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, month, amount_cents FROM incomes WHERE owner = ? AND month = ?`,
		string(owner), monthText(month))

	var (
		inc   core.Income
		m     string
		cents int64
	)
	err := row.Scan(&inc.ID, &inc.Owner, &m, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get income: %w", err)
	}
	if inc.Month, err = parseDate(m); err != nil {
		return nil, err
	}
	inc.Amount = core.FromCents(cents)
	return &inc, nil
}

func (r *SQLiteRepository) UpsertIncome(ctx context.Context, owner core.Owner, month time.Time, amount decimal.Decimal) (core.Income, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes (owner, month, amount_cents) VALUES (?, ?, ?)
		ON CONFLICT (owner, month) DO UPDATE SET amount_cents = excluded.amount_cents`,
		string(owner), monthText(month), core.ToCents(amount))
	if err != nil {
		return core.Income{}, fmt.Errorf("upsert income: %w", err)
	}

	inc, err := r.GetIncome(ctx, owner, month)
	if err != nil {
		return core.Income{}, err
	}
	if inc == nil {
		return core.Income{}, fmt.Errorf("upsert income: row vanished")
	}
	return *inc, nil
}

// Expenses

const expenseColumns = `id, owner, amount_cents, category, date, note, is_recurring, recurrence_day, created_at`

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e             core.Expense
		cents         int64
		category      string
		date, created string
		recurring     bool
		recurrenceDay sql.NullInt64
	)
	if err := s.Scan(&e.ID, &e.Owner, &cents, &category, &date, &e.Note, &recurring, &recurrenceDay, &created); err != nil {
		return core.Expense{}, err
	}

	var err error
	if e.Date, err = parseDate(date); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	e.Amount = core.FromCents(cents)
	e.Category = core.Category(category)
	e.IsRecurring = recurring
	if recurrenceDay.Valid {
		d := int(recurrenceDay.Int64)
		e.RecurrenceDay = &d
	}
	return e, nil
}

func nullableDay(d *int) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) sumCents(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return decimal.Zero, err
	}
	return core.FromCents(cents), nil
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, owner core.Owner, start, end time.Time) (decimal.Decimal, error) {
	sum, err := r.sumCents(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE owner = ? AND date >= ? AND date < ?`,
		string(owner), dateText(start), dateText(end))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return sum, nil
}

func (r *SQLiteRepository) SumExpensesByCategory(ctx context.Context, owner core.Owner, category core.Category, start, end time.Time) (decimal.Decimal, error) {
	sum, err := r.sumCents(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		 WHERE owner = ? AND category = ? AND date >= ? AND date < ?`,
		string(owner), string(category), dateText(start), dateText(end))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %s expenses: %w", category, err)
	}
	return sum, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, owner core.Owner, start, end time.Time) ([]core.Expense, error) {
	out, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE owner = ? AND date >= ? AND date < ?
		 ORDER BY date DESC, id DESC`,
		string(owner), dateText(start), dateText(end))
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListRecurringTemplates(ctx context.Context, owner core.Owner) ([]core.Expense, error) {
	out, err := r.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE owner = ? AND is_recurring = 1
		 ORDER BY date DESC, id DESC`,
		string(owner))
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ExpenseExists(ctx context.Context, owner core.Owner, category core.Category, amount decimal.Decimal, date time.Time, note string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM expenses
			WHERE owner = ? AND category = ? AND amount_cents = ? AND date = ? AND note = ?
		)`,
		string(owner), string(category), core.ToCents(amount), dateText(date), note).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check expense exists: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.Date = truncateDay(e.Date)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (owner, amount_cents, category, date, note, is_recurring, recurrence_day, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Owner), core.ToCents(e.Amount), string(e.Category), dateText(e.Date), e.Note,
		e.IsRecurring, nullableDay(e.RecurrenceDay), e.CreatedAt.Format(timestampLayout))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"owner", e.Owner,
		"category", e.Category,
		"amount_cents", core.ToCents(e.Amount),
		"date", dateText(e.Date))

	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, owner core.Owner, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND owner = ?`, id, string(owner)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET amount_cents = ?, category = ?, date = ?, note = ?, is_recurring = ?, recurrence_day = ?
		 WHERE id = ? AND owner = ?`,
		core.ToCents(e.Amount), string(e.Category), dateText(e.Date), e.Note,
		e.IsRecurring, nullableDay(e.RecurrenceDay), e.ID, string(e.Owner))
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if err := requireRow(res); err != nil {
		return core.Expense{}, err
	}
	return r.GetExpense(ctx, e.Owner, e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, owner core.Owner, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND owner = ?`, id, string(owner))
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// Budgets

const budgetColumns = `id, owner, category, month, amount_cents`

const budgetOrder = `ORDER BY CASE category
	WHEN 'food' THEN 0 WHEN 'travel' THEN 1 WHEN 'shopping' THEN 2
	WHEN 'rent' THEN 3 WHEN 'other' THEN 4 ELSE 5 END, id`

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b               core.Budget
		category, month string
		cents           int64
	)
	if err := s.Scan(&b.ID, &b.Owner, &category, &month, &cents); err != nil {
		return core.Budget{}, err
	}
	var err error
	if b.Month, err = parseDate(month); err != nil {
		return core.Budget{}, err
	}
	b.Category = core.Category(category)
	b.Amount = core.FromCents(cents)
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, owner core.Owner, month time.Time) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner = ? AND month = ? `+budgetOrder,
		string(owner), monthText(month))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, owner core.Owner, category core.Category, month time.Time, amount decimal.Decimal) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, `
		INSERT INTO budgets (owner, category, month, amount_cents) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, category, month) DO UPDATE SET amount_cents = excluded.amount_cents
		RETURNING `+budgetColumns,
		string(owner), string(category), monthText(month), core.ToCents(amount)))
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, owner core.Owner, id int64) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND owner = ?`, id, string(owner)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	var taken int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE owner = ? AND category = ? AND month = ? AND id != ?`,
		string(b.Owner), string(b.Category), monthText(b.Month), b.ID).Scan(&taken)
	if err != nil {
		return core.Budget{}, fmt.Errorf("check budget conflict: %w", err)
	}
	if taken > 0 {
		return core.Budget{}, ledger.ErrConflict
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, month = ?, amount_cents = ? WHERE id = ? AND owner = ?`,
		string(b.Category), monthText(b.Month), core.ToCents(b.Amount), b.ID, string(b.Owner))
	if isUniqueViolation(err) {
		// A concurrent write claimed the slot after the check above.
		return core.Budget{}, ledger.ErrConflict
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := requireRow(res); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, b.Owner, b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, owner core.Owner, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND owner = ?`, id, string(owner))
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

// Savings snapshots

const snapshotColumns = `owner, month, savings_balance_cents, created_at`

func scanSnapshot(s scanner) (core.SavingsSnapshot, error) {
	var (
		snap           core.SavingsSnapshot
		month, created string
		cents          int64
	)
	if err := s.Scan(&snap.Owner, &month, &cents, &created); err != nil {
		return core.SavingsSnapshot{}, err
	}
	var err error
	if snap.Month, err = parseDate(month); err != nil {
		return core.SavingsSnapshot{}, err
	}
	if snap.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return core.SavingsSnapshot{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	snap.SavingsBalance = core.FromCents(cents)
	return snap, nil
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, owner core.Owner, month time.Time) (*core.SavingsSnapshot, error) {
	snap, err := scanSnapshot(r.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM savings_snapshots WHERE owner = ? AND month = ?`,
		string(owner), monthText(month)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &snap, nil
}

// UpsertSnapshot is a single statement, so concurrent refreshes of the same
// month settle on whichever write lands last.
func (r *SQLiteRepository) UpsertSnapshot(ctx context.Context, owner core.Owner, month time.Time, amount decimal.Decimal) (core.SavingsSnapshot, error) {
	snap, err := scanSnapshot(r.db.QueryRowContext(ctx, `
		INSERT INTO savings_snapshots (owner, month, savings_balance_cents, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, month) DO UPDATE SET savings_balance_cents = excluded.savings_balance_cents
		RETURNING `+snapshotColumns,
		string(owner), monthText(month), core.ToCents(amount), r.now().UTC().Format(timestampLayout)))
	if err != nil {
		return core.SavingsSnapshot{}, fmt.Errorf("upsert snapshot: %w", err)
	}
	return snap, nil
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context, owner core.Owner) ([]core.SavingsSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM savings_snapshots WHERE owner = ? ORDER BY month`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// ListOwners returns owners that have recurring templates, for the background worker.
func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]core.Owner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT owner FROM expenses WHERE is_recurring = 1 ORDER BY owner`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var out []core.Owner
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, core.Owner(o))
	}
	return out, rows.Err()
}
