// Package ledger defines the ports through which the finance engine reads and
// writes persisted records. Implementations live in internal/storage (SQLite)
// and internal/ledger/memory.
package ledger

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by lookups addressed by ID when no row matches.
// Lookups addressed by (owner, month) report absence with a nil result instead.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write would give an owner two budgets for
// the same category and month.
var ErrConflict = errors.New("record conflicts with an existing one")

// Ports for the engine.
type (
	IncomeReader interface {
		// GetIncome returns the income for (owner, month), or nil when none is set.
		GetIncome(ctx context.Context, owner core.Owner, month time.Time) (*core.Income, error)
	}

	ExpenseReader interface {
		// SumExpenses sums expense amounts dated in [start, end).
		SumExpenses(ctx context.Context, owner core.Owner, start, end time.Time) (decimal.Decimal, error)
		// SumExpensesByCategory is SumExpenses restricted to one category.
		SumExpensesByCategory(ctx context.Context, owner core.Owner, category core.Category, start, end time.Time) (decimal.Decimal, error)
		// ListExpenses returns expenses dated in [start, end), newest first.
		ListExpenses(ctx context.Context, owner core.Owner, start, end time.Time) ([]core.Expense, error)
		// ListRecurringTemplates returns every expense of owner flagged as recurring.
		ListRecurringTemplates(ctx context.Context, owner core.Owner) ([]core.Expense, error)
		// ExpenseExists reports whether an expense with identical content exists.
		ExpenseExists(ctx context.Context, owner core.Owner, category core.Category, amount decimal.Decimal, date time.Time, note string) (bool, error)
	}

	ExpenseWriter interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	BudgetReader interface {
		// ListBudgets returns the budgets of (owner, month) in category order.
		ListBudgets(ctx context.Context, owner core.Owner, month time.Time) ([]core.Budget, error)
	}

	SnapshotStore interface {
		// GetSnapshot returns the snapshot for (owner, month), or nil when none exists.
		GetSnapshot(ctx context.Context, owner core.Owner, month time.Time) (*core.SavingsSnapshot, error)
		// UpsertSnapshot inserts or replaces the snapshot for (owner, month).
		UpsertSnapshot(ctx context.Context, owner core.Owner, month time.Time, amount decimal.Decimal) (core.SavingsSnapshot, error)
	}
)

// Ports for the record CRUD surface.
type (
	IncomeWriter interface {
		UpsertIncome(ctx context.Context, owner core.Owner, month time.Time, amount decimal.Decimal) (core.Income, error)
	}

	ExpenseEditor interface {
		GetExpense(ctx context.Context, owner core.Owner, id int64) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, owner core.Owner, id int64) error
	}

	BudgetWriter interface {
		UpsertBudget(ctx context.Context, owner core.Owner, category core.Category, month time.Time, amount decimal.Decimal) (core.Budget, error)
		GetBudget(ctx context.Context, owner core.Owner, id int64) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, owner core.Owner, id int64) error
	}

	OwnerLister interface {
		// ListOwners returns every owner that has at least one recurring template.
		ListOwners(ctx context.Context) ([]core.Owner, error)
	}

	SnapshotLister interface {
		// ListSnapshots returns all snapshots of owner ordered by month.
		ListSnapshots(ctx context.Context, owner core.Owner) ([]core.SavingsSnapshot, error)
	}
)

// Store is everything a complete ledger backend provides.
type Store interface {
	IncomeReader
	IncomeWriter
	ExpenseReader
	ExpenseWriter
	ExpenseEditor
	BudgetReader
	BudgetWriter
	SnapshotStore
	SnapshotLister
	OwnerLister
	Close() error
}
