package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/period"

	"github.com/shopspring/decimal"
)

// DashboardPercentPlaces is the precision of budget usage percentages.
const DashboardPercentPlaces = 2

type DashboardStore interface {
	ledger.IncomeReader
	ledger.ExpenseReader
	ledger.BudgetReader
}

// SnapshotRefresher recomputes and stores the savings snapshot of a month.
type SnapshotRefresher interface {
	RefreshSnapshot(ctx context.Context, owner core.Owner, year, month int) (core.SavingsSnapshot, error)
}

type DashboardAggregator struct {
	store   DashboardStore
	savings SnapshotRefresher
}

func NewDashboardAggregator(store DashboardStore, savings SnapshotRefresher) *DashboardAggregator {
	return &DashboardAggregator{store: store, savings: savings}
}

// BuildDashboard assembles the monthly overview of owner. Building it refreshes
// the month's savings snapshot; everything else is read only.
func (d *DashboardAggregator) BuildDashboard(ctx context.Context, owner core.Owner, year, month int) (core.DashboardSummary, error) {
	start, end := period.MonthRange(year, month)

	income := decimal.Zero
	inc, err := d.store.GetIncome(ctx, owner, start)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("get income: %w", err)
	}
	if inc != nil {
		income = inc.Amount
	}

	expenses, err := d.store.ListExpenses(ctx, owner, start, end)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("list expenses: %w", err)
	}

	totalSpent := decimal.Zero
	breakdown := make(map[core.Category]decimal.Decimal)
	for _, e := range expenses {
		totalSpent = totalSpent.Add(e.Amount)
		breakdown[e.Category] = breakdown[e.Category].Add(e.Amount)
	}

	snap, err := d.savings.RefreshSnapshot(ctx, owner, year, month)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("refresh snapshot: %w", err)
	}

	budgets, err := d.store.ListBudgets(ctx, owner, start)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("list budgets: %w", err)
	}

	usage := make(map[core.Category]core.BudgetUsage, len(budgets))
	totalBudget := decimal.Zero
	for _, b := range budgets {
		spent, ok := breakdown[b.Category]
		if !ok {
			spent = decimal.Zero
		}
		usage[b.Category] = core.BudgetUsage{
			Budget:     b.Amount,
			Spent:      spent,
			Percentage: core.Percent(spent, b.Amount, DashboardPercentPlaces),
		}
		totalBudget = totalBudget.Add(b.Amount)
	}

	fields := log.NewFields().WithOperation(log.OpRead).WithPeriod(owner.String(), year, month)
	fields["expenses"] = len(expenses)
	fields["budgets"] = len(budgets)
	log.FromContext(ctx).WithComponent(log.ComponentDashboard).DebugContext(ctx, "Dashboard built", fields.ToSlice()...)

	return core.DashboardSummary{
		Year:              year,
		Month:             month,
		Income:            income,
		TotalSpent:        totalSpent,
		MonthlyBalance:    income.Sub(totalSpent),
		SavingsBalance:    snap.SavingsBalance,
		CategoryBreakdown: breakdown,
		CategoryBudgets:   usage,
		BudgetSummary: core.BudgetSummary{
			TotalBudget:    totalBudget,
			Income:         income,
			Difference:     income.Sub(totalBudget),
			IsOverBudgeted: totalBudget.GreaterThan(income),
		},
	}, nil
}
