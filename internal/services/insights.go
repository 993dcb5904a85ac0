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

const (
	// InsightPercentPlaces is the precision of month comparison and budget warning percentages.
	InsightPercentPlaces = 1

	// DefaultCurrencySymbol prefixes amounts in insight messages.
	DefaultCurrencySymbol = "₹"
)

var (
	budgetWarningThreshold = decimal.NewFromInt(90)
	two                    = decimal.NewFromInt(2)
)

type InsightStore interface {
	ledger.IncomeReader
	ledger.ExpenseReader
	ledger.BudgetReader
}

type InsightOption func(*InsightEngine)

// WithCurrencySymbol sets the symbol printed before amounts.
func WithCurrencySymbol(symbol string) InsightOption {
	return func(e *InsightEngine) {
		if symbol != "" {
			e.currency = symbol
		}
	}
}

// InsightEngine evaluates the advisory rules for a month.
type InsightEngine struct {
	store    InsightStore
	currency string
}

func NewInsightEngine(store InsightStore, opts ...InsightOption) *InsightEngine {
	e := &InsightEngine{store: store, currency: DefaultCurrencySymbol}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DeriveInsights returns the insights of (year, month) in a fixed order: the
// month comparison first, then for each budget its usage warning followed by
// its income pressure, then the over budget check. Either every rule is
// evaluated or an error is returned.
func (e *InsightEngine) DeriveInsights(ctx context.Context, owner core.Owner, year, month int) ([]core.Insight, error) {
	start, end := period.MonthRange(year, month)
	prevStart, prevEnd := period.MonthRange(period.PreviousMonth(year, month))

	insights := []core.Insight{}

	currentTotal, err := e.store.SumExpenses(ctx, owner, start, end)
	if err != nil {
		return nil, fmt.Errorf("sum current expenses: %w", err)
	}
	prevTotal, err := e.store.SumExpenses(ctx, owner, prevStart, prevEnd)
	if err != nil {
		return nil, fmt.Errorf("sum previous expenses: %w", err)
	}
	if prevTotal.IsPositive() {
		insights = append(insights, e.monthComparison(currentTotal, prevTotal))
	}

	income := decimal.Zero
	inc, err := e.store.GetIncome(ctx, owner, start)
	if err != nil {
		return nil, fmt.Errorf("get income: %w", err)
	}
	if inc != nil {
		income = inc.Amount
	}

	budgets, err := e.store.ListBudgets(ctx, owner, start)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	totalBudget := decimal.Zero
	for _, b := range budgets {
		totalBudget = totalBudget.Add(b.Amount)

		spent, err := e.store.SumExpensesByCategory(ctx, owner, b.Category, start, end)
		if err != nil {
			return nil, fmt.Errorf("sum %s expenses: %w", b.Category, err)
		}

		percent := core.Percent(spent, b.Amount, InsightPercentPlaces)
		if percent.GreaterThanOrEqual(budgetWarningThreshold) {
			insights = append(insights, core.Insight{
				Type:     core.InsightBudgetWarning,
				Severity: core.SeverityDanger,
				Message: fmt.Sprintf("%s budget is at %s%% usage",
					b.Category.Label(), percent.StringFixed(InsightPercentPlaces)),
			})
		}

		// amount/income >= 0.5, compared without dividing.
		if income.IsPositive() && b.Amount.Mul(two).GreaterThanOrEqual(income) {
			insights = append(insights, core.Insight{
				Type:     core.InsightIncomePressure,
				Severity: core.SeverityWarning,
				Message: fmt.Sprintf("%s consumes %s%% of your income",
					b.Category.Label(), core.Percent(b.Amount, income, 0).StringFixed(0)),
			})
		}
	}

	if income.IsPositive() && totalBudget.GreaterThan(income) {
		insights = append(insights, core.Insight{
			Type:     core.InsightOverBudget,
			Severity: core.SeverityDanger,
			Message:  "Your total budget exceeds your income",
		})
	}

	fields := log.NewFields().WithOperation(log.OpRead).WithPeriod(owner.String(), year, month)
	fields["insights"] = len(insights)
	log.FromContext(ctx).WithComponent(log.ComponentInsights).DebugContext(ctx, "Insights derived", fields.ToSlice()...)

	return insights, nil
}

func (e *InsightEngine) monthComparison(current, previous decimal.Decimal) core.Insight {
	diff := current.Sub(previous)
	percent := core.Percent(diff, previous, InsightPercentPlaces)

	severity, direction := core.SeverityPositive, "less"
	if diff.IsPositive() {
		severity, direction = core.SeverityWarning, "more"
	}

	return core.Insight{
		Type:     core.InsightMonthComparison,
		Severity: severity,
		Message: fmt.Sprintf("You spent %s%s (%s%%) %s than last month",
			e.currency, core.FormatAmount(diff.Abs()), percent.Abs().StringFixed(InsightPercentPlaces), direction),
	}
}
