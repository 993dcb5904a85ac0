package core

import "github.com/shopspring/decimal"

// BudgetUsage is the budget-vs-spend view of one category.
type BudgetUsage struct {
	Budget     decimal.Decimal
	Spent      decimal.Decimal
	Percentage decimal.Decimal // two decimal places
}

// BudgetSummary compares the sum of all budgets with the month's income.
type BudgetSummary struct {
	TotalBudget    decimal.Decimal
	Income         decimal.Decimal
	Difference     decimal.Decimal
	IsOverBudgeted bool
}

// DashboardSummary is the monthly overview for one owner.
type DashboardSummary struct {
	Year              int
	Month             int // 1-12
	Income            decimal.Decimal
	TotalSpent        decimal.Decimal
	MonthlyBalance    decimal.Decimal
	SavingsBalance    decimal.Decimal
	CategoryBreakdown map[Category]decimal.Decimal
	CategoryBudgets   map[Category]BudgetUsage
	BudgetSummary     BudgetSummary
}

type (
	InsightType string
	Severity    string
)

const (
	InsightMonthComparison InsightType = "month_comparison"
	InsightBudgetWarning   InsightType = "budget_warning"
	InsightIncomePressure  InsightType = "income_pressure"
	InsightOverBudget      InsightType = "over_budget"

	SeverityPositive Severity = "positive"
	SeverityWarning  Severity = "warning"
	SeverityDanger   Severity = "danger"
)

// Insight is a rule-derived advisory message.
type Insight struct {
	Type     InsightType
	Severity Severity
	Message  string
}
