package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger/memory"
)

func TestDeriveInsights_MonthComparison(t *testing.T) {
	cases := []struct {
		name     string
		prev     string
		current  string
		severity core.Severity
		message  string
	}{
		{"spent more", "2000", "2500", core.SeverityWarning, "You spent ₹500.00 (25.0%) more than last month"},
		{"spent less", "2000", "1500", core.SeverityPositive, "You spent ₹500.00 (25.0%) less than last month"},
		{"unchanged", "2000", "2000", core.SeverityPositive, "You spent ₹0.00 (0.0%) less than last month"},
		{"fractional", "300", "400", core.SeverityWarning, "You spent ₹100.00 (33.3%) more than last month"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := memory.New()
			seedExpense(t, s, core.Expense{Owner: "alice", Amount: amt(tc.prev), Category: core.Food, Date: day(2024, 12, 31)})
			seedExpense(t, s, core.Expense{Owner: "alice", Amount: amt(tc.current), Category: core.Food, Date: day(2025, 1, 1)})

			got, err := NewInsightEngine(s).DeriveInsights(context.Background(), "alice", 2025, 1)
			if err != nil {
				t.Fatalf("DeriveInsights: %v", err)
			}
			want := []core.Insight{{Type: core.InsightMonthComparison, Severity: tc.severity, Message: tc.message}}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestDeriveInsights_NoPreviousSpend(t *testing.T) {
	s := memory.New()
	seedExpense(t, s, core.Expense{Owner: "alice", Amount: amt("9999"), Category: core.Food, Date: day(2025, 3, 3)})

	got, err := NewInsightEngine(s).DeriveInsights(context.Background(), "alice", 2025, 3)
	if err != nil {
		t.Fatalf("DeriveInsights: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no insights, got %+v", got)
	}
}

func TestDeriveInsights_BudgetRulesInOrder(t *testing.T) {
	s := memory.New()
	seedIncome(t, s, "alice", 2025, 4, "10000")
	seedExpense(t, s, core.Expense{Owner: "alice", Amount: amt("100"), Category: core.Food, Date: day(2025, 3, 10)})
	seedExpense(t, s, core.Expense{Owner: "alice", Amount: amt("900"), Category: core.Food, Date: day(2025, 4, 10)})
	seedExpense(t, s, core.Expense{Owner: "alice", Amount: amt("100"), Category: core.Shopping, Date: day(2025, 4, 11)})
	seedBudget(t, s, "alice", core.Food, 2025, 4, "1000")
	seedBudget(t, s, "alice", core.Rent, 2025, 4, "6000")
	seedBudget(t, s, "alice", core.Shopping, 2025, 4, "5000")

	got, err := NewInsightEngine(s, WithCurrencySymbol("$")).DeriveInsights(context.Background(), "alice", 2025, 4)
	if err != nil {
		t.Fatalf("DeriveInsights: %v", err)
	}

	want := []core.Insight{
		{Type: core.InsightMonthComparison, Severity: core.SeverityWarning, Message: "You spent $900.00 (900.0%) more than last month"},
		{Type: core.InsightBudgetWarning, Severity: core.SeverityDanger, Message: "Food budget is at 90.0% usage"},
		{Type: core.InsightIncomePressure, Severity: core.SeverityWarning, Message: "Shopping consumes 50% of your income"},
		{Type: core.InsightIncomePressure, Severity: core.SeverityWarning, Message: "Rent consumes 60% of your income"},
		{Type: core.InsightOverBudget, Severity: core.SeverityDanger, Message: "Your total budget exceeds your income"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %+v\nwant %+v", got, want)
	}
}

func TestDeriveInsights_OverBudgetOnce(t *testing.T) {
	s := memory.New()
	seedIncome(t, s, "alice", 2025, 9, "10000")
	for _, c := range []core.Category{core.Food, core.Travel, core.Shopping, core.Rent} {
		seedBudget(t, s, "alice", c, 2025, 9, "3000")
	}

	got, err := NewInsightEngine(s).DeriveInsights(context.Background(), "alice", 2025, 9)
	if err != nil {
		t.Fatalf("DeriveInsights: %v", err)
	}
	count := 0
	for _, in := range got {
		if in.Type == core.InsightOverBudget {
			count++
			if in.Severity != core.SeverityDanger {
				t.Errorf("over budget severity = %s", in.Severity)
			}
		}
		if in.Type == core.InsightIncomePressure {
			t.Errorf("30%% of income must not raise pressure: %+v", in)
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one over_budget insight, got %d", count)
	}
}

func TestDeriveInsights_NoIncomeNoIncomeRules(t *testing.T) {
	s := memory.New()
	seedBudget(t, s, "alice", core.Rent, 2025, 9, "3000")

	got, err := NewInsightEngine(s).DeriveInsights(context.Background(), "alice", 2025, 9)
	if err != nil {
		t.Fatalf("DeriveInsights: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no insights without income, got %+v", got)
	}
}

func TestDeriveInsights_ZeroBudgetNeverWarns(t *testing.T) {
	s := memory.New()
	seedExpense(t, s, core.Expense{Owner: "alice", Amount: amt("50"), Category: core.Other, Date: day(2025, 9, 2)})
	seedBudget(t, s, "alice", core.Other, 2025, 9, "0")

	got, err := NewInsightEngine(s).DeriveInsights(context.Background(), "alice", 2025, 9)
	if err != nil {
		t.Fatalf("DeriveInsights: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no insights, got %+v", got)
	}
}

func TestDeriveInsights_NoPartialResults(t *testing.T) {
	mem := memory.New()
	seedExpense(t, mem, core.Expense{Owner: "alice", Amount: amt("50"), Category: core.Food, Date: day(2025, 8, 2)})
	seedExpense(t, mem, core.Expense{Owner: "alice", Amount: amt("50"), Category: core.Food, Date: day(2025, 9, 2)})
	seedBudget(t, mem, "alice", core.Food, 2025, 9, "10")

	got, err := NewInsightEngine(&failingStore{Store: mem, failOn: "SumExpensesByCategory"}).
		DeriveInsights(context.Background(), "alice", 2025, 9)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected errStoreDown, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no insights on failure, got %+v", got)
	}
}
