package http

import (
	"fmt"
	"net/http"
	"testing"
)

func seedMarch(t *testing.T, ts *testServer) {
	t.Helper()
	expectStatus(t, ts.do(t, http.MethodPost, "/api/income", "alice", `{"amount":10000}`), http.StatusOK)
	for _, body := range []string{
		`{"category":"rent","amount":1000}`,
		`{"category":"food","amount":500}`,
	} {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/budgets", "alice", body), http.StatusOK)
	}
	// Recurring template from February, due on the 5th.
	expectStatus(t, ts.do(t, http.MethodPost, "/api/expenses", "alice",
		`{"amount":950,"category":"rent","date":"2025-02-05","note":"flat","is_recurring":true,"recurrence_day":5}`),
		http.StatusCreated)
}

func TestDashboardMaterializesCurrentMonth(t *testing.T) {
	ts := newTestServer(t, nil)
	seedMarch(t, ts)

	rec := ts.do(t, http.MethodGet, "/api/dashboard", "alice", "")
	expectStatus(t, rec, http.StatusOK)
	d := decode[dashboardResponse](t, rec)

	if d.Year != 2025 || d.Month != 3 || d.Income != "10000.00" || d.TotalSpent != "950.00" || d.MonthlyBalance != "9050.00" {
		t.Fatalf("unexpected totals %+v", d)
	}
	if d.CategoryBreakdown["rent"] != "950.00" || len(d.CategoryBreakdown) != 1 {
		t.Errorf("unexpected breakdown %v", d.CategoryBreakdown)
	}
	if u := d.CategoryBudgets["rent"]; u.Percentage != "95.00" || u.Spent != "950.00" {
		t.Errorf("unexpected rent usage %+v", u)
	}
	if u := d.CategoryBudgets["food"]; u.Percentage != "0.00" || u.Spent != "0.00" {
		t.Errorf("unexpected food usage %+v", u)
	}
	if d.BudgetSummary.TotalBudget != "1500.00" || d.BudgetSummary.Difference != "8500.00" || d.BudgetSummary.IsOverBudgeted {
		t.Errorf("unexpected budget summary %+v", d.BudgetSummary)
	}

	// No February snapshot exists yet, so the chain starts at zero.
	if d.SavingsBalance != "9050.00" {
		t.Errorf("savings balance = %s, want 9050.00", d.SavingsBalance)
	}

	// Second load is served from the mark and must not duplicate.
	ts.do(t, http.MethodGet, "/api/dashboard", "alice", "")
	march := decode[[]expenseResponse](t, ts.do(t, http.MethodGet, "/api/expenses", "alice", ""))
	if len(march) != 1 || march[0].Date != "2025-03-05" || !march[0].IsRecurring {
		t.Fatalf("expected one materialized instance, got %+v", march)
	}

	// Deleting the instance drops the mark so the next load recreates it.
	expectStatus(t, ts.do(t, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", march[0].ID), "alice", ""), http.StatusNoContent)
	ts.do(t, http.MethodGet, "/api/dashboard", "alice", "")
	if again := decode[[]expenseResponse](t, ts.do(t, http.MethodGet, "/api/expenses", "alice", "")); len(again) != 1 {
		t.Fatalf("expected rematerialized instance, got %+v", again)
	}
}

func TestDashboardPastMonthDoesNotMaterialize(t *testing.T) {
	ts := newTestServer(t, nil)
	seedMarch(t, ts)

	d := decode[dashboardResponse](t, ts.do(t, http.MethodGet, "/api/dashboard?year=2025&month=2", "alice", ""))
	if d.TotalSpent != "950.00" || d.SavingsBalance != "-950.00" {
		t.Errorf("unexpected february dashboard %+v", d)
	}
	if march := decode[[]expenseResponse](t, ts.do(t, http.MethodGet, "/api/expenses", "alice", "")); len(march) != 0 {
		t.Errorf("past month dashboard must not materialize, got %+v", march)
	}
}

func TestGenerateRecurring(t *testing.T) {
	ts := newTestServer(t, nil)
	seedMarch(t, ts)

	rec := ts.do(t, http.MethodPost, "/api/recurring/generate", "alice", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[generateResponse](t, rec); got.Created != 1 {
		t.Fatalf("created = %d, want 1", got.Created)
	}
	if got := decode[generateResponse](t, ts.do(t, http.MethodPost, "/api/recurring/generate", "alice", "")); got.Created != 0 {
		t.Fatalf("second run created %d", got.Created)
	}
}

func TestSavingsAndInsights(t *testing.T) {
	ts := newTestServer(t, nil)
	seedMarch(t, ts)
	ts.do(t, http.MethodPost, "/api/recurring/generate", "alice", "")

	// Savings is a pure read: no snapshot exists for February yet.
	s := decode[savingsResponse](t, ts.do(t, http.MethodGet, "/api/savings", "alice", ""))
	if s.Savings != "9050.00" || s.Year != 2025 || s.Month != 3 {
		t.Errorf("unexpected savings %+v", s)
	}

	rec := ts.do(t, http.MethodGet, "/api/insights", "alice", "")
	expectStatus(t, rec, http.StatusOK)
	insights := decode[[]insightResponse](t, rec)

	want := []insightResponse{
		{Type: "budget_warning", Severity: "danger", Message: "Rent budget is at 95.0% usage"},
	}
	if len(insights) < 2 || insights[0].Type != "month_comparison" {
		t.Fatalf("unexpected insights %+v", insights)
	}
	if insights[0].Message != "You spent ₹0.00 (0.0%) less than last month" {
		t.Errorf("unexpected comparison %q", insights[0].Message)
	}
	if insights[1] != want[0] {
		t.Errorf("insight[1] = %+v, want %+v", insights[1], want[0])
	}

	empty := decode[[]insightResponse](t, ts.do(t, http.MethodGet, "/api/insights?year=2024&month=6", "alice", ""))
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty list, got %+v", empty)
	}
}
