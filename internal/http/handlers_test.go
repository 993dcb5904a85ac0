package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/ledger/memory"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func TestExpenseLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/expenses", "alice",
		`{"amount":"120.5","category":"Food","date":"2025-03-02","note":" lunch\u0007 "}`)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[expenseResponse](t, rec)
	if created.Amount != "120.50" || created.Category != "food" || created.Note != "lunch" || created.RecurrenceDay != nil {
		t.Fatalf("unexpected expense %+v", created)
	}

	list := decode[[]expenseResponse](t, ts.do(t, http.MethodGet, "/api/expenses?year=2025&month=3", "alice", ""))
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}
	if list := decode[[]expenseResponse](t, ts.do(t, http.MethodGet, "/api/expenses?year=2025&month=2", "alice", "")); len(list) != 0 {
		t.Fatalf("february should be empty, got %+v", list)
	}

	target := fmt.Sprintf("/api/expenses/%d", created.ID)
	rec = ts.do(t, http.MethodPut, target, "alice", `{"amount":99,"date":"2025-04-01","is_recurring":true,"recurrence_day":31}`)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[expenseResponse](t, rec)
	if updated.Amount != "99.00" || updated.Category != "food" || updated.Note != "lunch" ||
		!updated.IsRecurring || updated.RecurrenceDay == nil || *updated.RecurrenceDay != 31 {
		t.Fatalf("partial update lost fields: %+v", updated)
	}

	rec = ts.do(t, http.MethodPut, target, "alice", `{"recurrence_day":0}`)
	if got := decode[expenseResponse](t, rec); got.RecurrenceDay != nil {
		t.Errorf("recurrence day should be cleared, got %v", *got.RecurrenceDay)
	}

	expectStatus(t, ts.do(t, http.MethodDelete, target, "bob", ""), http.StatusNotFound)
	expectStatus(t, ts.do(t, http.MethodPut, target, "bob", `{"amount":1}`), http.StatusNotFound)
	expectStatus(t, ts.do(t, http.MethodDelete, target, "alice", ""), http.StatusNoContent)
	expectStatus(t, ts.do(t, http.MethodDelete, target, "alice", ""), http.StatusNotFound)

	// create, update (march and april), clear, delete
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	want := []time.Time{march, march, april, april, april}
	got := ts.events.months()
	if len(got) != len(want) {
		t.Fatalf("ledger change events %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("event %d month %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpenseValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing fields", `{"note":"x"}`, http.StatusBadRequest},
		{"bad date", `{"amount":1,"category":"food","date":"03/02/2025"}`, http.StatusBadRequest},
		{"bad category", `{"amount":1,"category":"fun","date":"2025-03-02"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"amount":0,"category":"food","date":"2025-03-02"}`, http.StatusUnprocessableEntity},
		{"bad amount", `{"amount":"ten","category":"food","date":"2025-03-02"}`, http.StatusUnprocessableEntity},
		{"recurrence day", `{"amount":1,"category":"food","date":"2025-03-02","recurrence_day":32}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, ts.do(t, http.MethodPost, "/api/expenses", "alice", tt.body), tt.want)
		})
	}
	expectStatus(t, ts.do(t, http.MethodPut, "/api/expenses/abc", "alice", `{}`), http.StatusBadRequest)
}

func TestBudgets(t *testing.T) {
	ts := newTestServer(t, nil)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/budgets", "alice", `{"category":"rent","amount":6000}`), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/budgets", "alice", `{"category":"food","amount":"1000"}`), http.StatusOK)
	rec := ts.do(t, http.MethodPost, "/api/budgets", "alice", `{"category":"food","amount":"1200"}`)
	expectStatus(t, rec, http.StatusOK)
	food := decode[budgetResponse](t, rec)

	list := decode[[]budgetResponse](t, ts.do(t, http.MethodGet, "/api/budgets", "alice", ""))
	if len(list) != 2 || list[0].Category != "food" || list[0].Amount != "1200.00" || list[1].Category != "rent" {
		t.Fatalf("unexpected budgets %+v", list)
	}

	target := fmt.Sprintf("/api/budgets/%d", food.ID)
	rec = ts.do(t, http.MethodPut, target, "alice", `{"amount":0}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[budgetResponse](t, rec); got.Amount != "0.00" || got.Category != "food" {
		t.Errorf("unexpected update %+v", got)
	}
	expectStatus(t, ts.do(t, http.MethodPut, target, "alice", `{"category":"games"}`), http.StatusUnprocessableEntity)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/budgets", "alice", `{"amount":1}`), http.StatusUnprocessableEntity)

	expectStatus(t, ts.do(t, http.MethodDelete, target, "bob", ""), http.StatusNotFound)
	expectStatus(t, ts.do(t, http.MethodDelete, target, "alice", ""), http.StatusNoContent)
	if list := decode[[]budgetResponse](t, ts.do(t, http.MethodGet, "/api/budgets?year=2025&month=3", "alice", "")); len(list) != 1 {
		t.Errorf("expected one budget left, got %+v", list)
	}
}

func TestBudgetUpdateConflict(t *testing.T) {
	backends := map[string]func(t *testing.T) ledger.Store{
		"memory": func(*testing.T) ledger.Store { return memory.New() },
		"sqlite": func(t *testing.T) ledger.Store {
			repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { repo.Close() })
			return repo
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ts := newTestServer(t, func(d *Deps) {
				savings := services.NewSavingsEngine(store, nil)
				d.Store = store
				d.Savings = savings
				d.Recurring = services.NewRecurringMaterializer(store, nil)
				d.Dashboard = services.NewDashboardAggregator(store, savings)
				d.Insights = services.NewInsightEngine(store)
			})

			expectStatus(t, ts.do(t, http.MethodPost, "/api/budgets", "alice", `{"category":"food","amount":1000}`), http.StatusOK)
			rec := ts.do(t, http.MethodPost, "/api/budgets", "alice", `{"category":"travel","amount":500}`)
			expectStatus(t, rec, http.StatusOK)
			travel := decode[budgetResponse](t, rec)
			rec = ts.do(t, http.MethodPost, "/api/budgets", "alice", `{"category":"food","amount":300,"month":4}`)
			expectStatus(t, rec, http.StatusOK)
			aprilFood := decode[budgetResponse](t, rec)

			rec = ts.do(t, http.MethodPut, fmt.Sprintf("/api/budgets/%d", travel.ID), "alice", `{"category":"food"}`)
			expectStatus(t, rec, http.StatusConflict)
			if got := decode[errorResponse](t, rec); got.Error == "internal error" {
				t.Errorf("conflict reported as internal error")
			}
			expectStatus(t, ts.do(t, http.MethodPut, fmt.Sprintf("/api/budgets/%d", aprilFood.ID), "alice", `{"month":3}`), http.StatusConflict)

			list := decode[[]budgetResponse](t, ts.do(t, http.MethodGet, "/api/budgets?year=2025&month=3", "alice", ""))
			seen := map[string]int{}
			for _, b := range list {
				seen[b.Category]++
			}
			if len(list) != 2 || seen["food"] != 1 || seen["travel"] != 1 {
				t.Fatalf("expected one budget per category, got %+v", list)
			}

			dash := decode[dashboardResponse](t, ts.do(t, http.MethodGet, "/api/dashboard?year=2025&month=3", "alice", ""))
			if dash.BudgetSummary.TotalBudget != "1500.00" || dash.CategoryBudgets["food"].Budget != "1000.00" {
				t.Errorf("dashboard disagrees with budgets: %+v", dash)
			}

			// Moving to a free slot still works.
			rec = ts.do(t, http.MethodPut, fmt.Sprintf("/api/budgets/%d", travel.ID), "alice", `{"category":"shopping"}`)
			expectStatus(t, rec, http.StatusOK)
			if got := decode[budgetResponse](t, rec); got.Category != "shopping" || got.Amount != "500.00" {
				t.Errorf("unexpected update %+v", got)
			}
		})
	}
}
