package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
)

// Response bodies. Amounts are strings with two decimals.
type (
	incomeResponse struct {
		ID     int64  `json:"id"`
		Month  string `json:"month"`
		Amount string `json:"amount"`
	}

	incomeEnvelope struct {
		Year   int             `json:"year"`
		Month  int             `json:"month"`
		Income *incomeResponse `json:"income"`
	}

	expenseResponse struct {
		ID            int64  `json:"id"`
		Amount        string `json:"amount"`
		Category      string `json:"category"`
		Date          string `json:"date"`
		Note          string `json:"note"`
		IsRecurring   bool   `json:"is_recurring"`
		RecurrenceDay *int   `json:"recurrence_day"`
		CreatedAt     string `json:"created_at"`
	}

	budgetResponse struct {
		ID       int64  `json:"id"`
		Category string `json:"category"`
		Month    string `json:"month"`
		Amount   string `json:"amount"`
	}

	savingsResponse struct {
		Year    int    `json:"year"`
		Month   int    `json:"month"`
		Savings string `json:"savings"`
	}

	budgetUsageResponse struct {
		Budget     string `json:"budget"`
		Spent      string `json:"spent"`
		Percentage string `json:"percentage"`
	}

	budgetSummaryResponse struct {
		TotalBudget    string `json:"total_budget"`
		Income         string `json:"income"`
		Difference     string `json:"difference"`
		IsOverBudgeted bool   `json:"is_over_budgeted"`
	}

	dashboardResponse struct {
		Year              int                            `json:"year"`
		Month             int                            `json:"month"`
		Income            string                         `json:"income"`
		TotalSpent        string                         `json:"total_spent"`
		MonthlyBalance    string                         `json:"monthly_balance"`
		SavingsBalance    string                         `json:"savings_balance"`
		CategoryBreakdown map[string]string              `json:"category_breakdown"`
		CategoryBudgets   map[string]budgetUsageResponse `json:"category_budgets"`
		BudgetSummary     budgetSummaryResponse          `json:"budget_summary"`
	}

	insightResponse struct {
		Type     string `json:"type"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
	}

	generateResponse struct {
		Created int `json:"created"`
	}

	errorResponse struct {
		Error     string `json:"error"`
		RequestID string `json:"request_id,omitempty"`
	}
)

func toIncome(i core.Income) *incomeResponse {
	return &incomeResponse{ID: i.ID, Month: i.Month.Format(dateLayout), Amount: core.FormatAmount(i.Amount)}
}

func toExpense(e core.Expense) expenseResponse {
	resp := expenseResponse{
		ID:            e.ID,
		Amount:        core.FormatAmount(e.Amount),
		Category:      string(e.Category),
		Date:          e.Date.Format(dateLayout),
		Note:          e.Note,
		IsRecurring:   e.IsRecurring,
		RecurrenceDay: e.RecurrenceDay,
	}
	if !e.CreatedAt.IsZero() {
		resp.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toExpenses(es []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toExpense(e))
	}
	return out
}

func toBudget(b core.Budget) budgetResponse {
	return budgetResponse{ID: b.ID, Category: string(b.Category), Month: b.Month.Format(dateLayout), Amount: core.FormatAmount(b.Amount)}
}

func toBudgets(bs []core.Budget) []budgetResponse {
	out := make([]budgetResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBudget(b))
	}
	return out
}

func toDashboard(d core.DashboardSummary) dashboardResponse {
	resp := dashboardResponse{
		Year:              d.Year,
		Month:             d.Month,
		Income:            core.FormatAmount(d.Income),
		TotalSpent:        core.FormatAmount(d.TotalSpent),
		MonthlyBalance:    core.FormatAmount(d.MonthlyBalance),
		SavingsBalance:    core.FormatAmount(d.SavingsBalance),
		CategoryBreakdown: make(map[string]string, len(d.CategoryBreakdown)),
		CategoryBudgets:   make(map[string]budgetUsageResponse, len(d.CategoryBudgets)),
		BudgetSummary: budgetSummaryResponse{
			TotalBudget:    core.FormatAmount(d.BudgetSummary.TotalBudget),
			Income:         core.FormatAmount(d.BudgetSummary.Income),
			Difference:     core.FormatAmount(d.BudgetSummary.Difference),
			IsOverBudgeted: d.BudgetSummary.IsOverBudgeted,
		},
	}
	for c, v := range d.CategoryBreakdown {
		resp.CategoryBreakdown[string(c)] = core.FormatAmount(v)
	}
	for c, u := range d.CategoryBudgets {
		resp.CategoryBudgets[string(c)] = budgetUsageResponse{
			Budget:     core.FormatAmount(u.Budget),
			Spent:      core.FormatAmount(u.Spent),
			Percentage: u.Percentage.StringFixed(2),
		}
	}
	return resp
}

func toInsights(in []core.Insight) []insightResponse {
	out := make([]insightResponse, 0, len(in))
	for _, i := range in {
		out = append(out, insightResponse{Type: string(i.Type), Severity: string(i.Severity), Message: i.Message})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: trace.RequestID(r)})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidCategory,
		core.ErrInvalidRecurrenceDay,
		core.ErrEmptyOwner,
		core.ErrZeroDate,
		core.ErrNoteTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorStatus maps err to its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	case isValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Internal errors are logged
// and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errorStatus(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		fields := log.NewFields().
			WithOperation(op).
			WithOwner(ownerFrom(r).String()).
			WithClientIP(r.RemoteAddr).
			WithError(err)
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		message = "internal error"
	case http.StatusNotFound:
		message = "not found"
	case http.StatusConflict:
		message = "a budget already exists for this category and month"
	case http.StatusBadRequest:
		message = badRequestMessage(err)
	}
	writeError(w, r, status, message)
}

// badRequestMessage strips the errBadRequest marker from a joined error.
func badRequestMessage(err error) string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if e != errBadRequest {
				return e.Error()
			}
		}
	}
	return err.Error()
}
