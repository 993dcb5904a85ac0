package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const (
	maxBodyBytes = 64 << 10
	dateLayout   = "2006-01-02"
)

// Amount accepts a JSON number or string and parses it with core.ParseAmount.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	d, err := core.ParseAmount(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// Request payloads. Pointer fields are optional; absent fields keep their
// current value on update.
type (
	incomeRequest struct {
		Amount *Amount `json:"amount"`
		Year   *int    `json:"year"`
		Month  *int    `json:"month"`
	}

	expenseRequest struct {
		Amount      *Amount `json:"amount"`
		Category    *string `json:"category"`
		Date        *string `json:"date"`
		Note        *string `json:"note"`
		IsRecurring *bool   `json:"is_recurring"`
		// 0 clears the recurrence day.
		RecurrenceDay *int `json:"recurrence_day"`
	}

	budgetRequest struct {
		Category *string `json:"category"`
		Amount   *Amount `json:"amount"`
		Year     *int    `json:"year"`
		Month    *int    `json:"month"`
	}
)

// decodeJSON reads a single JSON object from the body. Syntax problems are
// bad requests; a rejected amount surfaces as core.ErrInvalidAmount.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		return errors.Join(errBadRequest, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Join(errBadRequest, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s))
	}
	return t, nil
}

// apply copies the present fields onto e.
func (req expenseRequest) apply(e *core.Expense) error {
	if req.Amount != nil {
		e.Amount = req.Amount.Decimal
	}
	if req.Category != nil {
		c, err := core.ParseCategory(*req.Category)
		if err != nil {
			return err
		}
		e.Category = c
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return err
		}
		e.Date = d
	}
	if req.Note != nil {
		e.Note = sanitizeInput(*req.Note)
	}
	if req.IsRecurring != nil {
		e.IsRecurring = *req.IsRecurring
	}
	if req.RecurrenceDay != nil {
		if *req.RecurrenceDay == 0 {
			e.RecurrenceDay = nil
		} else {
			day := *req.RecurrenceDay
			e.RecurrenceDay = &day
		}
	}
	return nil
}

// newExpense builds an expense for create; amount, category and date are required.
func (req expenseRequest) newExpense(owner core.Owner) (core.Expense, error) {
	var missing []string
	if req.Amount == nil {
		missing = append(missing, "amount")
	}
	if req.Category == nil {
		missing = append(missing, "category")
	}
	if req.Date == nil {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return core.Expense{}, errors.Join(errBadRequest, fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")))
	}

	e := core.Expense{Owner: owner}
	if err := req.apply(&e); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (req budgetRequest) apply(b *core.Budget) error {
	if req.Category != nil {
		c, err := core.ParseCategory(*req.Category)
		if err != nil {
			return err
		}
		b.Category = c
	}
	if req.Amount != nil {
		b.Amount = req.Amount.Decimal
	}
	return nil
}
