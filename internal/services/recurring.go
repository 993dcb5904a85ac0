package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/period"
)

// RecurringStore is the slice of the ledger the materializer needs.
type RecurringStore interface {
	ledger.ExpenseReader
	ledger.ExpenseWriter
}

// RecurringMaterializer turns recurring expense templates into dated expenses
// for the current month. Templates replicate themselves on demand rather than
// on a schedule, so every call is safe to repeat: an instance is only created
// when no expense with the same category, amount, date and note exists.
type RecurringMaterializer struct {
	store  RecurringStore
	events EventPublisher
}

func NewRecurringMaterializer(store RecurringStore, events EventPublisher) *RecurringMaterializer {
	return &RecurringMaterializer{store: store, events: events}
}

// MaterializeForCurrentMonth creates this month's instance of every recurring
// template of owner and returns how many were created. today selects the month.
func (m *RecurringMaterializer) MaterializeForCurrentMonth(ctx context.Context, owner core.Owner, today time.Time) (int, error) {
	year, month := period.Of(today)

	templates, err := m.store.ListRecurringTemplates(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentRecurring)

	created := 0
	for _, tmpl := range templates {
		day := period.ClampDay(year, month, tmpl.RecurrenceDayOrDefault())
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

		exists, err := m.store.ExpenseExists(ctx, owner, tmpl.Category, tmpl.Amount, date, tmpl.Note)
		if err != nil {
			return created, fmt.Errorf("check existing expense: %w", err)
		}
		if exists {
			continue
		}

		instance := core.Expense{
			Owner:         owner,
			Amount:        tmpl.Amount,
			Category:      tmpl.Category,
			Date:          date,
			Note:          tmpl.Note,
			IsRecurring:   true,
			RecurrenceDay: tmpl.RecurrenceDay,
		}
		if _, err := m.store.CreateExpense(ctx, instance); err != nil {
			return created, fmt.Errorf("create recurring instance: %w", err)
		}
		created++

		logger.InfoContext(ctx, "Created expense from recurring template",
			log.FieldOwner, owner,
			"template_id", tmpl.ID,
			"category", tmpl.Category,
			"amount", tmpl.Amount.String(),
			"date", date.Format("2006-01-02"))
	}

	fields := log.NewFields().WithOperation(log.OpMaterialize).WithPeriod(owner.String(), year, month)
	fields["created"] = created
	fields["templates"] = len(templates)
	logger.InfoContext(ctx, "Recurring expense materialization complete", fields.ToSlice()...)

	if created > 0 {
		publish(ctx, m.events, "expenses.materialized", func(p EventPublisher) error {
			return p.PublishExpensesMaterialized(ctx, owner, period.MonthStart(year, month), created)
		})
	}

	return created, nil
}
