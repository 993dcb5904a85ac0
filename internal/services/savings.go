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

// SavingsStore is the slice of the ledger the savings engine needs.
type SavingsStore interface {
	ledger.IncomeReader
	ledger.ExpenseReader
	ledger.SnapshotStore
}

// SavingsEngine derives the running savings balance. Each month's balance is
// the previous month's snapshot plus the month's income minus its expenses.
type SavingsEngine struct {
	store  SavingsStore
	events EventPublisher
}

func NewSavingsEngine(store SavingsStore, events EventPublisher) *SavingsEngine {
	return &SavingsEngine{store: store, events: events}
}

// ComputeSavings returns the savings balance of (year, month) without writing anything.
//
// Only the snapshot of the immediately preceding month is consulted. When it
// is missing the previous balance is zero, even if older snapshots exist.
func (s *SavingsEngine) ComputeSavings(ctx context.Context, owner core.Owner, year, month int) (decimal.Decimal, error) {
	prevYear, prevMonth := period.PreviousMonth(year, month)
	start, end := period.MonthRange(year, month)

	previous := decimal.Zero
	snap, err := s.store.GetSnapshot(ctx, owner, period.MonthStart(prevYear, prevMonth))
	if err != nil {
		return decimal.Zero, fmt.Errorf("get previous snapshot: %w", err)
	}
	if snap != nil {
		previous = snap.SavingsBalance
	}

	income := decimal.Zero
	inc, err := s.store.GetIncome(ctx, owner, start)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get income: %w", err)
	}
	if inc != nil {
		income = inc.Amount
	}

	spent, err := s.store.SumExpenses(ctx, owner, start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}

	return previous.Add(income).Sub(spent), nil
}

// RefreshSnapshot recomputes the balance of (year, month) and stores it,
// replacing any earlier snapshot of that month.
func (s *SavingsEngine) RefreshSnapshot(ctx context.Context, owner core.Owner, year, month int) (core.SavingsSnapshot, error) {
	balance, err := s.ComputeSavings(ctx, owner, year, month)
	if err != nil {
		return core.SavingsSnapshot{}, err
	}

	snap, err := s.store.UpsertSnapshot(ctx, owner, period.MonthStart(year, month), balance)
	if err != nil {
		return core.SavingsSnapshot{}, fmt.Errorf("upsert snapshot: %w", err)
	}

	fields := log.NewFields().WithOperation(log.OpRefresh).WithPeriod(owner.String(), year, month)
	fields[log.FieldAmount] = balance.String()
	log.FromContext(ctx).WithComponent(log.ComponentSavings).DebugContext(ctx, "Savings snapshot refreshed", fields.ToSlice()...)

	publish(ctx, s.events, "snapshot.refreshed", func(p EventPublisher) error {
		return p.PublishSnapshotRefreshed(ctx, snap)
	})

	return snap, nil
}
