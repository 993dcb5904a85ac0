package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger/memory"

	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store down")

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func seedIncome(t *testing.T, s *memory.Store, owner core.Owner, y, m int, amount string) {
	t.Helper()
	if _, err := s.UpsertIncome(context.Background(), owner, day(y, m, 1), amt(amount)); err != nil {
		t.Fatalf("upsert income: %v", err)
	}
}

func seedExpense(t *testing.T, s *memory.Store, e core.Expense) core.Expense {
	t.Helper()
	out, err := s.CreateExpense(context.Background(), e)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return out
}

func seedBudget(t *testing.T, s *memory.Store, owner core.Owner, c core.Category, y, m int, amount string) {
	t.Helper()
	if _, err := s.UpsertBudget(context.Background(), owner, c, day(y, m, 1), amt(amount)); err != nil {
		t.Fatalf("upsert budget: %v", err)
	}
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu           sync.Mutex
	snapshots    []core.SavingsSnapshot
	materialized []int
	changed      []time.Time
	err          error
}

func (p *recordingPublisher) PublishSnapshotRefreshed(_ context.Context, snap core.SavingsSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snap)
	return p.err
}

func (p *recordingPublisher) PublishExpensesMaterialized(_ context.Context, _ core.Owner, _ time.Time, created int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.materialized = append(p.materialized, created)
	return p.err
}

func (p *recordingPublisher) PublishLedgerChanged(_ context.Context, _ core.Owner, month time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, month)
	return p.err
}

// failingStore wraps a memory store and fails the named operation.
type failingStore struct {
	*memory.Store
	failOn string
}

func (f *failingStore) fail(op string) error {
	if f.failOn == op {
		return errStoreDown
	}
	return nil
}

func (f *failingStore) GetSnapshot(ctx context.Context, owner core.Owner, month time.Time) (*core.SavingsSnapshot, error) {
	if err := f.fail("GetSnapshot"); err != nil {
		return nil, err
	}
	return f.Store.GetSnapshot(ctx, owner, month)
}

func (f *failingStore) UpsertSnapshot(ctx context.Context, owner core.Owner, month time.Time, amount decimal.Decimal) (core.SavingsSnapshot, error) {
	if err := f.fail("UpsertSnapshot"); err != nil {
		return core.SavingsSnapshot{}, err
	}
	return f.Store.UpsertSnapshot(ctx, owner, month, amount)
}

func (f *failingStore) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := f.fail("CreateExpense"); err != nil {
		return core.Expense{}, err
	}
	return f.Store.CreateExpense(ctx, e)
}

func (f *failingStore) ListBudgets(ctx context.Context, owner core.Owner, month time.Time) ([]core.Budget, error) {
	if err := f.fail("ListBudgets"); err != nil {
		return nil, err
	}
	return f.Store.ListBudgets(ctx, owner, month)
}

func (f *failingStore) SumExpensesByCategory(ctx context.Context, owner core.Owner, c core.Category, start, end time.Time) (decimal.Decimal, error) {
	if err := f.fail("SumExpensesByCategory"); err != nil {
		return decimal.Zero, err
	}
	return f.Store.SumExpensesByCategory(ctx, owner, c, start, end)
}
