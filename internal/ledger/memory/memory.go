// Package memory is an in-process ledger backend. It keeps every record in
// maps guarded by one mutex and is used for tests and the "memory" data backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	"github.com/shopspring/decimal"
)

var _ ledger.Store = (*Store)(nil)

type ownerMonth struct {
	owner core.Owner
	month time.Time
}

type Store struct {
	mu        sync.Mutex
	nextID    int64
	incomes   map[ownerMonth]core.Income
	expenses  map[int64]core.Expense
	budgets   map[int64]core.Budget
	snapshots map[ownerMonth]core.SavingsSnapshot
	now       func() time.Time
}

func New() *Store {
	return &Store{
		incomes:   map[ownerMonth]core.Income{},
		expenses:  map[int64]core.Expense{},
		budgets:   map[int64]core.Budget{},
		snapshots: map[ownerMonth]core.SavingsSnapshot{},
		now:       time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func key(owner core.Owner, month time.Time) ownerMonth {
	return ownerMonth{owner: owner, month: month.UTC()}
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func (s *Store) GetIncome(_ context.Context, owner core.Owner, month time.Time) (*core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.incomes[key(owner, month)]
	if !ok {
		return nil, nil
	}
	return &inc, nil
}

func (s *Store) UpsertIncome(_ context.Context, owner core.Owner, month time.Time, amount decimal.Decimal) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(owner, month)
	inc, ok := s.incomes[k]
	if !ok {
		inc = core.Income{ID: s.id(), Owner: owner, Month: k.month}
	}
	inc.Amount = amount
	s.incomes[k] = inc
	return inc, nil
}

func (s *Store) SumExpenses(_ context.Context, owner core.Owner, start, end time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, e := range s.expenses {
		if e.Owner == owner && inRange(e.Date, start, end) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *Store) SumExpensesByCategory(_ context.Context, owner core.Owner, category core.Category, start, end time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, e := range s.expenses {
		if e.Owner == owner && e.Category == category && inRange(e.Date, start, end) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *Store) ListExpenses(_ context.Context, owner core.Owner, start, end time.Time) ([]core.Expense, error) {
	return s.filterExpenses(func(e core.Expense) bool {
		return e.Owner == owner && inRange(e.Date, start, end)
	}), nil
}

func (s *Store) ListRecurringTemplates(_ context.Context, owner core.Owner) ([]core.Expense, error) {
	return s.filterExpenses(func(e core.Expense) bool {
		return e.Owner == owner && e.IsRecurring
	}), nil
}

// filterExpenses returns matching expenses ordered by date then ID, newest first.
func (s *Store) filterExpenses(match func(core.Expense) bool) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) ExpenseExists(_ context.Context, owner core.Owner, category core.Category, amount decimal.Decimal, date time.Time, note string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.Owner == owner && e.Category == category && e.Amount.Equal(amount) &&
			e.Date.Equal(date) && e.Note == note {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	e.Date = e.Date.UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, owner core.Owner, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.Owner != owner {
		return core.Expense{}, ledger.ErrNotFound
	}
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[e.ID]
	if !ok || cur.Owner != e.Owner {
		return core.Expense{}, ledger.ErrNotFound
	}
	e.CreatedAt = cur.CreatedAt
	e.Date = e.Date.UTC()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, owner core.Owner, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.Owner != owner {
		return ledger.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, owner core.Owner, month time.Time) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Owner == owner && b.Month.Equal(month) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category.Rank() < out[j].Category.Rank()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, owner core.Owner, category core.Category, month time.Time, amount decimal.Decimal) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.budgets {
		if b.Owner == owner && b.Category == category && b.Month.Equal(month) {
			b.Amount = amount
			s.budgets[id] = b
			return b, nil
		}
	}
	b := core.Budget{ID: s.id(), Owner: owner, Category: category, Month: month.UTC(), Amount: amount}
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, owner core.Owner, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.Owner != owner {
		return core.Budget{}, ledger.ErrNotFound
	}
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.budgets[b.ID]
	if !ok || cur.Owner != b.Owner {
		return core.Budget{}, ledger.ErrNotFound
	}
	for id, other := range s.budgets {
		if id != b.ID && other.Owner == b.Owner && other.Category == b.Category && other.Month.Equal(b.Month) {
			return core.Budget{}, ledger.ErrConflict
		}
	}
	b.Month = b.Month.UTC()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, owner core.Owner, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.Owner != owner {
		return ledger.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) GetSnapshot(_ context.Context, owner core.Owner, month time.Time) (*core.SavingsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[key(owner, month)]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *Store) UpsertSnapshot(_ context.Context, owner core.Owner, month time.Time, amount decimal.Decimal) (core.SavingsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(owner, month)
	snap, ok := s.snapshots[k]
	if !ok {
		snap = core.SavingsSnapshot{Owner: owner, Month: k.month, CreatedAt: s.now().UTC()}
	}
	snap.SavingsBalance = amount
	s.snapshots[k] = snap
	return snap, nil
}

func (s *Store) ListSnapshots(_ context.Context, owner core.Owner) ([]core.SavingsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.SavingsSnapshot
	for k, snap := range s.snapshots {
		if k.owner == owner {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (s *Store) ListOwners(_ context.Context) ([]core.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[core.Owner]struct{}{}
	var out []core.Owner
	for _, e := range s.expenses {
		if !e.IsRecurring {
			continue
		}
		if _, ok := seen[e.Owner]; ok {
			continue
		}
		seen[e.Owner] = struct{}{}
		out = append(out, e.Owner)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
