// Package worker runs recurring expense materialization outside the request
// path: on a cron schedule, on demand over AMQP, and from the CLI.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/period"

	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

type Materializer interface {
	MaterializeForCurrentMonth(ctx context.Context, owner core.Owner, today time.Time) (int, error)
}

type SnapshotRefresher interface {
	RefreshSnapshot(ctx context.Context, owner core.Owner, year, month int) (core.SavingsSnapshot, error)
}

// RecurringWorker materializes recurring expenses and refreshes the current
// month's savings snapshot, one owner at a time or for every owner.
type RecurringWorker struct {
	owners       ledger.OwnerLister
	materializer Materializer
	savings      SnapshotRefresher
	concurrency  int
	now          func() time.Time
}

func NewRecurringWorker(owners ledger.OwnerLister, materializer Materializer, savings SnapshotRefresher, concurrency int) *RecurringWorker {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &RecurringWorker{
		owners:       owners,
		materializer: materializer,
		savings:      savings,
		concurrency:  concurrency,
		now:          time.Now,
	}
}

// RunResult summarizes one pass over all owners.
type RunResult struct {
	Owners  int
	Created int
	Failed  int
}

// ProcessOwner materializes owner's templates for the current month and then
// refreshes that month's snapshot so it reflects the new expenses.
func (w *RecurringWorker) ProcessOwner(ctx context.Context, owner core.Owner) (int, error) {
	today := w.now().UTC()
	created, err := w.materializer.MaterializeForCurrentMonth(ctx, owner, today)
	if err != nil {
		return created, fmt.Errorf("materialize for %s: %w", owner, err)
	}

	year, month := period.Of(today)
	if _, err := w.savings.RefreshSnapshot(ctx, owner, year, month); err != nil {
		return created, fmt.Errorf("refresh snapshot for %s: %w", owner, err)
	}
	return created, nil
}

// RunAll processes every owner with recurring templates. A failing owner is
// logged and counted; the others still run. The returned error joins all
// per-owner failures.
func (w *RecurringWorker) RunAll(ctx context.Context) (RunResult, error) {
	owners, err := w.owners.ListOwners(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("list owners: %w", err)
	}

	start := time.Now()
	slog.InfoContext(ctx, "Processing recurring expenses",
		"owners", len(owners),
		"concurrency", w.concurrency)

	var (
		created atomic.Int64
		failed  atomic.Int64
		errs    = make([]error, len(owners))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, owner := range owners {
		i, owner := i, owner
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := w.ProcessOwner(gctx, owner)
			created.Add(int64(n))
			if err != nil {
				failed.Add(1)
				errs[i] = err
				slog.ErrorContext(gctx, "Failed to process owner", "owner", owner, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunResult{}, err
	}

	result := RunResult{
		Owners:  len(owners),
		Created: int(created.Load()),
		Failed:  int(failed.Load()),
	}

	slog.InfoContext(ctx, "Recurring expense processing complete",
		"owners", result.Owners,
		"created", result.Created,
		"failed", result.Failed,
		"duration", time.Since(start))

	return result, errors.Join(errs...)
}

// HandleMessage executes one AMQP command. Unknown kinds are acknowledged and dropped.
func (w *RecurringWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerMessage) error {
	owner := core.Owner(msg.Owner)

	switch msg.Kind {
	case amqp.KindMaterializeRequest:
		created, err := w.ProcessOwner(ctx, owner)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "Materialize request handled", "owner", owner, "created", created)
		return nil

	case amqp.KindLedgerChanged:
		year, month := msg.Year, msg.Month
		if month == 0 {
			year, month = period.Of(w.now().UTC())
		}
		if _, err := w.savings.RefreshSnapshot(ctx, owner, year, month); err != nil {
			return fmt.Errorf("refresh snapshot for %s: %w", owner, err)
		}
		return nil

	default:
		slog.WarnContext(ctx, "Ignoring unexpected message kind", "kind", msg.Kind, "owner", owner)
		return nil
	}
}
