package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// EventPublisher announces engine side effects to other processes.
// Publishing is best effort: failures are logged and never fail the caller.
type EventPublisher interface {
	PublishSnapshotRefreshed(ctx context.Context, snap core.SavingsSnapshot) error
	PublishExpensesMaterialized(ctx context.Context, owner core.Owner, month time.Time, created int) error
	PublishLedgerChanged(ctx context.Context, owner core.Owner, month time.Time) error
}

func publish(ctx context.Context, p EventPublisher, event string, fn func(EventPublisher) error) {
	if p == nil {
		return
	}
	if err := fn(p); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentAMQP).ErrorContext(ctx, "Failed to publish event",
			log.NewFields().WithOperation("publish "+event).WithError(err).ToSlice()...)
	}
}
