package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs materialization shortly after midnight UTC every day.
const DefaultSchedule = "5 0 * * *"

// Scheduler triggers RecurringWorker.RunAll on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	worker *RecurringWorker
	ctx    context.Context
}

func NewScheduler(ctx context.Context, worker *RecurringWorker) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		worker: worker,
		ctx:    ctx,
	}
}

// Register adds the run-all job with a standard five-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("register recurring job %q: %w", spec, err)
	}
	slog.InfoContext(s.ctx, "Recurring job scheduled", "schedule", spec)
	return nil
}

func (s *Scheduler) run() {
	if _, err := s.worker.RunAll(s.ctx); err != nil {
		slog.ErrorContext(s.ctx, "Scheduled recurring run failed", "error", err)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.InfoContext(s.ctx, "Scheduler started")
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.InfoContext(s.ctx, "Scheduler stopped")
}
