package scheduler

import (
	"context"
	"log/slog"
	"time"

	"gramline/internal/config"
	"gramline/internal/logging"
	"gramline/internal/workflow"
)

// Trigger starts a posting run when the schedule fires.
type Trigger interface {
	Run(ctx context.Context, opts workflow.RunOptions) (*workflow.RunReport, error)
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithClock replaces the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithWaiter replaces the blocking wait (used in tests).
func WithWaiter(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) { s.wait = wait }
}

// Scheduler runs the workflow daily at a fixed local time.
type Scheduler struct {
	hour    int
	minute  int
	trigger Trigger
	logger  *slog.Logger
	now     func() time.Time
	wait    func(ctx context.Context, d time.Duration) error
}

// New builds a Scheduler from configuration.
func New(cfg *config.Config, trigger Trigger, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		hour:    cfg.Schedule.PostHour,
		minute:  cfg.Schedule.PostMinute,
		trigger: trigger,
		logger:  logging.NewComponentLogger(logger, "scheduler"),
		now:     time.Now,
		wait:    waitContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the first scheduled firing at or after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks, firing the workflow at each scheduled time until the context
// is cancelled. Run failures are logged and the loop continues; only context
// cancellation stops the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		logging.Int("hour", s.hour),
		logging.Int("minute", s.minute),
	)

	for {
		now := s.now()
		next := s.Next(now)
		s.logger.Info("next scheduled run", logging.Time("at", next))

		if err := s.wait(ctx, next.Sub(now)); err != nil {
			s.logger.Info("scheduler stopping", logging.Error(err))
			return err
		}

		report, err := s.trigger.Run(ctx, workflow.RunOptions{})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("scheduled run failed", logging.Error(err))
			continue
		}
		s.logger.Info("scheduled run finished",
			logging.String(logging.FieldRunID, report.RunID),
			logging.Int("published", report.Published()),
			logging.Int("skipped", report.Skipped()),
			logging.Int("failed", report.Failed()),
		)
	}
}

func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
