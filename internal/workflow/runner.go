package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"gramline/internal/caption"
	"gramline/internal/config"
	"gramline/internal/history"
	"gramline/internal/library"
	"gramline/internal/logging"
	"gramline/internal/services"
	"gramline/internal/session"
)

// Publisher is the publishing surface the runner depends on.
type Publisher interface {
	Publish(ctx context.Context, sess *session.Session, imagePath, capt string) (string, error)
}

// SessionProvider establishes the Instagram session before any posting.
type SessionProvider interface {
	Establish(ctx context.Context) (*session.Session, error)
}

// Recorder appends published posts to the history ledger.
type Recorder interface {
	RecordPost(ctx context.Context, post history.Post) (int64, error)
}

// RunOptions controls one invocation of the runner.
type RunOptions struct {
	// Month restricts the run to a single month when non-zero.
	Month int
	// Force publishes even when the month already carries a marker.
	Force bool
}

// RunnerOption configures optional Runner behavior.
type RunnerOption func(*Runner)

// WithEnhancer attaches a caption enhancer. A nil enhancer leaves captions
// unchanged.
func WithEnhancer(enhancer caption.Enhancer) RunnerOption {
	return func(r *Runner) { r.enhancer = enhancer }
}

// WithRecorder attaches a history ledger.
func WithRecorder(recorder Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = recorder }
}

// WithSleeper replaces the inter-month delay function (used in tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) RunnerOption {
	return func(r *Runner) { r.sleep = sleep }
}

// WithRand pins the image selection source (used in tests).
func WithRand(rng *rand.Rand) RunnerOption {
	return func(r *Runner) { r.rng = rng }
}

// Runner executes the monthly posting pipeline sequentially.
type Runner struct {
	mu       sync.Mutex
	cfg      *config.Config
	lib      *library.Library
	provider SessionProvider
	pub      Publisher
	enhancer caption.Enhancer
	recorder Recorder
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	rng      *rand.Rand
	delay    time.Duration
}

// NewRunner wires a Runner from configuration and collaborators.
func NewRunner(cfg *config.Config, lib *library.Library, provider SessionProvider, pub Publisher, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:      cfg,
		lib:      lib,
		provider: provider,
		pub:      pub,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		sleep:    sleepContext,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		delay:    cfg.PostDelay(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run establishes a session and processes the selected months in ascending
// order, pausing between months. Session failure aborts the run before any
// month is touched. Concurrent calls are serialized: posting is strictly
// sequential, and the scheduler and dashboard trigger share one Runner.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &RunReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)

	sess, err := r.provider.Establish(ctx)
	if err != nil {
		return nil, fmt.Errorf("establish session: %w", err)
	}
	logger.Info("session established",
		logging.String("username", sess.Username),
		logging.String(logging.FieldStrategy, sess.Strategy),
	)

	months, err := r.selectMonths(opts)
	if err != nil {
		return nil, err
	}
	if len(months) == 0 {
		logger.Info("no monthly folders found; nothing to do")
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	for i, month := range months {
		monthCtx := services.WithMonth(ctx, month.Number)
		result := r.processMonth(monthCtx, sess, month, opts.Force)
		report.Results = append(report.Results, result)

		if i < len(months)-1 && r.delay > 0 {
			logger.Info("waiting before next month", logging.Duration("delay", r.delay))
			if err := r.sleep(ctx, r.delay); err != nil {
				report.FinishedAt = time.Now().UTC()
				return report, fmt.Errorf("run interrupted: %w", err)
			}
		}
	}

	report.FinishedAt = time.Now().UTC()
	logger.Info("run complete",
		logging.Int("published", report.Published()),
		logging.Int("skipped", report.Skipped()),
		logging.Int("failed", report.Failed()),
	)
	return report, nil
}

func (r *Runner) selectMonths(opts RunOptions) ([]library.Month, error) {
	if opts.Month != 0 {
		month, err := r.lib.Resolve(formatMonth(opts.Month))
		if err != nil {
			return nil, err
		}
		return []library.Month{month}, nil
	}
	return r.lib.Scan()
}

// processMonth runs the per-month pipeline. The marker is written only after
// a successful publish so a failed upload never poisons future runs.
func (r *Runner) processMonth(ctx context.Context, sess *session.Session, month library.Month, force bool) MonthResult {
	logger := logging.WithContext(ctx, r.logger)
	result := MonthResult{Month: month.Number}

	if month.Posted() && !force {
		logger.Info("month already posted; skipping",
			logging.String(logging.FieldEventType, "month_skipped"),
		)
		result.Outcome = OutcomeAlreadyPosted
		return result
	}

	captions, err := month.CaptionFiles()
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	images, err := month.ImageFiles()
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	if len(captions) == 0 || len(images) == 0 {
		logger.Warn("month lacks content; skipping",
			logging.String(logging.FieldEventType, "month_insufficient"),
			logging.Int("images", len(images)),
			logging.Int("captions", len(captions)),
		)
		result.Outcome = OutcomeInsufficientContent
		return result
	}

	imagePath := images[r.rng.Intn(len(images))]
	result.Image = filepath.Base(imagePath)

	text := caption.Assemble(logger, captions)
	text = caption.EnhanceOrFallback(ctx, logger, r.enhancer, text)
	result.Caption = text

	mediaID, err := r.pub.Publish(ctx, sess, imagePath, text)
	if err != nil {
		logger.Error("publish failed",
			logging.String(logging.FieldEventType, "month_failed"),
			logging.String("image", result.Image),
			logging.Error(err),
		)
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	result.MediaID = mediaID
	result.Outcome = OutcomePublished

	now := time.Now().UTC()
	if err := month.WriteMarker(now); err != nil {
		// The post is live; a missing marker only risks a duplicate next run.
		logger.Error("post published but marker write failed",
			logging.Error(err),
		)
		result.Err = err
	}

	r.record(ctx, logger, month, result, now)

	logger.Info("month published",
		logging.String(logging.FieldEventType, "month_published"),
		logging.String("image", result.Image),
		logging.String("media_id", mediaID),
	)
	return result
}

// record appends the post to the ledger. Ledger failures never affect the
// outcome; the marker file is the source of truth.
func (r *Runner) record(ctx context.Context, logger *slog.Logger, month library.Month, result MonthResult, at time.Time) {
	if r.recorder == nil {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	post := history.Post{
		Month:    month.Number,
		Image:    result.Image,
		Caption:  result.Caption,
		MediaID:  result.MediaID,
		RunID:    runID,
		PostedAt: at,
	}
	if _, err := r.recorder.RecordPost(ctx, post); err != nil {
		logger.Warn("failed to record post in history ledger", logging.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func formatMonth(month int) string {
	return strconv.Itoa(month)
}
