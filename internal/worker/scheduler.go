package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ReminderSweeper runs one reminder pass.
type ReminderSweeper interface {
	SendDueReminders(ctx context.Context, now time.Time) (*service.ReminderResult, error)
}

// ReminderScheduler triggers the reminder sweep on a cron schedule. A sweep
// that fails as a whole (storage errors) is retried with backoff; individual
// email failures are already counted by the sweep itself.
type ReminderScheduler struct {
	sweeper  ReminderSweeper
	schedule string
	retry    RetryPolicy
	cron     *cron.Cron
	logger   *zerolog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func NewReminderScheduler(sweeper ReminderSweeper, schedule string, loc *time.Location, retry RetryPolicy, logger *zerolog.Logger) (*ReminderScheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	if retry.MaxRetries == 0 {
		retry = DefaultRetryPolicy
	}
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{logger: logger}
	return &ReminderScheduler{
		sweeper:  sweeper,
		schedule: schedule,
		retry:    retry,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Start registers the job and starts the cron loop. Stop or cancelling ctx
// aborts a sweep in progress between orders.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(s.ctx); err != nil {
			s.logger.Error().Err(err).Msg("scheduled reminder sweep failed")
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("reminder scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to return.
func (s *ReminderScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("reminder scheduler stopped")
}

// RunOnce executes a sweep, retrying whole-sweep failures per the policy.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (*service.ReminderResult, error) {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxRetries; attempt++ {
		res, err := s.sweeper.SendDueReminders(ctx, s.now())
		if err == nil {
			return res, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		lastErr = err

		if attempt == s.retry.MaxRetries {
			break
		}
		s.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", s.retry.NextDelay(attempt)).Msg("reminder sweep failed, retrying")
		if err := s.retry.wait(ctx, attempt); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("reminder sweep failed after %d attempts: %w", s.retry.MaxRetries, lastErr)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
