package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/quizzerhq/quizzer-api/internal/observability"
	"github.com/quizzerhq/quizzer-api/internal/repository"
	"github.com/quizzerhq/quizzer-api/internal/service"
)

// Config controls how the grading scheduler selects its work.
type Config struct {
	// Schedule is a cron spec, e.g. "@every 2m".
	Schedule string
	// Lookback bounds how far back finalized submissions are considered.
	Lookback time.Duration
	// BatchSize caps how many submissions one run may grade.
	BatchSize int
}

// GradingScheduler drives the recurring grading job. Runs never overlap: if
// a run is still executing when the next trigger fires, that trigger is
// skipped outright, not queued. Submissions a run does not resolve simply
// stay eligible for the next one.
type GradingScheduler struct {
	cron        *cron.Cron
	submissions repository.SubmissionRepository
	grading     service.GradingService
	cfg         Config
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingScheduler constructs the scheduler. Defaults: every 2 minutes,
// 24 hour lookback, batches of 50.
func NewGradingScheduler(submissions repository.SubmissionRepository, grading service.GradingService, cfg Config, logger zerolog.Logger) *GradingScheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 2m"
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	componentLogger := logger.With().Str("component", "grading_scheduler").Logger()

	return &GradingScheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{componentLogger}),
			cron.SkipIfStillRunning(cronLogger{componentLogger}),
		)),
		submissions: submissions,
		grading:     grading,
		cfg:         cfg,
		logger:      componentLogger,
		now:         time.Now,
	}
}

// Start registers the job and begins triggering it.
func (s *GradingScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("grading run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("register grading job: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Dur("lookback", s.cfg.Lookback).
		Int("batch_size", s.cfg.BatchSize).
		Msg("grading scheduler started")

	return nil
}

// Stop halts triggering and waits for an in-flight run to finish, or for ctx.
func (s *GradingScheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce executes a single grading pass: select the oldest ungraded
// submissions inside the lookback window, grade them in order, and report.
// It is the body the cron trigger invokes, exposed for tests and manual kicks.
func (s *GradingScheduler) RunOnce(ctx context.Context) (service.BatchReport, error) {
	start := s.now()
	since := start.Add(-s.cfg.Lookback)

	batch, err := s.submissions.ListUngraded(ctx, since, s.cfg.BatchSize)
	if err != nil {
		observability.GradingRuns().WithLabelValues("error").Inc()
		return service.BatchReport{}, fmt.Errorf("select ungraded submissions: %w", err)
	}

	observability.GradingBatchSize().Observe(float64(len(batch)))
	if len(batch) == 0 {
		observability.GradingRuns().WithLabelValues("empty").Inc()
		s.logger.Debug().Msg("no submissions eligible for grading")
		return service.BatchReport{}, nil
	}

	s.logger.Info().Int("batch", len(batch)).Msg("grading run starting")

	report := s.grading.GradeBatch(ctx, batch)

	duration := time.Since(start)
	observability.GradingRunDuration().Observe(duration.Seconds())
	observability.GradingRuns().WithLabelValues("ok").Inc()
	for _, result := range report.Results {
		observability.GradingSubmissions().WithLabelValues(string(result.Outcome)).Inc()
	}

	s.logger.Info().
		Int("graded", report.Count(service.OutcomeGraded)).
		Int("failed", report.Count(service.OutcomeFailed)).
		Int("skipped", report.Count(service.OutcomeSkipped)).
		Dur("duration", duration).
		Msg("grading run finished")

	return report, nil
}

// cronLogger adapts zerolog to the cron logging interface so skipped and
// recovered runs surface in the service log stream.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
