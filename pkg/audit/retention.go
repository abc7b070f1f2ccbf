package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls scheduled pruning of the persistent audit
// backend. Retention applies to operational storage only; with no schedule
// configured the log is never pruned.
type RetentionConfig struct {
	// RetentionDays is the age past which entries are pruned.
	RetentionDays int

	// Schedule is a standard cron expression (e.g. "0 3 * * *" for daily
	// at 3 AM). Empty disables scheduled pruning.
	Schedule string
}

// Scheduler runs retention pruning against a SQLiteLog on a cron schedule.
type Scheduler struct {
	log    *SQLiteLog
	config RetentionConfig
	cron   *cron.Cron
	mu     sync.Mutex
	logger *slog.Logger
}

// NewScheduler creates a retention scheduler for the given log.
func NewScheduler(log *SQLiteLog, config RetentionConfig) *Scheduler {
	return &Scheduler{
		log:    log,
		config: config,
		cron:   cron.New(),
		logger: slog.Default().With("component", "audit.retention"),
	}
}

// Start begins scheduled pruning. It returns immediately; pruning runs in
// the cron scheduler's goroutine until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("retention schedule not configured, skipping scheduler")
		return nil
	}
	if s.config.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive when a schedule is set, got %d", s.config.RetentionDays)
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runPruning(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule retention pruning: %w", err)
	}

	s.cron.Start()
	s.logger.Info("retention scheduler started",
		"schedule", s.config.Schedule,
		"retention_days", s.config.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runPruning executes one pruning cycle.
func (s *Scheduler) runPruning(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)

	deleted, err := s.log.PruneBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("scheduled pruning completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled pruning completed, no entries deleted")
	}
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("retention scheduler stopped")
}
