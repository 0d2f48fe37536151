package backup

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

// DefaultSchedule fires every Sunday at 03:00 (seconds, minutes, hours,
// day of month, month, day of week).
const DefaultSchedule = "0 0 3 * * 0"

// Runner is what the scheduler triggers.
type Runner interface {
	Run(ctx context.Context, trigger Trigger) Outcome
}

// Scheduler triggers a Runner on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	logger   *zap.Logger

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a scheduler that runs job on schedule.
func NewScheduler(job Runner, schedule string, logger *zap.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New()
	err := c.AddFunc(schedule, func() {
		job.Run(context.Background(), TriggerScheduled)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", schedule, err)
	}

	return &Scheduler{cron: c, schedule: schedule, logger: logger}, nil
}

// Start begins firing on schedule. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true

	entries := s.cron.Entries()
	if len(entries) > 0 {
		s.logger.Info("backup scheduler started",
			zap.String("schedule", s.schedule),
			zap.Time("next_run", entries[0].Next),
		)
	}
}

// Stop halts future firings. A run already in progress finishes on its own
// goroutine.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cron.Stop()
	s.started = false
	s.logger.Info("backup scheduler stopped")
}
