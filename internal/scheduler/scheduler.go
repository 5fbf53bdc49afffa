// Package scheduler runs the periodic maintenance and reminder jobs.
package scheduler

import (
	"fmt"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/config"
	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/robfig/cron/v3"
)

const limiterSweepSpec = "@every 5m"

type Scheduler struct {
	cron *cron.Cron
	jobs *Jobs
}

// New registers every job on a UTC, seconds-precision cron. An invalid
// expression is reported instead of silently dropping the job.
func New(cfg config.CronConfig, jobs *Jobs) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	specs := []struct {
		name string
		spec string
		run  func()
	}{
		{"token_cleanup", cfg.TokenCleanup, jobs.CleanupTokens},
		{"phase_reminders", cfg.PhaseReminders, jobs.RemindDuePhases},
		{"review_reminders", cfg.ReviewReminders, jobs.RemindPendingReviews},
		{"limiter_sweep", limiterSweepSpec, jobs.SweepRateLimiter},
	}
	for _, s := range specs {
		if _, err := c.AddFunc(s.spec, s.run); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", s.name, err)
		}
	}

	return &Scheduler{cron: c, jobs: jobs}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("cron scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("cron scheduler stopped")
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
