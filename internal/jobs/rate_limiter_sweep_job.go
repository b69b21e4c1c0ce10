package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type BucketSweeper interface {
	Sweep(idle time.Duration) int
}

// RateLimiterSweepJob removes buckets untouched for Idle so per-client state
// stays bounded.
type RateLimiterSweepJob struct {
	sweeper  BucketSweeper
	schedule string
	idle     time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewRateLimiterSweepJob(sweeper BucketSweeper, schedule string, idle time.Duration, logger *slog.Logger) *RateLimiterSweepJob {
	return &RateLimiterSweepJob{
		sweeper:  sweeper,
		schedule: schedule,
		idle:     idle,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "rate_limiter_sweep_job"),
	}
}

func (j *RateLimiterSweepJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce() }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Rate limiter sweep job started", "schedule", j.schedule, "idle", j.idle)
	return nil
}

func (j *RateLimiterSweepJob) RunOnce() int {
	removed := j.sweeper.Sweep(j.idle)
	if removed > 0 {
		j.logger.Debug("Swept idle rate buckets", "removed", removed)
	}
	return removed
}

func (j *RateLimiterSweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Rate limiter sweep job stopped")
}
