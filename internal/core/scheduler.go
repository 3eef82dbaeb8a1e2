package core

// scheduler.go runs background maintenance on cron schedules:
//  1. Purge import previews that expired without a decision
//  2. Recompute the cached requisition stats
//
// Job failures are logged and never stop the scheduler.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerConfig holds cron specs. An empty spec disables that job.
type SchedulerConfig struct {
	PurgePreviews string // e.g. "@every 5m"
	RefreshStats  string // e.g. "@every 10m"
}

// Job is a named unit of scheduled work.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Jobs returns the maintenance jobs enabled by cfg.
func (s *Service) Jobs(cfg SchedulerConfig) []Job {
	all := []Job{
		{
			Name:     "purge-previews",
			Schedule: cfg.PurgePreviews,
			Run: func(context.Context) error {
				if n := s.PurgeExpiredPreviews(); n > 0 {
					slog.Info("expired import previews purged", "count", n)
				}
				return nil
			},
		},
		{
			Name:     "refresh-stats",
			Schedule: cfg.RefreshStats,
			Run: func(ctx context.Context) error {
				_, err := s.RefreshStats(ctx)
				return err
			},
		},
	}

	var jobs []Job
	for _, j := range all {
		if j.Schedule != "" {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// RunScheduler registers jobs with cron and blocks until ctx is cancelled,
// then waits for running jobs to finish.
func RunScheduler(ctx context.Context, jobs []Job) error {
	c := cron.New()

	for _, j := range jobs {
		job := j
		if _, err := c.AddFunc(job.Schedule, func() { runJob(ctx, job) }); err != nil {
			return fmt.Errorf("register job %s: %w", job.Name, err)
		}
	}

	slog.Info("scheduler started", "jobs", len(jobs))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()

	slog.Info("scheduler stopped")
	return nil
}

func runJob(ctx context.Context, j Job) {
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		slog.Error("scheduled job failed", "job", j.Name, "error", err)
		return
	}
	slog.Debug("scheduled job completed", "job", j.Name, "duration_ms", time.Since(start).Milliseconds())
}
