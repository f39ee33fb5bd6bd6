package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a job on a standard five-field cron spec.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	job      func(context.Context) error
}

func NewScheduler(spec string, job func(context.Context) error) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{spec: spec, schedule: schedule, job: job}, nil
}

// Run fires the job until ctx is done. A run still in progress when the next
// one is due causes that next run to be skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.job(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled job failed", "spec", s.spec, "error", err)
		}
	}))

	c.Start()
	slog.InfoContext(ctx, "Scheduler started", "spec", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "Scheduler stopped", "spec", s.spec)
	return nil
}

// Next reports when the job fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}
