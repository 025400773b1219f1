// Package scheduler runs the background jobs of the service on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Job interface {
	Run(ctx context.Context) error
	Name() string
}

type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
	ctx  context.Context
}

// New returns a scheduler whose jobs run with ctx. Schedules take a leading
// seconds field.
func New(ctx context.Context, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		log:  log.With("component", "scheduler"),
		ctx:  ctx,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// AddJob registers job under schedule, e.g. "0 30 1 * * *" for 01:30:00 UTC
// daily or "@every 1h".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("AddJob: %s: %w", job.Name(), err)
	}

	s.log.Info("job registered", "job", job.Name(), "schedule", schedule)
	return nil
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	s.log.Debug("job running", "job", job.Name())

	if err := job.Run(s.ctx); err != nil {
		s.log.Error("job failed", "job", job.Name(), "error", err, "duration_ms", time.Since(start).Milliseconds())
		return err
	}

	s.log.Debug("job completed", "job", job.Name(), "duration_ms", time.Since(start).Milliseconds())
	return nil
}
