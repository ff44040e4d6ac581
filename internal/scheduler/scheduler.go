package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"anoa.com/ecotrack/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Scheduler runs registered jobs on their cron schedules in a fixed location.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

func New(loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		jobs:    make([]Job, 0),
		timeout: timeout,
	}
}

// Register adds job and schedules it when it has a schedule.
func (s *Scheduler) Register(job Job) error {
	schedule := job.Schedule()
	if schedule == "" {
		s.jobs = append(s.jobs, job)
		log.Printf("📝 [%s] Registered as on-demand job (no schedule)", job.Name())
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_ = s.execute(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	s.jobs = append(s.jobs, job)
	log.Printf("📅 [%s] Scheduled with cron: %s", job.Name(), schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("🚀 Scheduler started with %d registered jobs", len(s.jobs))
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Println("⚠️ Scheduler stop timed out with jobs still running")
	}
	log.Println("🛑 Scheduler stopped")
}

// RunByName runs a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			log.Printf("🎯 [%s] Running on-demand execution...", name)
			return s.execute(ctx, job)
		}
	}
	return fmt.Errorf("job %q not registered", name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	log.Printf("🤖 [%s] Starting job...", job.Name())
	if err := job.Run(ctx); err != nil {
		metrics.SchedulerRunsTotal.WithLabelValues(job.Name(), "error").Inc()
		log.Printf("❌ [%s] Job failed: %v", job.Name(), err)
		return err
	}
	metrics.SchedulerRunsTotal.WithLabelValues(job.Name(), "ok").Inc()
	log.Printf("✅ [%s] Job completed successfully", job.Name())
	return nil
}
