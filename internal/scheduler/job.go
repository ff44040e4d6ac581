package scheduler

import "context"

// Job is a unit of background work.
type Job interface {
	// Name identifies the job in logs and metrics.
	Name() string
	// Schedule is a cron spec such as "@every 1h" or "0 18 * * *". Empty means on-demand only.
	Schedule() string
	Run(ctx context.Context) error
}

type funcJob struct {
	name     string
	schedule string
	run      func(ctx context.Context) error
}

// NewJob wraps fn as a Job.
func NewJob(name, schedule string, fn func(ctx context.Context) error) Job {
	return &funcJob{name: name, schedule: schedule, run: fn}
}

func (j *funcJob) Name() string                  { return j.name }
func (j *funcJob) Schedule() string              { return j.schedule }
func (j *funcJob) Run(ctx context.Context) error { return j.run(ctx) }
