package scheduler

import "context"

// Job is a unit of sync work executed by the worker pool.
type Job interface {
	// Execute runs the job. The context carries the per-job timeout.
	Execute(ctx context.Context) error

	// Source names the income source this job covers, for logging and metrics.
	Source() string

	// Description returns a human-readable description of the job.
	Description() string
}
