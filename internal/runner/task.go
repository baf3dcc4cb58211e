package runner

import (
	"context"
	"time"
)

// Task is one scheduled background job.
type Task interface {
	// Name returns the unique name of the task
	Name() string

	// Schedule returns the cron schedule expression for this task
	Schedule() string

	// Run executes the task
	Run(ctx context.Context) error

	// Timeout returns the maximum time this task should run
	Timeout() time.Duration
}
