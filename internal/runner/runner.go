// Package runner schedules background tasks on cron expressions with
// per-task timeouts and a graceful drain on shutdown.
package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner executes registered tasks on their cron schedules. Lifecycle is
// owned by the caller: Start schedules and returns, Stop drains.
type Runner struct {
	cron   *cron.Cron
	tasks  []Task
	logger *log.Logger
	wg     sync.WaitGroup
}

// New creates a runner for the given tasks. Schedules use six fields
// (seconds included).
func New(tasks ...Task) *Runner {
	return &Runner{
		cron:   cron.New(cron.WithSeconds()),
		tasks:  tasks,
		logger: log.New(log.Writer(), "[Runner] ", log.LstdFlags),
	}
}

// Start registers every task with the scheduler and begins executing.
// The context bounds all task runs; cancelling it stops new work.
func (r *Runner) Start(ctx context.Context) error {
	for _, task := range r.tasks {
		task := task
		r.logger.Printf("Scheduling task %s (%s)", task.Name(), task.Schedule())
		if _, err := r.cron.AddFunc(task.Schedule(), func() {
			r.execute(ctx, task)
		}); err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", task.Name(), err)
		}
	}
	r.cron.Start()
	return nil
}

// Stop halts scheduling and waits for in-flight tasks to finish.
func (r *Runner) Stop() {
	stopped := r.cron.Stop()
	r.wg.Wait()
	<-stopped.Done()
	r.logger.Println("Runner stopped")
}

func (r *Runner) execute(ctx context.Context, task Task) {
	r.wg.Add(1)
	defer r.wg.Done()

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout())
	defer cancel()

	start := time.Now()
	if err := task.Run(taskCtx); err != nil {
		r.logger.Printf("Task %s failed after %v: %v", task.Name(), time.Since(start), err)
		return
	}
	r.logger.Printf("Task %s completed in %v", task.Name(), time.Since(start))
}
