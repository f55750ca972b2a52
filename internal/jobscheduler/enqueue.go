package jobscheduler

import (
	"context"
	"fmt"

	"github.com/caimel/mediacore/internal/interfaces"
	"github.com/caimel/mediacore/internal/models"
)

// Enqueuer is the producer-side entry point into the scheduler: it
// writes a job's QUEUED row and appends its id to the matching priority
// queue as a single logical call, so a producer never has to coordinate
// the two stores itself.
type Enqueuer struct {
	jobs  interfaces.JobStore
	queue interfaces.QueueStore
}

// NewEnqueuer builds an Enqueuer over the same stores a Manager reads
// from.
func NewEnqueuer(jobs interfaces.JobStore, queue interfaces.QueueStore) *Enqueuer {
	return &Enqueuer{jobs: jobs, queue: queue}
}

// Enqueue inserts job in QUEUED status, then pushes its id onto
// queue:<type>:<priority>. If the queue push fails after a successful
// insert, the row is left QUEUED but un-queued. Calling Enqueue again
// with the same job.ID does not push it: Insert fails because the row
// already exists, and Enqueue returns that error before the push.
func (e *Enqueuer) Enqueue(ctx context.Context, job *models.Job) error {
	if job.Type == "" {
		return fmt.Errorf("jobscheduler: enqueue: job type is required")
	}
	if job.Priority == "" {
		return fmt.Errorf("jobscheduler: enqueue: job priority is required")
	}

	if err := e.jobs.Insert(ctx, job); err != nil {
		return fmt.Errorf("jobscheduler: enqueue: insert: %w", err)
	}
	if err := e.queue.Push(ctx, models.QueueKey(job.Type, job.Priority), job.ID); err != nil {
		return fmt.Errorf("jobscheduler: enqueue: push %s: %w", job.ID, err)
	}
	return nil
}
