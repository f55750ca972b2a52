package jobscheduler

import (
	"context"
	"time"

	"github.com/caimel/mediacore/internal/models"
)

// jobQueueKeyFor returns the queue a requeued job should rejoin.
func jobQueueKeyFor(job *models.Job) string {
	return models.QueueKey(job.Type, job.Priority)
}

// sweepLoop periodically requeues RUNNING jobs whose lease has expired —
// the crash-recovery path for a worker that claimed a job and died before
// writing terminal state. Ticker-driven and context-cancellable.
func (m *Manager) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()

	m.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep requeues every RUNNING job whose startedAt is older than the
// configured lease.
func (m *Manager) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-m.config.Lease)
	stale, err := m.jobs.ListStaleRunning(ctx, cutoff)
	if err != nil {
		m.logger.Warn().Err(err).Msg("sweeper: list stale running failed")
		return
	}
	for _, job := range stale {
		if err := m.jobs.Requeue(ctx, job.ID); err != nil {
			m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("sweeper: requeue failed")
			continue
		}
		if err := m.queue.Push(ctx, jobQueueKeyFor(job), job.ID); err != nil {
			m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("sweeper: re-push to queue failed")
			continue
		}
		m.logger.Info().Str("job_id", job.ID).Str("worker_id", job.WorkerID).Msg("sweeper: reclaimed stranded job")
	}
}
