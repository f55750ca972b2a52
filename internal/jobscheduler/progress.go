package jobscheduler

import "context"

// ProgressReporter lets an adapter publish advisory progress while it
// runs, independent of the terminal Complete/Fail write.
type ProgressReporter interface {
	ReportProgress(ctx context.Context, jobID string, progress int, message string) error
}

// reporter adapts a Manager's QueueStore into a ProgressReporter scoped
// to one job, handed to a StageAdapter's Execute call for the duration
// of that job.
type reporter struct {
	m     *Manager
	jobID string
}

func (r *reporter) ReportProgress(ctx context.Context, jobID string, progress int, message string) error {
	return r.m.queue.SetProgress(ctx, r.jobID, progress, message)
}

// Reporter returns a ProgressReporter scoped to jobID.
func (m *Manager) Reporter(jobID string) ProgressReporter {
	return &reporter{m: m, jobID: jobID}
}
