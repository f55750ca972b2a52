// Package jobscheduler runs the worker runtime: a pool of goroutines that
// claim queued jobs in strict priority order, dispatch them to a
// per-job-type adapter, report progress, and write terminal state.
package jobscheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/interfaces"
	"github.com/caimel/mediacore/internal/models"
)

// StageAdapter executes one job's work and returns its raw result bytes,
// or an error if the stage failed. blobData carries the bytes already
// downloaded from the job's input blob key (nil if the stage's input has
// no blob reference); progress lets the adapter publish advisory
// progress updates while it runs.
type StageAdapter interface {
	Execute(ctx context.Context, job *models.Job, blobData []byte, progress ProgressReporter) ([]byte, error)
}

// Config holds Manager tuning parameters.
type Config struct {
	// WorkerTypes lists the job types this process claims, scanned in the
	// order given within each priority class.
	WorkerTypes []string

	// Concurrency is the number of processor goroutines.
	Concurrency int

	// Lease is how long a job may stay RUNNING before the sweeper
	// considers its worker crashed and requeues it.
	Lease time.Duration

	// SweepInterval is how often the sweeper scans for stale RUNNING jobs.
	SweepInterval time.Duration

	// PopTimeout bounds each blocking queue pop attempt.
	PopTimeout time.Duration

	// WorkerID identifies this process in Claim/Complete/Fail calls and
	// in progress/log fields.
	WorkerID string
}

// Manager coordinates the claim-dispatch-report-complete loop across a
// pool of processor goroutines plus a single lease-recovery sweeper.
type Manager struct {
	jobs     interfaces.JobStore
	queue    interfaces.QueueStore
	blobs    interfaces.BlobStore
	logger   *common.Logger
	config   Config
	adapters map[string]StageAdapter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager builds a Manager. adapters maps job type to the StageAdapter
// that executes it; a job whose type has no registered adapter fails
// immediately at dispatch time rather than panicking. blobs may be nil,
// in which case stage input/output never moves through blob storage and
// adapter results are recorded inline.
func NewManager(jobs interfaces.JobStore, queue interfaces.QueueStore, blobs interfaces.BlobStore, logger *common.Logger, config Config, adapters map[string]StageAdapter) *Manager {
	if config.Concurrency <= 0 {
		config.Concurrency = 5
	}
	if config.Lease <= 0 {
		config.Lease = 30 * time.Minute
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = config.Lease / 2
	}
	if config.PopTimeout <= 0 {
		config.PopTimeout = time.Second
	}
	return &Manager{
		jobs:     jobs,
		queue:    queue,
		blobs:    blobs,
		logger:   logger,
		config:   config,
		adapters: adapters,
	}
}

// safeGo launches a goroutine with panic recovery.
func (m *Manager) safeGo(name string, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("recovered from panic in scheduler goroutine")
			}
		}()
		fn()
	}()
}

// Start launches the processor pool and the recovery sweeper. Safe to
// call only once per Manager; call Stop before a subsequent Start.
func (m *Manager) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.safeGo("sweeper", func() { m.sweepLoop(ctx) })

	for i := 0; i < m.config.Concurrency; i++ {
		name := fmt.Sprintf("processor-%d", i)
		m.safeGo(name, func() { m.processLoop(ctx) })
	}

	m.logger.Info().
		Int("concurrency", m.config.Concurrency).
		Str("worker_types", strings.Join(m.config.WorkerTypes, ",")).
		Msg("scheduler started")
}

// Stop cancels all loops and waits for them to return.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.wg.Wait()
	m.logger.Info().Msg("scheduler stopped")
}

// queueScanOrder returns every (jobType, priority) pair in Cartesian-
// product scan order: priority class outermost (URGENT first), job type
// innermost (WorkerTypes order). This gives priority-class dominance
// within a worker's own scan but no global ordering across worker types.
func (m *Manager) queueScanOrder() []string {
	keys := make([]string, 0, len(models.Priorities)*len(m.config.WorkerTypes))
	for _, pr := range models.Priorities {
		for _, jt := range m.config.WorkerTypes {
			keys = append(keys, models.QueueKey(jt, pr))
		}
	}
	return keys
}

// processLoop scans queues in priority order, claims and dispatches one
// job per iteration, and reports outcome.
func (m *Manager) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		id, queueKey := m.popNext(ctx)
		if id == "" {
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		job, claimed, err := m.jobs.Claim(ctx, id, m.config.WorkerID)
		if err != nil {
			m.logger.Warn().Str("job_id", id).Err(err).Msg("claim failed")
			continue
		}
		if !claimed {
			// Already claimed by a racing delivery, or no longer queued.
			m.logger.Debug().Str("job_id", id).Str("queue", queueKey).Msg("claim lost (duplicate delivery)")
			continue
		}

		m.runJob(ctx, job)
	}
}

// popNext tries every queue in scan order once, each with its own
// PopTimeout blocking pop, returning the first id found. Scanning
// restarts from URGENT on every call so a newly-enqueued urgent job
// preempts older lower-priority work on the next iteration.
func (m *Manager) popNext(ctx context.Context) (id, queueKey string) {
	for _, key := range m.queueScanOrder() {
		got, err := m.queue.Pop(ctx, key, m.config.PopTimeout)
		if err != nil {
			m.logger.Warn().Str("queue", key).Err(err).Msg("pop error")
			continue
		}
		if got != "" {
			return got, key
		}
	}
	return "", ""
}

// runJob dispatches a claimed job to its adapter and writes terminal
// state. A schema mismatch, a blob transfer failure, an adapter error,
// or an unknown job type all produce a FAILED terminal write — a stage
// never panics the processor.
func (m *Manager) runJob(ctx context.Context, job *models.Job) {
	start := time.Now()
	adapter, ok := m.adapters[job.Type]
	if !ok {
		m.fail(ctx, job, fmt.Errorf("no adapter registered for job type %q", job.Type))
		return
	}

	decoded, err := models.DecodeInput(job.Type, job.InputData)
	if err != nil {
		m.fail(ctx, job, err)
		return
	}

	var blobData []byte
	if m.blobs != nil {
		if key := models.InputBlobKey(decoded); key != "" {
			blobData, err = m.blobs.Get(ctx, key)
			if err != nil {
				m.fail(ctx, job, fmt.Errorf("blob download %s: %w", key, err))
				return
			}
		}
	}

	out, err := adapter.Execute(ctx, job, blobData, m.Reporter(job.ID))
	duration := time.Since(start)

	if err != nil {
		m.logger.Warn().
			Str("job_id", job.ID).
			Str("job_type", job.Type).
			Dur("duration", duration).
			Err(err).
			Msg("job failed")
		m.fail(ctx, job, err)
		return
	}

	envelope := models.StageResultEnvelope{JobType: job.Type}
	if m.blobs != nil {
		if key, kerr := models.OutputBlobKey(job.ID, decoded); kerr == nil {
			if err := m.blobs.Put(ctx, key, out); err != nil {
				m.fail(ctx, job, fmt.Errorf("blob upload %s: %w", key, err))
				return
			}
			envelope.ResultKey = key
		} else {
			envelope.Result = out
		}
	} else {
		envelope.Result = out
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		m.fail(ctx, job, fmt.Errorf("encode result envelope: %w", err))
		return
	}

	m.logger.Info().
		Str("job_id", job.ID).
		Str("job_type", job.Type).
		Dur("duration", duration).
		Msg("job completed")

	if err := m.jobs.Complete(ctx, job.ID, m.config.WorkerID, payload); err != nil {
		m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("failed to write completion")
	}
}

func (m *Manager) fail(ctx context.Context, job *models.Job, jobErr error) {
	if err := m.jobs.Fail(ctx, job.ID, m.config.WorkerID, jobErr.Error()); err != nil {
		m.logger.Warn().Str("job_id", job.ID).Err(err).Msg("failed to write failure")
	}
}
