// Package jobstore implements the relational Job store against Postgres
// via sqlx over the pgx stdlib driver, using conditional UPDATE
// statements for claim/complete/fail so the transitions are safe under
// duplicate delivery without a separate locking layer.
package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/interfaces"
	"github.com/caimel/mediacore/internal/models"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
)

const jobColumns = `id, type, priority, input_data, status, progress, worker_id,
	started_at, completed_at, output_data, error_message, created_at`

// Store implements interfaces.JobStore against a Postgres database,
// scanning rows into models.Job via its "db" struct tags.
type Store struct {
	db     *sqlx.DB
	logger *common.Logger
}

// New opens a connection against dsn (via the pgx stdlib driver
// registered as "pgx") and returns a Store.
func New(ctx context.Context, dsn string, logger *common.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("jobstore: connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobstore: ping: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Insert writes a new Job row in QUEUED status.
func (s *Store) Insert(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = models.StatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	const query = `INSERT INTO jobs (id, type, priority, input_data, status, progress, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)`
	_, err := s.db.ExecContext(ctx, query, job.ID, job.Type, job.Priority, job.InputData, job.Status, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("jobstore: insert %s: %w", job.ID, err)
	}
	return nil
}

// Claim conditionally transitions id from QUEUED to RUNNING under
// workerID in a single statement, then re-reads the row. Two jobs racing
// on the same id will see exactly one succeed — the UPDATE's WHERE
// clause only matches the still-QUEUED row.
func (s *Store) Claim(ctx context.Context, id, workerID string) (*models.Job, bool, error) {
	const query = `UPDATE jobs SET status = $2, worker_id = $3, started_at = $4
		WHERE id = $1 AND status = $5`
	res, err := s.db.ExecContext(ctx, query, id, models.StatusRunning, workerID, time.Now(), models.StatusQueued)
	if err != nil {
		return nil, false, fmt.Errorf("jobstore: claim %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("jobstore: claim %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return nil, false, nil
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

// Complete writes a terminal COMPLETED row, conditioned on the row still
// being RUNNING under workerID — a stale worker cannot overwrite a job
// another worker has already reclaimed and completed.
func (s *Store) Complete(ctx context.Context, id, workerID string, outputData []byte) error {
	const query = `UPDATE jobs SET status = $2, completed_at = $3, output_data = $4, progress = 100
		WHERE id = $1 AND status = $5 AND worker_id = $6`
	_, err := s.db.ExecContext(ctx, query, id, models.StatusCompleted, time.Now(), outputData, models.StatusRunning, workerID)
	if err != nil {
		return fmt.Errorf("jobstore: complete %s: %w", id, err)
	}
	return nil
}

// Fail writes a terminal FAILED row under the same condition as Complete.
func (s *Store) Fail(ctx context.Context, id, workerID, errMsg string) error {
	const query = `UPDATE jobs SET status = $2, completed_at = $3, error_message = $4
		WHERE id = $1 AND status = $5 AND worker_id = $6`
	_, err := s.db.ExecContext(ctx, query, id, models.StatusFailed, time.Now(), errMsg, models.StatusRunning, workerID)
	if err != nil {
		return fmt.Errorf("jobstore: fail %s: %w", id, err)
	}
	return nil
}

// Get retrieves a single job by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("jobstore: job %s not found", id)
		}
		return nil, fmt.Errorf("jobstore: get %s: %w", id, err)
	}
	return row.toJob(), nil
}

// ListStaleRunning returns RUNNING jobs started before cutoff.
func (s *Store) ListStaleRunning(ctx context.Context, cutoff time.Time) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 AND started_at < $2`
	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, models.StatusRunning, cutoff); err != nil {
		return nil, fmt.Errorf("jobstore: list stale running: %w", err)
	}
	jobs := make([]*models.Job, 0, len(rows))
	for _, r := range rows {
		jobs = append(jobs, r.toJob())
	}
	return jobs, nil
}

// Requeue transitions a RUNNING job back to QUEUED, clearing worker/lease
// state, but only if it is still RUNNING (a job that completed between
// the sweeper's scan and this call is left alone).
func (s *Store) Requeue(ctx context.Context, id string) error {
	const query = `UPDATE jobs SET status = $2, worker_id = '', started_at = NULL
		WHERE id = $1 AND status = $3`
	_, err := s.db.ExecContext(ctx, query, id, models.StatusQueued, models.StatusRunning)
	if err != nil {
		return fmt.Errorf("jobstore: requeue %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// jobRow mirrors models.Job with nullable columns as pointers, so sqlx
// can StructScan rows where worker_id/started_at/etc. are SQL NULL
// without models.Job itself needing pointer fields.
type jobRow struct {
	ID           string     `db:"id"`
	Type         string     `db:"type"`
	Priority     string     `db:"priority"`
	InputData    []byte     `db:"input_data"`
	Status       string     `db:"status"`
	Progress     int        `db:"progress"`
	WorkerID     *string    `db:"worker_id"`
	StartedAt    *time.Time `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	OutputData   []byte     `db:"output_data"`
	ErrorMessage *string    `db:"error_message"`
	CreatedAt    time.Time  `db:"created_at"`
}

func (r jobRow) toJob() *models.Job {
	job := &models.Job{
		ID:         r.ID,
		Type:       r.Type,
		Priority:   r.Priority,
		InputData:  r.InputData,
		Status:     r.Status,
		Progress:   r.Progress,
		OutputData: r.OutputData,
		CreatedAt:  r.CreatedAt,
	}
	if r.WorkerID != nil {
		job.WorkerID = *r.WorkerID
	}
	if r.StartedAt != nil {
		job.StartedAt = *r.StartedAt
	}
	if r.CompletedAt != nil {
		job.CompletedAt = *r.CompletedAt
	}
	if r.ErrorMessage != nil {
		job.ErrorMessage = *r.ErrorMessage
	}
	return job
}

var _ interfaces.JobStore = (*Store)(nil)
