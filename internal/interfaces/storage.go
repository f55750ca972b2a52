// Package interfaces defines the storage and provider contracts shared
// across the scheduler, rate limiter, and DNS reconciler.
package interfaces

import (
	"context"
	"time"

	"github.com/caimel/mediacore/internal/models"
)

// JobStore is the relational store's view of Job: the single source of
// truth for job identity and lifecycle state.
type JobStore interface {
	// Insert writes a new Job row in QUEUED status.
	Insert(ctx context.Context, job *models.Job) error

	// Claim conditionally transitions id from QUEUED to RUNNING under the
	// given workerID. Returns (job, true) if this call won the claim,
	// (nil, false) if the row was missing, already running, or terminal.
	Claim(ctx context.Context, id, workerID string) (*models.Job, bool, error)

	// Complete writes a terminal COMPLETED row, but only if the row is
	// still RUNNING under workerID (no-op otherwise).
	Complete(ctx context.Context, id, workerID string, outputData []byte) error

	// Fail writes a terminal FAILED row, but only if the row is still
	// RUNNING under workerID (no-op otherwise).
	Fail(ctx context.Context, id, workerID, errMsg string) error

	// Get retrieves a single job by id.
	Get(ctx context.Context, id string) (*models.Job, error)

	// ListStaleRunning returns RUNNING jobs whose startedAt predates the
	// given lease cutoff — candidates for the recovery sweeper.
	ListStaleRunning(ctx context.Context, cutoff time.Time) ([]*models.Job, error)

	// Requeue transitions a stranded RUNNING job back to QUEUED, clearing
	// workerId/startedAt, so it can be re-dispatched by the sweeper.
	Requeue(ctx context.Context, id string) error

	Close() error
}

// QueueStore is the key-value store's view of the transient FIFO queues
// and advisory progress records.
type QueueStore interface {
	// Push appends id to the named queue (queue:<type>:<priority>).
	Push(ctx context.Context, queueKey, id string) error

	// Pop blocks up to timeout for an id on queueKey, FIFO order. Returns
	// ("", nil) on timeout with nothing popped.
	Pop(ctx context.Context, queueKey string, timeout time.Duration) (string, error)

	// SetProgress writes the advisory progress record for a job.
	SetProgress(ctx context.Context, jobID string, progress int, message string) error

	// GetProgress reads the advisory progress record for a job, if any.
	GetProgress(ctx context.Context, jobID string) (*models.ProgressRecord, error)

	// Ping verifies connectivity to the underlying store.
	Ping(ctx context.Context) error

	Close() error
}

// RateLimitStore is the key-value store's view of rate-limit counters.
// Both methods apply their multi-step update atomically (a single
// server-side pipeline or scripted transaction).
type RateLimitStore interface {
	// SlidingWindow trims entries with score <= now-windowMs, counts what
	// remains, and — if count < limit — adds a new member scored at now.
	// Returns the pre-insert count and the score of the oldest surviving
	// entry (0 if the window was empty before this call).
	SlidingWindow(ctx context.Context, key string, now, windowMs, limit int64) (count int64, oldestMs int64, err error)

	// FixedWindowIncr atomically increments the bucket counter at key and
	// (re)sets its TTL to windowMs, returning the post-increment value.
	FixedWindowIncr(ctx context.Context, key string, windowMs int64) (value int64, err error)

	Ping(ctx context.Context) error
}

// DNSProvider is the external DNS provider boundary (e.g. Cloudflare).
type DNSProvider interface {
	ZoneID(ctx context.Context, domain string) (string, error)
	ListRecords(ctx context.Context, zoneID string) ([]models.DNSRecord, error)
	CreateRecord(ctx context.Context, zoneID string, rec models.DNSRecord) error
	UpdateRecord(ctx context.Context, zoneID, recordID string, rec models.DNSRecord) error
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
}

// IPResolver resolves the process's current external IPv4 address.
type IPResolver interface {
	ResolveIPv4(ctx context.Context) (string, error)
}

// BlobStore is the opaque object-store boundary workers use to move
// stage inputs/outputs, independent of the underlying provider.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
