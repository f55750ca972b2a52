package jobstore

import (
	"context"
	_ "embed"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// newTestStore starts a disposable Postgres container and returns a Store
// against it, applying schema.sql. Gated behind MEDIACORE_TEST_DOCKER so
// the suite doesn't require Docker by default.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("MEDIACORE_TEST_DOCKER") != "true" {
		t.Skip("Docker tests disabled (set MEDIACORE_TEST_DOCKER=true to enable)")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("mediacore_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := New(ctx, dsn, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.db.ExecContext(ctx, schemaSQL)
	require.NoError(t, err)

	return store
}

func TestInsertAndGet_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{
		Type:      models.JobTypeTranscription,
		Priority:  models.PriorityHigh,
		InputData: []byte(`{"audioUrl":"s3://bucket/a.wav"}`),
	}
	require.NoError(t, store.Insert(ctx, job))
	require.NotEmpty(t, job.ID)

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, got.Status)
	assert.Equal(t, job.InputData, got.InputData)
}

func TestClaim_OnlyOneWinnerUnderDuplicateDelivery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeDiarization, Priority: models.PriorityNormal, InputData: []byte(`{}`)}
	require.NoError(t, store.Insert(ctx, job))

	_, claimedA, err := store.Claim(ctx, job.ID, "worker-a")
	require.NoError(t, err)
	assert.True(t, claimedA)

	_, claimedB, err := store.Claim(ctx, job.ID, "worker-b")
	require.NoError(t, err)
	assert.False(t, claimedB, "a second claim of an already-RUNNING job must lose")
}

func TestComplete_OnlyAppliesToOwningWorker(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeEmbeddingExtraction, Priority: models.PriorityLow, InputData: []byte(`{}`)}
	require.NoError(t, store.Insert(ctx, job))
	_, _, err := store.Claim(ctx, job.ID, "worker-a")
	require.NoError(t, err)

	require.NoError(t, store.Complete(ctx, job.ID, "worker-b", []byte(`{}`)))
	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, got.Status, "completion from a non-owning worker must be a no-op")

	require.NoError(t, store.Complete(ctx, job.ID, "worker-a", []byte(`{"ok":true}`)))
	got, err = store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestListStaleRunning_FindsExpiredLeases(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeSpeakerClustering, Priority: models.PriorityUrgent, InputData: []byte(`{}`)}
	require.NoError(t, store.Insert(ctx, job))
	_, _, err := store.Claim(ctx, job.ID, "worker-a")
	require.NoError(t, err)

	stale, err := store.ListStaleRunning(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	ids := make([]string, 0, len(stale))
	for _, j := range stale {
		ids = append(ids, j.ID)
	}
	assert.Contains(t, ids, job.ID)

	require.NoError(t, store.Requeue(ctx, job.ID))
	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, got.Status)
	assert.Equal(t, "", got.WorkerID)
}
