package jobscheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caimel/mediacore/internal/models"
)

func TestEnqueue_InsertsRowAndPushesToMatchingQueue(t *testing.T) {
	jobs := newMemJobStore()
	queue := newMemQueueStore()
	enq := NewEnqueuer(jobs, queue)

	job := &models.Job{Type: models.JobTypeTranscription, Priority: models.PriorityUrgent, InputData: []byte(`{"episodeId":"ep-1","s3Key":"episodes/ep-1/audio.wav"}`)}
	require.NoError(t, enq.Enqueue(context.Background(), job))
	require.NotEmpty(t, job.ID)

	stored, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQueued, stored.Status)

	key := models.QueueKey(models.JobTypeTranscription, models.PriorityUrgent)
	assert.Equal(t, []string{job.ID}, queue.queues[key])
}

func TestEnqueue_RejectsMissingTypeOrPriority(t *testing.T) {
	enq := NewEnqueuer(newMemJobStore(), newMemQueueStore())

	err := enq.Enqueue(context.Background(), &models.Job{Priority: models.PriorityLow})
	assert.Error(t, err)

	err = enq.Enqueue(context.Background(), &models.Job{Type: models.JobTypeTranscription})
	assert.Error(t, err)
}
