// Package redisqueue implements the key-value side of the coordination
// fabric against Redis: FIFO job queues, advisory progress records, and
// the sliding/fixed-window rate-limit counters. Every multi-step update
// that must be atomic runs as a Lua script via redis.NewScript, keeping
// the read-modify-write sequence on the server in one round trip.
package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caimel/mediacore/internal/interfaces"
	"github.com/caimel/mediacore/internal/models"
	"github.com/redis/go-redis/v9"
)

// Store implements interfaces.QueueStore and interfaces.RateLimitStore
// against a single Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps an existing *redis.Client. prefix namespaces every key this
// Store touches, so multiple deployments can share one Redis instance.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Push appends id to the named FIFO queue.
func (s *Store) Push(ctx context.Context, queueKey, id string) error {
	return s.client.RPush(ctx, s.key(queueKey), id).Err()
}

// Pop blocks up to timeout for an id on queueKey.
func (s *Store) Pop(ctx context.Context, queueKey string, timeout time.Duration) (string, error) {
	res, err := s.client.BLPop(ctx, timeout, s.key(queueKey)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redisqueue: pop %s: %w", queueKey, err)
	}
	// BLPop returns [key, value].
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

// SetProgress writes the advisory progress record for a job.
func (s *Store) SetProgress(ctx context.Context, jobID string, progress int, message string) error {
	rec := models.ProgressRecord{Progress: progress, Message: message}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redisqueue: marshal progress: %w", err)
	}
	return s.client.Set(ctx, s.key(models.ProgressKey(jobID)), data, 0).Err()
}

// GetProgress reads the advisory progress record for a job, if any.
func (s *Store) GetProgress(ctx context.Context, jobID string) (*models.ProgressRecord, error) {
	data, err := s.client.Get(ctx, s.key(models.ProgressKey(jobID))).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisqueue: get progress %s: %w", jobID, err)
	}
	var rec models.ProgressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("redisqueue: unmarshal progress %s: %w", jobID, err)
	}
	return &rec, nil
}

var (
	_ interfaces.QueueStore     = (*Store)(nil)
	_ interfaces.RateLimitStore = (*Store)(nil)
)
