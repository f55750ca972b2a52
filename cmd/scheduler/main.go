// Command scheduler runs the job scheduler & worker runtime: it claims
// queued jobs across priority classes, dispatches each to its registered
// stage adapter, and records terminal state.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caimel/mediacore/internal/blobstore"
	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/jobscheduler"
	"github.com/caimel/mediacore/internal/jobstore"
	"github.com/caimel/mediacore/internal/models"
	"github.com/caimel/mediacore/internal/redisqueue"
)

func main() {
	cfg := common.Load()
	logger := common.NewLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("scheduler exited with error")
		os.Exit(1)
	}
}

func run(cfg *common.Config, logger *common.Logger) error {
	if err := cfg.RequireScheduler(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	common.LogStartup(logger, "scheduler", map[string]string{
		"worker_types": fmt.Sprintf("%v", cfg.Scheduler.WorkerTypes),
		"concurrency":  fmt.Sprintf("%d", cfg.Scheduler.WorkerConcurrency),
	})

	jobs, err := jobstore.New(ctx, cfg.DSN, logger)
	if err != nil {
		return err
	}
	defer jobs.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("scheduler: redis ping: %w", err)
	}
	queue := redisqueue.New(rdb, cfg.RedisNamespace("sched:"))

	blobs, err := blobstore.New(cfg.Blob, logger)
	if err != nil {
		return fmt.Errorf("scheduler: blob store: %w", err)
	}

	hostname, _ := os.Hostname()
	workerID := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	adapters := buildAdapters(cfg.Scheduler.WorkerTypes)

	manager := jobscheduler.NewManager(jobs, queue, blobs, logger, jobscheduler.Config{
		WorkerTypes: cfg.Scheduler.WorkerTypes,
		Concurrency: cfg.Scheduler.WorkerConcurrency,
		Lease:       time.Duration(cfg.Scheduler.LeaseSeconds) * time.Second,
		WorkerID:    workerID,
	}, adapters)

	manager.Start()
	<-ctx.Done()
	logger.Info().Msg("scheduler: shutdown signal received")
	manager.Stop()
	common.LogShutdown(logger, "scheduler")
	return nil
}

// buildAdapters maps each configured job type to a RemoteAdapter pointed
// at an environment variable named ADAPTER_URL_<JOB_TYPE>, e.g.
// ADAPTER_URL_TRANSCRIPTION=http://asr-worker:9001/process. A job type
// with no such variable set is left unregistered; the scheduler still
// runs for every other type and fails that type's jobs at dispatch time.
func buildAdapters(jobTypes []string) map[string]jobscheduler.StageAdapter {
	adapters := make(map[string]jobscheduler.StageAdapter, len(jobTypes))
	for _, jt := range jobTypes {
		envKey := "ADAPTER_URL_" + jt
		endpoint := os.Getenv(envKey)
		if endpoint == "" {
			continue
		}
		adapters[jt] = jobscheduler.NewRemoteAdapter(endpoint, adapterTimeout(jt))
	}
	return adapters
}

// adapterTimeout gives TTS training, the slowest known stage, a longer
// budget than the rest; everything else gets the 10 minute default.
func adapterTimeout(jobType string) time.Duration {
	if jobType == models.JobTypeTTSTraining {
		return 6 * time.Hour
	}
	return 10 * time.Minute
}
