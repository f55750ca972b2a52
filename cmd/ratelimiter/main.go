// Command ratelimiter runs the sliding/fixed-window rate-limit HTTP
// service over a shared Redis instance.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/ratelimiter"
	"github.com/caimel/mediacore/internal/redisqueue"
)

func main() {
	cfg := common.Load()
	logger := common.NewLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("ratelimiter exited with error")
		os.Exit(1)
	}
}

func run(cfg *common.Config, logger *common.Logger) error {
	if err := cfg.RequireRateLimiter(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	common.LogStartup(logger, "ratelimiter", map[string]string{
		"port": fmt.Sprintf("%d", cfg.HTTPPort),
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ratelimiter: redis ping: %w", err)
	}

	store := redisqueue.New(rdb, cfg.RedisNamespace("ratelimit:"))
	svc := ratelimiter.NewService(store, nil)
	server := ratelimiter.NewServer(svc, store, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      server.Mux(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ratelimiter: listen: %w", err)
	case <-ctx.Done():
		logger.Info().Msg("ratelimiter: shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ratelimiter: graceful shutdown: %w", err)
	}
	common.LogShutdown(logger, "ratelimiter")
	return nil
}
