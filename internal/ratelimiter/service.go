// Package ratelimiter implements the sliding-window and fixed-window
// admission checks and the HTTP surface that exposes them.
package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/caimel/mediacore/internal/apperr"
	"github.com/caimel/mediacore/internal/interfaces"
	"github.com/caimel/mediacore/internal/models"
)

// Clock abstracts wall-clock time so tests can drive deterministic
// sequences of calls without sleeping.
type Clock func() time.Time

// Service runs both rate-limit algorithms against a RateLimitStore.
type Service struct {
	store interfaces.RateLimitStore
	now   Clock
}

// NewService builds a Service. A nil clock defaults to time.Now.
func NewService(store interfaces.RateLimitStore, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, now: clock}
}

// Check validates req and runs the requested algorithm. Invalid input
// never touches the store.
func (s *Service) Check(ctx context.Context, req models.CheckRequest) (*models.CheckResult, error) {
	if req.ID == "" {
		return nil, apperr.NewValidationError("id", "must be non-empty")
	}
	if req.Limit < 1 {
		return nil, apperr.NewValidationError("limit", "must be >= 1")
	}
	if req.WindowMs < 1 {
		return nil, apperr.NewValidationError("windowMs", "must be >= 1")
	}

	switch req.Algo {
	case models.AlgoSliding, "":
		return s.slidingWindow(ctx, req)
	case models.AlgoFixed:
		return s.fixedWindow(ctx, req)
	default:
		return nil, apperr.NewValidationError("algo", fmt.Sprintf("unsupported algorithm %q", req.Algo))
	}
}

// slidingWindow implements the sliding-window algorithm over the
// ordered-set key "ratelimit:<id>".
func (s *Service) slidingWindow(ctx context.Context, req models.CheckRequest) (*models.CheckResult, error) {
	now := s.now().UnixMilli()
	key := req.ID

	count, oldest, err := s.store.SlidingWindow(ctx, key, now, req.WindowMs, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("ratelimiter: sliding window: %w", err)
	}

	reset := now + req.WindowMs
	if oldest > 0 {
		reset = oldest + req.WindowMs
	}

	if count >= req.Limit {
		retryAfter := int64(math.Ceil(float64(reset-now) / 1000))
		if retryAfter < 0 {
			retryAfter = 0
		}
		return &models.CheckResult{
			Allow:      false,
			Limit:      req.Limit,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: retryAfter,
		}, nil
	}

	remaining := req.Limit - (count + 1)
	if remaining < 0 {
		remaining = 0
	}
	return &models.CheckResult{
		Allow:     true,
		Limit:     req.Limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

// fixedWindow implements the fixed-window algorithm over the bucket key
// "ratelimit:fw:<id>:<bucketIndex>".
func (s *Service) fixedWindow(ctx context.Context, req models.CheckRequest) (*models.CheckResult, error) {
	now := s.now().UnixMilli()
	bucketIndex := now / req.WindowMs
	key := fmt.Sprintf("fw:%s:%d", req.ID, bucketIndex)

	value, err := s.store.FixedWindowIncr(ctx, key, req.WindowMs)
	if err != nil {
		return nil, fmt.Errorf("ratelimiter: fixed window: %w", err)
	}

	bucketEnd := (bucketIndex + 1) * req.WindowMs
	allow := value <= req.Limit
	remaining := req.Limit - value
	if !allow || remaining < 0 {
		remaining = 0
	}

	result := &models.CheckResult{
		Allow:     allow,
		Limit:     req.Limit,
		Remaining: remaining,
		Reset:     bucketEnd,
	}
	if !allow {
		retryAfter := int64(math.Ceil(float64(bucketEnd-now) / 1000))
		if retryAfter < 0 {
			retryAfter = 0
		}
		result.RetryAfter = retryAfter
	}
	return result, nil
}
