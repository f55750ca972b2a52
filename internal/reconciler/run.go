package reconciler

import (
	"context"
	"time"
)

// Run drives Tick on a fixed interval until ctx is cancelled, running
// one tick immediately before the first interval elapses.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := r.Tick(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("reconciler: initial tick failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				r.logger.Warn().Err(err).Msg("reconciler: tick failed")
			}
		}
	}
}
