package synchronizer

import (
	"context"
	"time"
)

// Run executes ReconcileConfig and RemoveOutOfDate once per interval until
// ctx is canceled. The engine-view cache is reset at the start of every
// tick, so the two passes within a tick share engine calls with each
// other but never with a prior tick: an engine-status transition observed
// between ticks must never be hidden behind a stale entry. A failed pass
// is logged internally and does not stop the loop.
func (s *Synchronizer) Run(ctx context.Context, interval time.Duration) {
	logger := s.logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EngineView.Reset()
			if _, err := s.ReconcileConfig(ctx); err != nil {
				logger.Error("synchronizer: config reconcile pass failed", "error", err)
			}
			if _, err := s.RemoveOutOfDate(ctx); err != nil {
				logger.Error("synchronizer: removal pass failed", "error", err)
			}
		}
	}
}
