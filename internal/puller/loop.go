package puller

import (
	"context"
	"time"
)

// Run executes PullMissing and CheckPriorityDrift once per interval until
// ctx is canceled. The error of a failed pass is logged here and does not
// stop the loop.
func (p *Puller) Run(ctx context.Context, interval time.Duration) {
	logger := p.logger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PullMissing(ctx); err != nil {
				logger.Error("puller: reconciliation pass failed", "error", err)
			}
			if _, err := p.CheckPriorityDrift(ctx); err != nil {
				logger.Error("puller: priority drift check failed", "error", err)
			}
		}
	}
}
