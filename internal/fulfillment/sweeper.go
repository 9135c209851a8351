package fulfillment

import (
	"context"
	"fmt"
	"time"
)

// SweepStalePending fails every PENDING order last touched before
// maxAge ago. Reconciliation for orders whose jobs were lost after
// exhausting redelivery: they must not stay PENDING forever.
func (s *Service) SweepStalePending(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	swept, err := s.store.FailStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale pending orders: %w", err)
	}
	if swept > 0 {
		s.log.Warn("failed stale pending orders", "count", swept, "max_age", maxAge.String())
	}
	return swept, nil
}

// RunSweeper runs SweepStalePending on a ticker until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepStalePending(ctx, maxAge); err != nil {
				s.log.Error("pending sweep failed", "error", err)
			}
		}
	}
}
