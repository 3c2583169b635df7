package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// runWatchdog implements spec.md §4.11: for SDR sources it periodically
// compares the monotonic clock to the capture-side heartbeat, and
// declares the driver hung if threshold has elapsed without one.
func runWatchdog(ctx context.Context, res *Resources, threshold time.Duration) error {
	if threshold <= 0 {
		threshold = 5 * time.Second
	}
	logger := res.logger().Named("watchdog")

	ticker := time.NewTicker(threshold / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			since := time.Since(res.LastHeartbeat())
			if since > threshold {
				logger.Error("SDR driver stalled, no heartbeat", zap.Duration("since", since), zap.Duration("threshold", threshold))
				res.Shutdown(ErrDriverStalled)
				return ErrDriverStalled
			}
		}
	}
}
