package engine

import (
	"context"
	"math"
	"time"
)

const (
	backoffBase       = 1.5
	backoffJitterLow  = 0.5
	backoffJitterSpan = 1.0
)

// backoffDelay returns the wait before retry attempt k (k >= 1):
// 1.5^(k-1) seconds scaled by a jitter factor in [0.5, 1.5).
func backoffDelay(k int, random func() float64) time.Duration {
	if k < 1 {
		return 0
	}
	jitter := backoffJitterLow + random()*backoffJitterSpan
	seconds := math.Pow(backoffBase, float64(k-1)) * jitter
	return time.Duration(seconds * float64(time.Second))
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
