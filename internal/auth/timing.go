package auth

import (
	"context"
	"time"
)

// LatencyFloor pads failed-credential responses to a minimum duration so the
// nonexistent-user path is not measurably faster than the wrong-password path.
type LatencyFloor struct {
	min time.Duration
}

// NewLatencyFloor creates a latency floor with the configured minimum.
func NewLatencyFloor(min time.Duration) *LatencyFloor {
	return &LatencyFloor{min: min}
}

// WaitFrom blocks until at least the floor has elapsed since start. Callers
// must not hold shared locks across this call.
func (f *LatencyFloor) WaitFrom(ctx context.Context, start time.Time) {
	if f == nil || f.min <= 0 {
		return
	}

	remaining := f.min - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
