package saga

import (
	"context"
	"time"
)

// Pacer is called between consecutive steps and between compensations.
// It only affects timing, never the outcome.
type Pacer func(ctx context.Context) error

// NoPause is the pacer used by tests and by default
func NoPause(context.Context) error {
	return nil
}

// FixedPause waits d or until ctx is done
func FixedPause(d time.Duration) Pacer {
	if d <= 0 {
		return NoPause
	}
	return func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}
