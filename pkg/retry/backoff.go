package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultInitialInterval = time.Second
	defaultMaxInterval     = 30 * time.Second
	defaultMultiplier      = 2.0
)

// ExponentialBackoff never gives up on its own; zero arguments fall back to
// 1s initial, 30s max and a multiplier of 2.
func ExponentialBackoff(initialInterval, maxInterval time.Duration, multiplier float64) backoff.BackOff {
	if initialInterval <= 0 {
		initialInterval = defaultInitialInterval
	}
	if maxInterval <= 0 {
		maxInterval = defaultMaxInterval
	}
	if maxInterval < initialInterval {
		maxInterval = initialInterval
	}
	if multiplier < 1 {
		multiplier = defaultMultiplier
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.MaxInterval = maxInterval
	exp.Multiplier = multiplier
	exp.MaxElapsedTime = 0
	exp.Reset()
	return exp
}

// Sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
