package api

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttle caps the rate of outgoing requests for one client. It waits
// rather than failing; there is no retry or backoff.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows perSecond requests per second with the given burst.
// A non-positive perSecond returns nil, which disables throttling.
func NewThrottle(perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a request may be sent or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}
