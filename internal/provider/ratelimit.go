package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimit is the minimum spacing between two upstream calls made
// through the same RateLimiter.
const DefaultRateLimit = 2 * time.Second

// RateLimiter enforces a minimum interval between calls. Each fetcher owns
// one; there is no process-wide limiter state.
type RateLimiter struct {
	interval time.Duration
	lim      *rate.Limiter
}

// NewRateLimiter creates a limiter allowing one call per interval with no
// burst. A non-positive interval disables it.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimiter{interval: interval, lim: rate.NewLimiter(limit, 1)}
}

// Wait blocks until at least interval has passed since the previous call
// was admitted, or until ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.lim.Wait(ctx)
}

// Interval returns the configured spacing.
func (r *RateLimiter) Interval() time.Duration { return r.interval }
