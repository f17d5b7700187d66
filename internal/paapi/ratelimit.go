package paapi

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is the process-wide, single-upstream-identity token bucket
// spec.md §4.7 mandates: 1 request/second, burst of 1.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter constructs a RateLimiter at the given per-second rate and
// burst (config key paapi.rate_per_second; NewAdapter passes a burst of 1).
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until the limiter admits the next call, or ctx is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// PaginationDelay returns the adaptive inter-page delay for a paginated
// search spanning pageCount pages (spec.md §4.7): 2.5s standard, 3.5s for
// 3-5 pages, 4.5s beyond.
func PaginationDelay(pageCount int) time.Duration {
	switch {
	case pageCount > 5:
		return 4500 * time.Millisecond
	case pageCount >= 3:
		return 3500 * time.Millisecond
	default:
		return 2500 * time.Millisecond
	}
}
