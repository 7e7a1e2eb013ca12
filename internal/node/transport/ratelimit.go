package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// limiter wraps rate.Limiter to implement RateLimiter.
type limiter struct {
	limiter *rate.Limiter
}

// Wait blocks until a request is allowed under the rate limit.
func (l *limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// NewRateLimiter returns a token bucket limiter allowing requestsPerSecond
// with the given burst. A non-positive rate disables throttling and returns
// nil.
func NewRateLimiter(requestsPerSecond float64, burst int) RateLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &limiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}
