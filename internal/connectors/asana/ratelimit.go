package asana

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ProactiveRate throttles outbound calls to ~150 requests/minute,
	// the free-tier Asana quota.
	ProactiveRate = 2.5

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter paces requests with a token bucket and honours server
// Retry-After responses reactively.
type RateLimiter struct {
	mu         sync.Mutex
	bucket     *rate.Limiter
	retryAfter time.Time
}

// NewRateLimiter creates a rate limiter with proactive throttling.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(ProactiveRate), 1),
	}
}

// Wait blocks until it is safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	pause := time.Until(r.retryAfter)
	r.mu.Unlock()

	if pause > 0 {
		timer := time.NewTimer(pause)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.bucket.Wait(ctx)
}

// Update records rate limit feedback from a response.
func (r *RateLimiter) Update(resp *http.Response) {
	if resp.StatusCode != http.StatusTooManyRequests {
		return
	}

	seconds, err := strconv.Atoi(resp.Header.Get(HeaderRetryAfter))
	if err != nil || seconds <= 0 {
		return
	}

	r.mu.Lock()
	r.retryAfter = time.Now().Add(time.Duration(seconds) * time.Second)
	r.mu.Unlock()
}
