package remote

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter paces outbound calls to one remote source
type RateLimiter interface {
	Wait(ctx context.Context) error
	UpdateFromResponse(resp *http.Response)
}

// sourceRateLimiter implements RateLimiter with a minimum delay between
// requests plus honoring Retry-After headers from the source.
type sourceRateLimiter struct {
	mu         sync.Mutex
	minDelay   time.Duration
	lastCall   time.Time
	retryAfter time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() RateLimiter {
	return &sourceRateLimiter{
		minDelay: 100 * time.Millisecond, // Minimum delay between requests
	}
}

// Wait waits until it's safe to make another call to the source
func (r *sourceRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()

	wait := time.Duration(0)
	if until := time.Until(r.retryAfter); until > wait {
		wait = until
	}
	if elapsed := time.Since(r.lastCall); elapsed < r.minDelay {
		if d := r.minDelay - elapsed; d > wait {
			wait = d
		}
	}
	r.mu.Unlock()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	r.mu.Lock()
	r.lastCall = time.Now()
	r.mu.Unlock()
	return nil
}

// UpdateFromResponse records throttling hints from response headers
func (r *sourceRateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return
	}
	seconds, err := strconv.Atoi(retryAfter)
	if err != nil || seconds <= 0 {
		return
	}

	r.mu.Lock()
	r.retryAfter = time.Now().Add(time.Duration(seconds) * time.Second)
	r.mu.Unlock()
}
