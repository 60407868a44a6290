package validate

import (
	"sync"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = time.Minute
)

// RateLimiter is a sliding-window limiter keyed by an arbitrary string.
// State is process-local.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
	swept    time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow records an attempt for key and reports whether it fits within
// maxAttempts over the trailing window. Rejected attempts are not recorded.
// Non-positive arguments fall back to the defaults.
func (r *RateLimiter) Allow(key string, maxAttempts int, window time.Duration) bool {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now, window)

	valid := r.attempts[key][:0:0]
	for _, at := range r.attempts[key] {
		if now.Sub(at) < window {
			valid = append(valid, at)
		}
	}

	if len(valid) >= maxAttempts {
		r.attempts[key] = valid
		return false
	}

	r.attempts[key] = append(valid, now)
	return true
}

// sweep drops keys whose newest attempt has left the window. It runs at most
// once per window so Allow stays cheap for active keys.
func (r *RateLimiter) sweep(now time.Time, window time.Duration) {
	if now.Sub(r.swept) < window {
		return
	}
	r.swept = now
	for key, times := range r.attempts {
		if len(times) == 0 || now.Sub(times[len(times)-1]) >= window {
			delete(r.attempts, key)
		}
	}
}
