package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter limits request rates per key
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter counts requests inside a moving time window
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	lastSweep  time.Time
}

type window struct {
	mu       sync.Mutex
	requests []time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing limit requests per window
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		lastSweep:  time.Now(),
	}
}

// Allow checks if a request is allowed
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	w, exists := l.windows[key]
	if !exists {
		w = &window{}
		l.windows[key] = w
	}
	// Amortized sweep so idle keys don't accumulate forever
	if now.Sub(l.lastSweep) > 10*l.windowSize {
		l.sweepLocked(now)
		l.lastSweep = now
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-l.windowSize)
	live := w.requests[:0]
	for _, at := range w.requests {
		if at.After(cutoff) {
			live = append(live, at)
		}
	}
	w.requests = live

	if len(w.requests) >= l.limit {
		return false, nil
	}
	w.requests = append(w.requests, now)
	return true, nil
}

// Reset clears the window for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

func (l *SlidingWindowLimiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.windowSize)
	for key, w := range l.windows {
		w.mu.Lock()
		empty := true
		for _, at := range w.requests {
			if at.After(cutoff) {
				empty = false
				break
			}
		}
		w.mu.Unlock()
		if empty {
			delete(l.windows, key)
		}
	}
}

// IPRateLimiter scopes a limiter to client addresses
type IPRateLimiter struct {
	limiter RateLimiter
}

// NewIPRateLimiter creates an IP-scoped limiter
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow checks if a request from an IP is allowed
func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, fmt.Sprintf("ip:%s", ip))
}

// UserRateLimiter scopes a limiter to authenticated users
type UserRateLimiter struct {
	limiter RateLimiter
}

// NewUserRateLimiter creates a user-scoped limiter
func NewUserRateLimiter(requestsPerMinute int) *UserRateLimiter {
	return &UserRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow checks if a request from a user is allowed
func (l *UserRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.limiter.Allow(ctx, fmt.Sprintf("user:%s", userID))
}
