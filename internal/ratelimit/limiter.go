// Package ratelimit throttles login attempts per user. The remote site
// rate-limits OTP requests itself; refusing locally first keeps a
// misbehaving chat user from burning the account's quota.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter manages one token bucket per user id.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewLimiter creates a limiter allowing attemptsPerMinute sustained
// login attempts per user, with the given burst.
func NewLimiter(attemptsPerMinute int, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(attemptsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (l *Limiter) limiterFor(userID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[userID] = limiter
	}
	return limiter
}

// Allow reports whether the user may attempt a login step now.
func (l *Limiter) Allow(userID string) bool {
	return l.limiterFor(userID).Allow()
}
