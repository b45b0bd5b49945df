package interceptors

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by TokenBucketLimiter when no token is available
var ErrRateLimited = errors.New("rate limited")

// TokenBucketLimiter keeps one token bucket per key
type TokenBucketLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewTokenBucketLimiter creates a limiter allowing limit calls per second per
// key with the given burst
func NewTokenBucketLimiter(limit rate.Limit, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow implements RateLimiter without waiting for a token
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) error {
	if !l.bucket(key).Allow() {
		return ErrRateLimited
	}
	return nil
}

// Clone returns a limiter with the same rate and fresh buckets
func (l *TokenBucketLimiter) Clone() RateLimiter {
	return NewTokenBucketLimiter(l.limit, l.burst)
}

func (l *TokenBucketLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}
