package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned by Allow when the limiter has no Redis backend.
// Callers are expected to treat it as "admit the request".
var ErrUnavailable = errors.New("rate limiter unavailable")

// Limiter implements fixed-window request counting backed by Redis.
// Key format: rate:<bucket>:<caller>:<window_start_unix>
type Limiter struct {
	client *redis.Client
}

// NewLimiter creates a Limiter wrapping the given Redis client. A nil client
// is allowed: every Allow call then reports ErrUnavailable instead of counting.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Allow consumes one request from the caller's bucket for the current window.
// The INCR+EXPIRE pair runs in a pipeline; the counter key expires with its
// window, so abandoned buckets clean themselves up.
func (l *Limiter) Allow(ctx context.Context, bucket, caller string, window time.Duration, max int) (Decision, error) {
	if l.client == nil {
		return Decision{}, ErrUnavailable
	}

	now := time.Now()
	windowStart := now.Truncate(window)
	key := fmt.Sprintf("rate:%s:%s:%d", bucket, caller, windowStart.Unix())

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit check: %w", err)
	}

	n := count.Val()
	remaining := int64(max) - n
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:    n <= int64(max),
		Remaining:  remaining,
		RetryAfter: windowStart.Add(window).Sub(now),
	}, nil
}
