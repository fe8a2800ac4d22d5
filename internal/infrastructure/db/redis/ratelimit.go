package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/creatorspace/community-api/internal/core/ports"
)

// RateLimiter counts requests per key in fixed windows.
// Key format: ratelimit:<scope>:<client>:<window_start_unix>
type RateLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRateLimiter creates a RateLimiter wrapping the given Redis client.
func NewRateLimiter(client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow increments the counter for key in the current window and reports
// whether the request fits within limit.
func (l *RateLimiter) Allow(ctx context.Context, scope, client string, limit int, window time.Duration) (ports.RateDecision, error) {
	start := l.now().Truncate(window)
	key := l.key(scope, client, start)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return ports.RateDecision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   start.Add(window),
	}, nil
}

func (l *RateLimiter) key(scope, client string, windowStart time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, client, windowStart.Unix())
}
