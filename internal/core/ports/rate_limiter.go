package ports

import (
	"context"
	"time"
)

// RateDecision is the outcome of one rate limit check.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts requests per scope and client in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, scope, client string, limit int, window time.Duration) (RateDecision, error)
}
