package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/creatorspace/community-api/internal/api/metrics"
	"github.com/creatorspace/community-api/internal/core/ports"
)

// RatePolicy is a per-route request budget.
type RatePolicy struct {
	Scope   string
	Limit   int
	Window  time.Duration
	Message string
}

// Route budgets per client IP.
var (
	CreateUserPolicy = RatePolicy{"create_user", 10, 15 * time.Minute,
		"Too many accounts created from this IP, please try again after 15 minutes."}
	LoginPolicy = RatePolicy{"login", 10, 15 * time.Minute,
		"Too many login attempts from this IP, please try again after 15 minutes."}
	ProfilePolicy = RatePolicy{"profile", 100, 15 * time.Minute,
		"Too many requests from this IP, please try again after 15 minutes."}
	CreatePostPolicy = RatePolicy{"create_post", 20, time.Hour,
		"Too many posts created. Please try again later."}
	FeedPolicy = RatePolicy{"feed", 30, 5 * time.Minute,
		"Too many feed requests. Please slow down."}
)

// RateLimit rejects requests over policy with 429. When the limiter fails
// the request is let through. A nil limiter disables the check.
func RateLimit(limiter ports.RateLimiter, policy RatePolicy, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			d, err := limiter.Allow(c.Request().Context(), policy.Scope, c.RealIP(), policy.Limit, policy.Window)
			if err != nil {
				log.Warn().Err(err).Str("scope", policy.Scope).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				retry := int(time.Until(d.ResetAt).Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(retry))
				metrics.RateLimitedTotal.WithLabelValues(policy.Scope).Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, policy.Message)
			}
			return next(c)
		}
	}
}
