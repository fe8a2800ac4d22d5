// Package metrics defines the custom Prometheus metrics of the community
// API. HTTP request metrics come from echoprometheus; these cover auth,
// errors, rate limiting and media.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "community"

// ── Errors ───────────────────────────────────────────────────────────────────

// ErrorsTotal counts error responses written by the error formatter.
// Label:
//   - code: the error code in the response body (e.g. "ValidationError")
var ErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of error responses, by error code.",
	},
	[]string{"code"},
)

// ── Auth ─────────────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// UsersCreatedTotal counts accounts created, by role.
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by role.",
	},
	[]string{"role"},
)

// RateLimitedTotal counts requests rejected by a rate limit policy.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by rate limiting, by scope.",
	},
	[]string{"scope"},
)

// ── Posts ────────────────────────────────────────────────────────────────────

// PostsCreatedTotal counts created posts.
// Label:
//   - media_type: "photo", "video" or "text"
var PostsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_created_total",
		Help:      "Total number of posts created, by media type.",
	},
	[]string{"media_type"},
)

// MediaUploadBytes observes the size of accepted uploads.
var MediaUploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "media_upload_bytes",
		Help:      "Size of uploaded media files in bytes.",
		Buckets:   prometheus.ExponentialBuckets(64<<10, 4, 8), // 64KiB .. 1GiB
	},
)
