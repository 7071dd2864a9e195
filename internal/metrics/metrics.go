package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anonchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonchat_login_attempts_total",
			Help: "Total admin login attempts",
		},
		[]string{"outcome"}, // "success", "failed", "locked", "rate_limited"
	)

	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anonchat_conversations_created_total",
			Help: "Total conversations created",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonchat_messages_sent_total",
			Help: "Total chat messages sent",
		},
		[]string{"sender"}, // "admin" or "anonymous"
	)

	MessagesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anonchat_messages_read_total",
			Help: "Total messages flipped to read",
		},
	)

	// Security metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonchat_rate_limit_hits_total",
			Help: "Total rate limit rejections",
		},
		[]string{"action"},
	)

	SuspiciousEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anonchat_suspicious_events_total",
			Help: "Total suspicious activity events recorded",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anonchat_active_sessions",
			Help: "Sessions currently held in the store",
		},
	)

	// Infrastructure metrics
	PostgresLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "anonchat_postgres_latency_seconds",
			Help:    "PostgreSQL query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
	)
)
