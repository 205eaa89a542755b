package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login and invite acceptance sign-ins by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamhub_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"flow", "result"},
	)

	// AuthorizationDecisions counts decision table lookups by action and outcome (allow|deny).
	AuthorizationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamhub_authorization_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"action", "result"},
	)

	// InviteTransitions counts invitation lifecycle transitions by target status.
	InviteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamhub_invite_transitions_total",
			Help: "Invitation state transitions",
		},
		[]string{"status"},
	)

	// NotificationFailures counts invitation emails that could not be delivered.
	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teamhub_notification_failures_total",
			Help: "Invitation emails that failed to send",
		},
	)

	// Compensations counts saga rollbacks by operation and outcome (ok|error).
	Compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamhub_compensations_total",
			Help: "Compensating actions executed after partial failures",
		},
		[]string{"operation", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teamhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
