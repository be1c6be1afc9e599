// Package metrics defines and registers the custom Prometheus metrics shared
// by the Authentication Service and the Task Service. It is the single source
// of truth for metric names, labels and help strings.
//
// Metrics are registered with the default registry on package init via
// promauto; HTTP request metrics are added per router by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskhub"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "rejected"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts validate-token outcomes.
// Label:
//   - result: "valid", "invalid_token", "invalid_claims", "user_missing" or "error"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_token_validations_total",
		Help:      "Total number of token validations, by result.",
	},
	[]string{"result"},
)

// ── Gateway metrics ───────────────────────────────────────────────────────────

// GatewayRequestsTotal counts calls from the Task Service to the
// Authentication Service.
// Label:
//   - result: "ok", "unauthorized" or "unavailable"
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of token validation calls to the Authentication Service.",
	},
	[]string{"result"},
)

// GatewayRequestDuration measures the round trip of a validation call.
var GatewayRequestDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of token validation calls to the Authentication Service.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Rate limiting ─────────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by the sliding window limiter.
// Label:
//   - service: "auth" or "task"
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"service"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TasksCreatedTotal counts newly created tasks.
// Label:
//   - status: the initial task status
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by initial status.",
	},
	[]string{"status"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification attempts.
// Label:
//   - result: "sent", "failed" or "dropped" (queue full)
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications, by delivery result.",
	},
	[]string{"result"},
)

// NotificationQueueDepth tracks the number of notifications waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
