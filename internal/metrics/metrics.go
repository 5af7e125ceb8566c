// Package metrics defines and registers the Prometheus metrics of the panel
// client and the mock backend. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "panel"

// ── Gateway metrics ───────────────────────────────────────────────────────────

// GatewayRequestsTotal counts settled gateway calls.
// Labels:
//   - method: HTTP method (e.g. "GET")
//   - status: HTTP status code, or "0" when no response was received
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of gateway calls, by method and resulting status.",
	},
	[]string{"method", "status"},
)

// GatewayRequestDuration measures the time from issuing a request to settlement.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of gateway calls until settlement.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// GatewayAuthRedirectsTotal counts 401 responses that invalidated the session.
var GatewayAuthRedirectsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_auth_redirects_total",
		Help:      "Total number of 401 responses that cleared the session and redirected to login.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionEventsTotal counts session store lifecycle events.
// Label:
//   - event: "saved", "save_failed", "cleared", "corrupt"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session store events, by kind.",
	},
	[]string{"event"},
)

// ── Mock backend metrics ──────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts handled by the mock backend.
// Label:
//   - result: "ok", "invalid_credentials", "not_found", "inactive", "rate_limited"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mockapi",
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
