// Package metrics defines and registers all custom Prometheus metrics for the
// Holidaze authentication bridge. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "holidaze_auth"

// ── Workflow metrics ──────────────────────────────────────────────────────────

// WorkflowOperationsTotal counts finished sign-in and sign-up operations.
// Labels:
//   - operation: "sign_in" or "sign_up"
//   - result: the workflow result kind (e.g. "success", "provisioning_failed")
var WorkflowOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_operations_total",
		Help:      "Total number of authentication workflow operations, by result.",
	},
	[]string{"operation", "result"},
)

// WorkflowOperationDuration measures a whole operation including every remote call.
var WorkflowOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "workflow_operation_duration_seconds",
		Help:      "Duration of authentication workflow operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// SessionAuthenticated is 1 while the workflow holds a session, 0 otherwise.
var SessionAuthenticated = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_authenticated",
		Help:      "Whether the local session is currently authenticated.",
	},
)

// ── Remote call metrics ───────────────────────────────────────────────────────

// RemoteCallsTotal counts requests sent to the identity service.
// Labels:
//   - endpoint: "/auth/login", "/auth/register" or "/auth/create-api-key"
//   - outcome: "succeeded", "rejected" or "transport_error"
var RemoteCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_calls_total",
		Help:      "Total number of identity service calls, by endpoint and outcome.",
	},
	[]string{"endpoint", "outcome"},
)

// RemoteCallDuration measures the round trip of a single identity service call.
var RemoteCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_call_duration_seconds",
		Help:      "Duration of identity service calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)
