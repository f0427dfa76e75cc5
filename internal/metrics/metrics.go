// Package metrics exposes this gateway's Prometheus instrumentation — the
// ambient observability layer the teacher carries via
// github.com/prometheus/client_golang, generalized from its repository/agent
// counters to session and pod-sync counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
)

// Recorder owns every metric this gateway emits. The zero value is not
// usable — construct with New, which registers the metrics against reg.
type Recorder struct {
	activeSessions prometheus.Gauge
	resourceOps    *prometheus.CounterVec
	podSyncTotal   *prometheus.CounterVec
	podSyncLatency prometheus.Histogram
}

// New registers this gateway's metrics against reg and returns a Recorder.
// Passing prometheus.DefaultRegisterer matches the teacher's top-level
// wiring in cmd/server/main.go.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fhir_gateway",
			Name:      "active_sessions",
			Help:      "Number of session keys currently held by the session store.",
		}),
		resourceOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fhir_gateway",
			Name:      "resource_operations_total",
			Help:      "Count of resource operations by type and outcome.",
		}, []string{"resource_type", "operation", "outcome"}),
		podSyncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fhir_gateway",
			Name:      "pod_sync_total",
			Help:      "Count of pod write-through attempts by outcome.",
		}, []string{"resource_type", "operation", "outcome"}),
		podSyncLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fhir_gateway",
			Name:      "pod_sync_duration_seconds",
			Help:      "Latency of pod write-through round trips.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// SetActiveSessions reports the current number of live session keys.
func (r *Recorder) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.activeSessions.Set(float64(n))
}

// ObserveResourceOp records one Create/Read/Update/Delete/Search on a
// resource type, tagged with its outcome ("ok", "not_found", "gone").
func (r *Recorder) ObserveResourceOp(rtype fhir.ResourceType, operation, outcome string) {
	if r == nil {
		return
	}
	r.resourceOps.WithLabelValues(string(rtype), operation, outcome).Inc()
}

// ObservePodSync records the outcome and latency of one pod write-through
// attempt ("success" or "failure").
func (r *Recorder) ObservePodSync(rtype fhir.ResourceType, operation, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.podSyncTotal.WithLabelValues(string(rtype), operation, outcome).Inc()
	r.podSyncLatency.Observe(seconds)
}
