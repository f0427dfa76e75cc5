package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/metrics"
)

func TestRecorder_RegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	rec.SetActiveSessions(3)
	rec.ObserveResourceOp(fhir.Patient, "create", "ok")
	rec.ObservePodSync(fhir.Patient, "create", "success", 0.05)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecorder_NilReceiverIsSafe(t *testing.T) {
	var rec *metrics.Recorder

	assert.NotPanics(t, func() {
		rec.SetActiveSessions(1)
		rec.ObserveResourceOp(fhir.Patient, "read", "ok")
		rec.ObservePodSync(fhir.Patient, "read", "failure", 0.1)
	})
}
