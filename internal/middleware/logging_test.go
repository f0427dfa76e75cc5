package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/weare-health/fhir-session-gateway/internal/middleware"
)

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/fhir/Patient", nil)
	rr := httptest.NewRecorder()
	middleware.RequestLogger(logger)(next).ServeHTTP(rr, req)

	matched := logs.FilterMessage("http request")
	assert.Equal(t, 1, matched.Len())
	entry := matched.All()[0]
	assert.Equal(t, "/fhir/Patient", entry.ContextMap()["path"])
	assert.Equal(t, int64(http.StatusTeapot), entry.ContextMap()["status"])
}
