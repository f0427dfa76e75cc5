package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/reqctx"
)

// RequestLogger returns a chi-compatible middleware that logs each request
// with method, path, status, and byte count. Identical shape to the
// teacher's internal/api.RequestLogger. Mounted below CorrelationID, so the
// per-request correlation id is already in the request context and is added
// to the entry logged after the handler has run.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if id := reqctx.CorrelationIDFromContext(r.Context()); id != "" {
				fields = append(fields, zap.String("correlation_id", id))
			}
			logger.Info("http request", fields...)
		})
	}
}
