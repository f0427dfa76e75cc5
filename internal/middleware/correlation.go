package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/weare-health/fhir-session-gateway/internal/reqctx"
)

// CorrelationID mints a fresh request identifier and publishes it via
// reqctx, distinct from chi's own RequestID (which is only ever logged,
// never threaded past the logging middleware) and from a Claims' jti/
// SessionKey (which identify the session, not the individual call). Mounted
// above RequestLogger so the id is available to every middleware and
// handler downstream, including the pod client and resource providers.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := reqctx.WithCorrelationID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
