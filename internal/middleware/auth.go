// Package middleware implements the chi middleware chain for the gateway:
// request id / real ip (delegated to chi's own middleware package),
// structured request logging, and the authentication + session-binding
// interceptor described in the design's §5.3. It is patterned directly on
// the teacher's internal/api middleware.go (same Authenticate-then-context
// shape), generalized from JWT verification to the spec's decode-only
// session binding and extended with first-use hydration dispatch.
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/auth"
	"github.com/weare-health/fhir-session-gateway/internal/reqctx"
	"github.com/weare-health/fhir-session-gateway/internal/session"
	"github.com/weare-health/fhir-session-gateway/internal/sessionstore"
)

// HydrateFunc is invoked at most once per session, the first time an
// authenticated request for that session is seen, to lazily load its
// user-data resources. sess.HydrateOnce guards against double-invocation
// under concurrent first-use requests (Open Question 2).
type HydrateFunc func(claims *reqctx.Claims, sess *session.Session)

// Authenticate builds the chi-compatible authentication + session-binding
// middleware described in §5.3. Requests whose path satisfies
// IsPublicEndpoint proceed without a bearer credential and without a
// request context value at all.
func Authenticate(store *sessionstore.Store, hydrate HydrateFunc, logger *zap.Logger) func(http.Handler) http.Handler {
	log := logger.Named("auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.Decode(r.Header.Get("Authorization"), time.Now())
			if err != nil {
				log.Debug("unauthenticated request", zap.String("path", r.URL.Path), zap.Error(err))
				writeUnauthorized(w)
				return
			}

			sess := store.GetOrCreate(claims.SessionKey)
			sess.SetExpiry(claims.Expiry)

			if !sess.Hydrated() {
				sess.HydrateOnce(func() {
					if hydrate != nil {
						hydrate(claims, sess)
					}
					sess.SetHydrated(true)
				})
			}

			// claims lives only in this request's own context, reclaimed by
			// the GC once the request finishes — nothing to clear afterward.
			ctx := reqctx.WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"message":"authentication required","code":"unauthorized"}}`))
}
