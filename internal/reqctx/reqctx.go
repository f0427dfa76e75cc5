// Package reqctx defines the per-request scoped value the authentication
// interceptor publishes and every downstream layer consults. It is carried
// explicitly through context.Context — never goroutine-local — per the
// design notes' "request-scoped context" pattern: anything that needs the
// credential, including a background hand-off, must receive it as an
// argument.
package reqctx

import (
	"context"
	"time"
)

// Claims is the decoded-but-unverified bearer credential for one request.
type Claims struct {
	Token     string     // the raw bearer token string
	TokenID   string      // jti, or a hash of Token if jti is absent
	Subject   string      // sub — expected to be a WebID URL
	Expiry    *time.Time  // exp, nil if the token carries no expiry
	SessionKey string     // TokenID if non-empty, else Subject
}

type contextKey int

const (
	claimsKey contextKey = iota
	correlationIDKey
)

// WithClaims returns a new context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext retrieves the claims published by the authentication
// interceptor for this request, or (nil, false) if the request is
// unauthenticated (a public endpoint).
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// WithCorrelationID returns a new context carrying id, a fresh identifier
// minted once per request for log correlation; the request-logging
// middleware adds it to each request's log entry. It is unrelated
// to a Claims' TokenID/SessionKey, which stay stable across a session's
// many requests; this id is unique to a single HTTP request.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext retrieves the id published by the correlation-id
// middleware, or "" if none was set (e.g. a unit test constructing its own
// bare context.Background()).
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
