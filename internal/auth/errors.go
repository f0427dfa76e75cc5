package auth

import "errors"

// Sentinel errors returned by the bearer-credential decoder. Callers use
// errors.Is for comparison, matching the teacher's internal/auth/errors.go
// convention.
var (
	// ErrMissingBearer is returned when the Authorization header is absent
	// or not of the shape "Bearer <value>".
	ErrMissingBearer = errors.New("auth: missing or malformed bearer credential")

	// ErrMalformedToken is returned when the bearer value is not a
	// structurally valid JWT (three dot-separated base64url parts).
	ErrMalformedToken = errors.New("auth: malformed token")

	// ErrTokenExpired is returned when the token's exp claim is already past.
	ErrTokenExpired = errors.New("auth: token expired")
)
