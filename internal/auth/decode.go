// Package auth decodes the bearer credential presented on each request.
//
// This package performs NO cryptographic signature verification. Per the
// system's design, that is delegated to an upstream layer (a reverse proxy
// or identity provider sitting in front of this gateway) — Decode only
// parses the JWT's structural envelope (three dot-separated base64url
// parts, the middle one a JSON claims object) and reads jti/sub/exp out of
// it. Do not add verification here without also updating that upstream
// contract; doing otherwise creates a false sense of security since a
// caller could construct any claims they like.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/weare-health/fhir-session-gateway/internal/reqctx"
)

// claims is the structural shape Decode reads out of the token: the JWT
// registered claims, of which only the three the session-binding contract
// needs are read — everything else in the JWT body is ignored.
type claims struct {
	jwt.RegisteredClaims
}

// Decode extracts the bearer token from an Authorization header value,
// parses its structural envelope without verifying the signature, and
// derives the session-binding claims. Returns ErrMissingBearer if header is
// empty or not "Bearer <value>", ErrMalformedToken if the value does not
// parse as a three-part JWT, ErrTokenExpired if exp is present and past.
func Decode(authorizationHeader string, now time.Time) (*reqctx.Claims, error) {
	token, ok := extractBearer(authorizationHeader)
	if !ok {
		return nil, ErrMissingBearer
	}

	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, &claims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedToken, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok {
		return nil, ErrMalformedToken
	}

	var expiry *time.Time
	if c.ExpiresAt != nil {
		t := c.ExpiresAt.Time
		expiry = &t
		if now.After(t) {
			return nil, ErrTokenExpired
		}
	}

	tokenID := c.ID
	if tokenID == "" {
		tokenID = hashToken(token)
	}

	subject := c.Subject
	sessionKey := tokenID
	if sessionKey == "" {
		sessionKey = subject
	}

	return &reqctx.Claims{
		Token:      token,
		TokenID:    tokenID,
		Subject:    subject,
		Expiry:     expiry,
		SessionKey: sessionKey,
	}, nil
}

// extractBearer trims a "Bearer <value>" Authorization header down to
// <value>. The scheme comparison is case-insensitive and whitespace is
// trimmed, per the interceptor contract. An empty value (just "Bearer ")
// is rejected.
func extractBearer(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	value := strings.TrimSpace(parts[1])
	if value == "" {
		return "", false
	}
	return value, true
}

// hashToken derives a stable token id from the raw token string when the
// token carries no jti claim. blake2b-256 is used rather than stdlib
// sha256 purely because golang.org/x/crypto is already part of this
// gateway's dependency stack; either would satisfy the "hash(token-string)"
// contract in the design notes.
func hashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum)
}
