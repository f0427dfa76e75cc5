package session

import "errors"

// Sentinel errors surfaced by the generic provider (internal/provider),
// mirroring the shape of the teacher's internal/repositories/errors.go.
var (
	// ErrNotFound is returned when (rtype, id) has never been stored.
	ErrNotFound = errors.New("session: resource not found")

	// ErrGone is returned when (rtype, id) was stored and later deleted —
	// distinct from ErrNotFound per spec.md's tombstone contract.
	ErrGone = errors.New("session: resource gone")

	// ErrUnauthenticated is returned when an operation requires a session
	// key but the request carried no usable bearer credential.
	ErrUnauthenticated = errors.New("session: unauthenticated")
)
