package pod

import "errors"

// Sentinel errors for pod synchronization, in the same shape as the
// teacher's internal/notification/errors.go (ErrSendFailed, ...).
var (
	// ErrSendFailed is returned when a write or delete to the pod did not
	// succeed. It is logged by the provider and never propagated to the API
	// caller — the in-memory write is already durable for the session.
	ErrSendFailed = errors.New("pod: send failed")

	// ErrSerialization is returned when this gateway's own Turtle
	// serialization of a resource cannot be parsed back by its own parser.
	// Unlike ErrSendFailed, this indicates a bug in this gateway rather than
	// a remote failure, and is treated as a hard error by the provider.
	ErrSerialization = errors.New("pod: serialization round-trip failed")

	// ErrContainerMissing is returned when a container bootstrap attempt
	// (HEAD then conditional PUT) could not establish the container —
	// distinct from ErrSendFailed so callers can log bootstrap failures
	// without conflating them with resource write failures.
	ErrContainerMissing = errors.New("pod: container could not be created")
)
