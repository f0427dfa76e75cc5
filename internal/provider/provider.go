// Package provider implements the generic, per-resource-type CRUD and
// search surface every FHIR-ish endpoint is built from. It is the Go
// generics rendition of spec.md §9's "per-type generic provider" pattern —
// a single parameterized type standing in for what the source expresses as
// a base class each concrete resource provider subclasses.
package provider

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/metrics"
	"github.com/weare-health/fhir-session-gateway/internal/pod"
	"github.com/weare-health/fhir-session-gateway/internal/reqctx"
	"github.com/weare-health/fhir-session-gateway/internal/session"
	"github.com/weare-health/fhir-session-gateway/internal/sessionstore"
)

// Bundle is the generic searchset envelope a typed provider returns —
// fhir.Bundle with Entry narrowed to the concrete resource type, so typed
// search filters in internal/search never need a type assertion.
type Bundle[R fhir.Resource] struct {
	ResourceType string `json:"resourceType"`
	Type         string `json:"type"`
	Total        int    `json:"total"`
	Entry        []R    `json:"entry,omitempty"`
}

// podWriter is the write-through subset of *pod.Client's surface a
// Provider needs. Narrowing to a local interface (rather than depending on
// *pod.Client directly) lets tests exercise write-through failure paths —
// in particular the pod.ErrSerialization hard-error path — with a stub,
// without standing up a real pod.Client and HTTP server.
type podWriter interface {
	Enabled() bool
	Put(ctx context.Context, webID, token string, rtype fhir.ResourceType, r fhir.Resource) error
	Delete(ctx context.Context, webID, token string, rtype fhir.ResourceType, id string) error
}

// Provider is the generic CRUD + search surface for one resource type R.
// The zero value is not usable — construct with New.
type Provider[R fhir.Resource] struct {
	rtype   fhir.ResourceType
	store   *sessionstore.Store
	pod     podWriter // nil when pod sync is not wired for this type
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// New constructs a Provider for rtype. podClient may be nil (or report
// Enabled() == false), in which case no write-through is attempted.
func New[R fhir.Resource](rtype fhir.ResourceType, store *sessionstore.Store, podClient podWriter, logger *zap.Logger, rec *metrics.Recorder) *Provider[R] {
	return &Provider[R]{
		rtype:   rtype,
		store:   store,
		pod:     podClient,
		logger:  logger.Named("provider").With(zap.String("resource_type", string(rtype))),
		metrics: rec,
	}
}

// sessionFor resolves the calling request's session, per §5.3's contract
// that every provider operation is session-scoped via the context claims
// the authentication interceptor published.
func (p *Provider[R]) sessionFor(ctx context.Context) (*session.Session, error) {
	claims, ok := reqctx.FromContext(ctx)
	if !ok || claims == nil {
		return nil, session.ErrUnauthenticated
	}
	return p.store.GetOrCreate(claims.SessionKey), nil
}

// Read returns the latest (or, if version is non-nil, a specific) version
// of id. Returns session.ErrGone if id was deleted, session.ErrNotFound if
// it never existed (or the requested version never existed).
func (p *Provider[R]) Read(ctx context.Context, id string, version *int) (R, error) {
	var zero R

	s, err := p.sessionFor(ctx)
	if err != nil {
		return zero, err
	}

	if s.IsDeleted(p.rtype, id) {
		p.metrics.ObserveResourceOp(p.rtype, "read", "gone")
		return zero, session.ErrGone
	}

	r, ok := s.Get(p.rtype, id, version)
	if !ok {
		p.metrics.ObserveResourceOp(p.rtype, "read", "not_found")
		return zero, session.ErrNotFound
	}

	p.metrics.ObserveResourceOp(p.rtype, "read", "ok")
	return r.Clone().(R), nil
}

// Create assigns a new server id and version 1, stamps Meta, stores a deep
// copy, and attempts a pod write-through. An ordinary send failure is
// logged, not propagated — the in-memory write already succeeded. A
// pod.ErrSerialization failure is different: it means this gateway's own
// Turtle encoder produced something its own parser rejects, a bug rather
// than a remote failure, and is returned to the caller as a hard error.
func (p *Provider[R]) Create(ctx context.Context, r R) (R, error) {
	var zero R

	s, err := p.sessionFor(ctx)
	if err != nil {
		return zero, err
	}

	id := strconv.Itoa(s.NextID(p.rtype))
	stored := r.Clone().(R)
	stored.SetResourceID(id)
	meta := stored.GetMeta()
	meta.VersionID = "1"
	meta.LastUpdated = time.Now()

	s.Store(p.rtype, id, 1, stored)
	p.metrics.ObserveResourceOp(p.rtype, "create", "ok")

	if err := p.writeThrough(ctx, "create", stored); err != nil {
		return zero, err
	}

	return stored.Clone().(R), nil
}

// Update stores r as the next version of id (current highest + 1, or 1 if
// id has no history yet — an update also "undeletes" a tombstoned id, per
// session.Store's contract). An ordinary pod write-through failure is
// logged, not propagated; a pod.ErrSerialization failure is propagated to
// the caller, same as Create.
func (p *Provider[R]) Update(ctx context.Context, id string, r R) (R, error) {
	var zero R

	s, err := p.sessionFor(ctx)
	if err != nil {
		return zero, err
	}

	next := 1
	if latest, ok := s.LatestVersion(p.rtype, id); ok {
		next = latest + 1
	}

	stored := r.Clone().(R)
	stored.SetResourceID(id)
	meta := stored.GetMeta()
	meta.VersionID = strconv.Itoa(next)
	meta.LastUpdated = time.Now()

	s.Store(p.rtype, id, next, stored)
	p.metrics.ObserveResourceOp(p.rtype, "update", "ok")

	if err := p.writeThrough(ctx, "update", stored); err != nil {
		return zero, err
	}

	return stored.Clone().(R), nil
}

// Delete tombstones id. Idempotent: deleting an already-deleted or
// never-existing id is not an error at this layer (callers that need a 404
// on a never-existing id check Exists first — the HTTP handlers do).
// The pod delete is idempotent against a 404 there too.
func (p *Provider[R]) Delete(ctx context.Context, id string) error {
	s, err := p.sessionFor(ctx)
	if err != nil {
		return err
	}

	s.Delete(p.rtype, id)
	p.metrics.ObserveResourceOp(p.rtype, "delete", "ok")

	if p.pod == nil || !p.pod.Enabled() {
		return nil
	}
	claims, _ := reqctx.FromContext(ctx)
	start := time.Now()
	err = p.pod.Delete(ctx, claims.Subject, claims.Token, p.rtype, id)
	p.recordPodSync("delete", start, err)
	return nil
}

// Exists reports whether id currently has a live (non-tombstoned) version.
func (p *Provider[R]) Exists(ctx context.Context, id string) (bool, error) {
	s, err := p.sessionFor(ctx)
	if err != nil {
		return false, err
	}
	return s.Exists(p.rtype, id), nil
}

// IsDeleted reports whether id is currently tombstoned — distinct from
// Exists being false, which also covers an id that was never created.
func (p *Provider[R]) IsDeleted(ctx context.Context, id string) (bool, error) {
	s, err := p.sessionFor(ctx)
	if err != nil {
		return false, err
	}
	return s.IsDeleted(p.rtype, id), nil
}

// SearchAll returns a searchset bundle of every live resource of this
// type, each crossing Clone() before returning to the caller.
func (p *Provider[R]) SearchAll(ctx context.Context) (Bundle[R], error) {
	s, err := p.sessionFor(ctx)
	if err != nil {
		return Bundle[R]{}, err
	}

	all := s.GetAll(p.rtype)
	entries := make([]R, 0, len(all))
	for _, r := range all {
		entries = append(entries, r.Clone().(R))
	}

	p.metrics.ObserveResourceOp(p.rtype, "search", "ok")
	return newBundle[R](entries), nil
}

// SearchByID returns a one-or-zero-entry bundle for id — the "search by
// the _id parameter" shape distinct from Read, which returns a single
// resource (or an error) rather than a bundle.
func (p *Provider[R]) SearchByID(ctx context.Context, id string) (Bundle[R], error) {
	r, err := p.Read(ctx, id, nil)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrGone) {
			return newBundle[R](nil), nil
		}
		return Bundle[R]{}, err
	}
	return newBundle[R]([]R{r}), nil
}

func newBundle[R fhir.Resource](entries []R) Bundle[R] {
	if entries == nil {
		entries = []R{}
	}
	return Bundle[R]{
		ResourceType: "Bundle",
		Type:         "searchset",
		Total:        len(entries),
		Entry:        entries,
	}
}

// writeThrough fires the pod write for a freshly created/updated resource.
// Most failures are not returned to the caller — a transport or remote
// failure does not undo the in-memory write, matching spec.md §4.5's "pod
// write-through is best-effort" contract. The exception is
// pod.ErrSerialization: a self-parse failure in this gateway's own Turtle
// encoder is a bug, not a remote failure, and per spec.md §4.5/§7 it halts
// the request with a hard error instead of being folded into the
// best-effort path.
func (p *Provider[R]) writeThrough(ctx context.Context, op string, r R) error {
	if p.pod == nil || !p.pod.Enabled() {
		return nil
	}
	claims, ok := reqctx.FromContext(ctx)
	if !ok || claims == nil {
		return nil
	}

	start := time.Now()
	err := p.pod.Put(ctx, claims.Subject, claims.Token, p.rtype, r)
	p.recordPodSync(op, start, err)
	if errors.Is(err, pod.ErrSerialization) {
		return err
	}
	return nil
}

func (p *Provider[R]) recordPodSync(op string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	if err != nil {
		p.logger.Error("pod sync failed", zap.String("operation", op), zap.Error(err))
		p.metrics.ObservePodSync(p.rtype, op, "failure", elapsed)
		return
	}
	p.metrics.ObservePodSync(p.rtype, op, "success", elapsed)
}
