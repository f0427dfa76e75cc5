package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/pod"
	"github.com/weare-health/fhir-session-gateway/internal/provider"
	"github.com/weare-health/fhir-session-gateway/internal/session"
)

// searchFunc is the shape every internal/search typed filter function has.
type searchFunc[R fhir.Resource] func(provider.Bundle[R], url.Values) provider.Bundle[R]

// resourceHandler mounts the per-type CRUD + search route tree of spec.md
// §6 for one resource type R, backed by a generic provider.Provider[R] and
// a composed typed search filter. One instance per resource type, wired in
// router.go — the Go generics rendition of what the source would express
// as one controller subclass per resource type.
type resourceHandler[R fhir.Resource] struct {
	rtype    fhir.ResourceType
	provider *provider.Provider[R]
	search   searchFunc[R]
	logger   *zap.Logger
}

func newResourceHandler[R fhir.Resource](rtype fhir.ResourceType, p *provider.Provider[R], filter searchFunc[R], logger *zap.Logger) *resourceHandler[R] {
	return &resourceHandler[R]{
		rtype:    rtype,
		provider: p,
		search:   filter,
		logger:   logger.Named("api").With(zap.String("resource_type", string(rtype))),
	}
}

// mount registers this handler's routes under r, which the caller has
// already scoped to "/fhir/{ResourceType}".
func (h *resourceHandler[R]) mount(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.read)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/_history/{version}", h.readVersion)
}

func (h *resourceHandler[R]) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.provider.SearchAll(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	Ok(w, h.search(all, r.URL.Query()))
}

func (h *resourceHandler[R]) create(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	decoded, err := fhir.DecodeJSON(h.rtype, body)
	if err != nil {
		ErrBadRequest(w, err.Error())
		return
	}

	created, err := h.provider.Create(r.Context(), decoded.(R))
	if err != nil {
		h.writeErr(w, err)
		return
	}

	location := "/" + string(h.rtype) + "/" + created.ResourceID() + "/_history/" + created.GetMeta().VersionID
	Created(w, location, created)
}

func (h *resourceHandler[R]) read(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	found, err := h.provider.Read(r.Context(), id, nil)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	Ok(w, found)
}

func (h *resourceHandler[R]) readVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	versionParam := chi.URLParam(r, "version")
	version, err := strconv.Atoi(versionParam)
	if err != nil {
		ErrBadRequest(w, "version must be an integer")
		return
	}

	found, err := h.provider.Read(r.Context(), id, &version)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	Ok(w, found)
}

func (h *resourceHandler[R]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	decoded, err := fhir.DecodeJSON(h.rtype, body)
	if err != nil {
		ErrBadRequest(w, err.Error())
		return
	}

	updated, err := h.provider.Update(r.Context(), id, decoded.(R))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	Ok(w, updated)
}

func (h *resourceHandler[R]) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// A never-created id is "missing" (404); an already-tombstoned id is
	// "gone" (410) rather than re-reported as missing — Delete itself is
	// idempotent at the session layer, but the HTTP status distinguishes
	// the two absent-resource cases the same way read does.
	deleted, err := h.provider.IsDeleted(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if deleted {
		ErrGone(w)
		return
	}

	exists, err := h.provider.Exists(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if !exists {
		ErrNotFound(w)
		return
	}

	if err := h.provider.Delete(r.Context(), id); err != nil {
		h.writeErr(w, err)
		return
	}
	Deleted(w)
}

func (h *resourceHandler[R]) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrGone):
		ErrGone(w)
	case errors.Is(err, session.ErrNotFound):
		ErrNotFound(w)
	case errors.Is(err, session.ErrUnauthenticated):
		ErrUnauthorized(w)
	case errors.Is(err, pod.ErrSerialization):
		// A bug in this gateway's own Turtle encoder, not a remote pod
		// failure — surfaced as a hard error rather than folded into the
		// best-effort pod-sync path.
		h.logger.Error("pod serialization failure", zap.Error(err))
		ErrInternal(w)
	default:
		h.logger.Error("unhandled provider error", zap.Error(err))
		ErrInternal(w)
	}
}
