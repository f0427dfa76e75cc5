// Package registry holds the three shared, session-less resource
// registries (Questionnaires, Profiles, ImplementationGuides). They are
// populated exactly once, at process startup, by the hydration
// orchestrator's LoadStaticRegistries path — never touched again after
// that, matching spec.md invariant 8 ("static registries are read-mostly
// after startup"). The RWMutex here guards against the one legitimate
// concurrent-write hazard (two overlapping startup calls), not steady
// state traffic.
package registry

import (
	"sync"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
)

// Registry holds one process-wide static collection, keyed by resource id.
// The zero value is ready to use.
type Registry[R fhir.Resource] struct {
	mu    sync.RWMutex
	byID  map[string]R
	ready bool
}

// Load replaces the registry's contents. Intended to be called exactly
// once, from process startup, before the HTTP server accepts traffic.
// Calling it again (e.g. in a test) fully replaces the previous contents.
func (r *Registry[R]) Load(items []R) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[string]R, len(items))
	for _, item := range items {
		byID[item.ResourceID()] = item
	}
	r.byID = byID
	r.ready = true
}

// Ready reports whether Load has run.
func (r *Registry[R]) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Get returns a deep copy of the entry for id, or (zero, false).
func (r *Registry[R]) Get(id string) (R, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var zero R
	item, ok := r.byID[id]
	if !ok {
		return zero, false
	}
	return item.Clone().(R), true
}

// All returns a deep copy of every entry, in no particular order.
func (r *Registry[R]) All() []R {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]R, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item.Clone().(R))
	}
	return out
}

// The three process-wide static registries. Populated once by
// hydrate.Orchestrator.LoadStaticRegistries before the HTTP server starts
// listening.
var (
	Questionnaires       Registry[*fhir.QuestionnaireResource]
	Profiles             Registry[*fhir.StructureDefinitionResource]
	ImplementationGuides Registry[*fhir.ImplementationGuideResource]
)
