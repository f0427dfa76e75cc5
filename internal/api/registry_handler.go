package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/provider"
	"github.com/weare-health/fhir-session-gateway/internal/registry"
)

// mountRegistry registers read-only routes (list/search, read, read
// version) for a static registry type — Questionnaire, StructureDefinition,
// ImplementationGuide. These three are process-wide and session-less per
// spec.md §4.6, so unlike resourceHandler there is no create/update/delete
// and no provider.Provider in the loop: reads go straight to the registry.
func mountRegistry[R fhir.Resource](r chi.Router, reg *registry.Registry[R], filter searchFunc[R]) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		all := reg.All()
		Ok(w, filter(toBundle(all), req.URL.Query()))
	})

	r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
		item, ok := reg.Get(chi.URLParam(req, "id"))
		if !ok {
			ErrNotFound(w)
			return
		}
		Ok(w, item)
	})

	r.Get("/{id}/_history/{version}", func(w http.ResponseWriter, req *http.Request) {
		// Static registries carry no version history — the only version
		// served is the entry's own Meta.VersionID ("1" when it is empty);
		// any other version is not found.
		item, ok := reg.Get(chi.URLParam(req, "id"))
		if !ok {
			ErrNotFound(w)
			return
		}
		want := item.GetMeta().VersionID
		if want == "" {
			want = "1"
		}
		if chi.URLParam(req, "version") != want {
			ErrNotFound(w)
			return
		}
		Ok(w, item)
	})
}

func toBundle[R fhir.Resource](items []R) provider.Bundle[R] {
	if items == nil {
		items = []R{}
	}
	return provider.Bundle[R]{
		ResourceType: "Bundle",
		Type:         "searchset",
		Total:        len(items),
		Entry:        items,
	}
}
