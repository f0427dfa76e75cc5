package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/metrics"
	"github.com/weare-health/fhir-session-gateway/internal/middleware"
	"github.com/weare-health/fhir-session-gateway/internal/pod"
	"github.com/weare-health/fhir-session-gateway/internal/provider"
	"github.com/weare-health/fhir-session-gateway/internal/registry"
	"github.com/weare-health/fhir-session-gateway/internal/search"
	"github.com/weare-health/fhir-session-gateway/internal/sessionstore"
)

// RouterConfig holds every dependency NewRouter needs, populated once in
// main.go after all components are constructed — same shape as the
// teacher's api.RouterConfig.
type RouterConfig struct {
	Store   *sessionstore.Store
	Pod     *pod.Client
	Metrics *metrics.Recorder
	Hydrate middleware.HydrateFunc
	Logger  *zap.Logger
}

// NewRouter builds the gateway's chi router: global middleware, the public
// endpoints, and the per-type CRUD/search tree under /fhir.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/swagger-ui", swaggerPlaceholder)
	r.Get("/swagger-ui/*", swaggerPlaceholder)
	r.Get("/api-docs", swaggerPlaceholder)

	r.Route("/fhir", func(fhirRouter chi.Router) {
		fhirRouter.Use(middleware.Authenticate(cfg.Store, cfg.Hydrate, cfg.Logger))

		fhirRouter.Get("/metadata", Metadata)

		patients := newResourceHandler[*fhir.PatientResource](
			fhir.Patient,
			provider.New[*fhir.PatientResource](fhir.Patient, cfg.Store, cfg.Pod, cfg.Logger, cfg.Metrics),
			search.Patient,
			cfg.Logger,
		)
		fhirRouter.Route("/Patient", patients.mount)

		observations := newResourceHandler[*fhir.ObservationResource](
			fhir.Observation,
			provider.New[*fhir.ObservationResource](fhir.Observation, cfg.Store, cfg.Pod, cfg.Logger, cfg.Metrics),
			search.Observation,
			cfg.Logger,
		)
		fhirRouter.Route("/Observation", observations.mount)

		questionnaireResponses := newResourceHandler[*fhir.QuestionnaireResponseResource](
			fhir.QuestionnaireResponse,
			provider.New[*fhir.QuestionnaireResponseResource](fhir.QuestionnaireResponse, cfg.Store, cfg.Pod, cfg.Logger, cfg.Metrics),
			search.QuestionnaireResponse,
			cfg.Logger,
		)
		fhirRouter.Route("/QuestionnaireResponse", questionnaireResponses.mount)

		// Questionnaire, StructureDefinition, ImplementationGuide are static,
		// session-less registries (§4.4) rather than session-scoped
		// providers — they get their own read-only handler below instead of
		// a resourceHandler.
		fhirRouter.Route("/Questionnaire", func(rr chi.Router) {
			mountRegistry(rr, &registry.Questionnaires, search.Questionnaire)
		})
		fhirRouter.Route("/StructureDefinition", func(rr chi.Router) {
			mountRegistry(rr, &registry.Profiles, search.StructureDefinition)
		})
		fhirRouter.Route("/ImplementationGuide", func(rr chi.Router) {
			mountRegistry(rr, &registry.ImplementationGuides, search.ImplementationGuide)
		})
	})

	return r
}

func swaggerPlaceholder(w http.ResponseWriter, r *http.Request) {
	// Contract-only external collaborator per spec.md §1 — this gateway
	// does not ship generated API documentation, only the public route so
	// a reverse-proxied docs UI has somewhere to mount.
	w.WriteHeader(http.StatusNotImplemented)
}
