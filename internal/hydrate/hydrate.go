// Package hydrate implements the two population paths of spec.md §4.6:
// per-session first-use hydration of user-data resources (Patient,
// Observation, QuestionnaireResponse), and the one-time, process-startup
// load of the static registries (Questionnaire, StructureDefinition,
// ImplementationGuide). Neither path does HTTP dispatch itself — both are
// called by collaborators that already hold the right context (the auth
// middleware for per-session hydration, main.go for the startup load).
package hydrate

import (
	"context"

	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/devdata"
	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/pod"
	"github.com/weare-health/fhir-session-gateway/internal/registry"
	"github.com/weare-health/fhir-session-gateway/internal/reqctx"
	"github.com/weare-health/fhir-session-gateway/internal/session"
)

// Orchestrator wires the pod client and the dev-data fallback into the two
// hydration paths.
type Orchestrator struct {
	pod      *pod.Client
	igURL    string
	fetcher  registry.IGFetcher
	testdata string
	logger   *zap.Logger
}

// New constructs an Orchestrator. fetcher may be nil — LoadStaticRegistries
// falls back to testdata whenever igURL is empty or fetcher is nil.
func New(podClient *pod.Client, igURL, testdataPath string, fetcher registry.IGFetcher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		pod:      podClient,
		igURL:    igURL,
		fetcher:  fetcher,
		testdata: testdataPath,
		logger:   logger.Named("hydrate"),
	}
}

// Hydrate populates s with every user-data resource type for the session's
// subject, then marks it hydrated. Intended to run under
// session.HydrateOnce so concurrent first-use requests only do this once.
func (o *Orchestrator) Hydrate(ctx context.Context, s *session.Session) {
	claims, ok := reqctx.FromContext(ctx)
	if !ok || claims == nil {
		o.logger.Warn("hydration attempted without request claims")
		return
	}

	for _, rtype := range fhir.UserDataTypes {
		resources, err := o.listOrLoad(ctx, claims.Subject, claims.Token, rtype)
		if err != nil {
			o.logger.Error("hydration source failed", zap.String("resource_type", string(rtype)), zap.Error(err))
			continue
		}
		for _, r := range resources {
			version, _ := parseVersion(r.GetMeta().VersionID)
			s.Store(rtype, r.ResourceID(), version, r)
		}
		o.logger.Info("hydrated resource type",
			zap.String("resource_type", string(rtype)),
			zap.Int("count", len(resources)),
			zap.String("session_key", s.Key()),
		)
	}

	s.SetHydrated(true)
}

func (o *Orchestrator) listOrLoad(ctx context.Context, webID, token string, rtype fhir.ResourceType) ([]fhir.Resource, error) {
	if o.pod != nil && o.pod.Enabled() {
		return o.pod.List(ctx, webID, token, rtype)
	}
	return devdata.Load(o.testdata, rtype)
}

func parseVersion(versionID string) (int, bool) {
	n := 0
	for _, c := range versionID {
		if c < '0' || c > '9' {
			return 1, false
		}
		n = n*10 + int(c-'0')
	}
	if n == 0 {
		return 1, false
	}
	return n, true
}

// LoadStaticRegistries populates internal/registry's three package-level
// registries exactly once. Called directly from main.go before the HTTP
// server starts listening — never session-scoped, matching spec.md §4.6's
// "loaded ONCE at process startup".
func (o *Orchestrator) LoadStaticRegistries(ctx context.Context) error {
	archive, err := o.loadArchive(ctx)
	if err != nil {
		return err
	}

	registry.Questionnaires.Load(archive.Questionnaires)
	registry.Profiles.Load(archive.Profiles)
	registry.ImplementationGuides.Load(archive.ImplementationGuides)

	o.logger.Info("static registries loaded",
		zap.Int("questionnaires", len(archive.Questionnaires)),
		zap.Int("profiles", len(archive.Profiles)),
		zap.Int("implementation_guides", len(archive.ImplementationGuides)),
	)
	return nil
}

func (o *Orchestrator) loadArchive(ctx context.Context) (registry.IGArchive, error) {
	if o.igURL != "" && o.fetcher != nil {
		return o.fetcher.Fetch(ctx, o.igURL)
	}
	return devdata.LoadStaticArchive(o.testdata)
}
