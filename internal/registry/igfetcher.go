package registry

import (
	"context"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
)

// IGArchive is the result of fetching and unpacking an Implementation
// Guide package: the three resource collections it contributes to the
// static registries.
type IGArchive struct {
	Questionnaires       []*fhir.QuestionnaireResource
	Profiles             []*fhir.StructureDefinitionResource
	ImplementationGuides []*fhir.ImplementationGuideResource
}

// IGFetcher is the contract-only external collaborator named in spec.md
// §1 for `welldata.ig.url`: given a URL to a packaged IG archive, return
// its constituent resources. This gateway depends only on the interface —
// resolving a real IG URL to bytes and parsing whatever package format an
// actual IG ships as is out of scope (spec.md Non-goal). No implementation
// ships here: without a fetcher, internal/hydrate loads the registries from
// the testdata fixtures via devdata.LoadStaticArchive.
type IGFetcher interface {
	Fetch(ctx context.Context, url string) (IGArchive, error)
}
