// Package devdata is the dev-mode hydration fallback spec.md §4.5
// describes as "disabled mode ... hydration falls back to the dev data
// loader": a plain directory of one JSON array per resource type, read
// from `welldata.testdata.path`. It has no dependency on the pod or
// session packages — it only knows how to decode FHIR resources off disk.
package devdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/registry"
)

// Load reads {path}/{rtype}.json, a JSON array of resources of that type,
// and decodes each entry. A missing file is not an error — it means "no
// dev fixtures for this type" and returns an empty slice, mirroring the
// pod client's "container 404 is not an error" contract.
func Load(path string, rtype fhir.ResourceType) ([]fhir.Resource, error) {
	raw, err := readFile(path, rtype)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("devdata: decoding %s fixture array: %w", rtype, err)
	}

	resources := make([]fhir.Resource, 0, len(entries))
	for _, entry := range entries {
		r, err := fhir.DecodeJSON(rtype, entry)
		if err != nil {
			return nil, fmt.Errorf("devdata: decoding %s fixture entry: %w", rtype, err)
		}
		resources = append(resources, r)
	}
	return resources, nil
}

// LoadStaticArchive reads the three static-registry fixture files
// (Questionnaire.json, StructureDefinition.json, ImplementationGuide.json)
// from path and assembles them into a registry.IGArchive — the devdata
// stand-in for a real IGFetcher, used whenever welldata.ig.url is empty.
func LoadStaticArchive(path string) (registry.IGArchive, error) {
	var archive registry.IGArchive

	questionnaires, err := Load(path, fhir.Questionnaire)
	if err != nil {
		return archive, err
	}
	for _, r := range questionnaires {
		archive.Questionnaires = append(archive.Questionnaires, r.(*fhir.QuestionnaireResource))
	}

	profiles, err := Load(path, fhir.StructureDefinition)
	if err != nil {
		return archive, err
	}
	for _, r := range profiles {
		archive.Profiles = append(archive.Profiles, r.(*fhir.StructureDefinitionResource))
	}

	guides, err := Load(path, fhir.ImplementationGuide)
	if err != nil {
		return archive, err
	}
	for _, r := range guides {
		archive.ImplementationGuides = append(archive.ImplementationGuides, r.(*fhir.ImplementationGuideResource))
	}

	return archive, nil
}

func readFile(path string, rtype fhir.ResourceType) ([]byte, error) {
	full := filepath.Join(path, string(rtype)+".json")
	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("devdata: reading %s: %w", full, err)
	}
	return raw, nil
}
