package api

import "net/http"

// capabilityStatement is a small static document enumerating the six
// resource types this gateway implements and their search parameters — a
// supplement to spec.md §6, which names `/metadata` as public without
// describing its body. Every FHIR-shaped server in this domain exposes a
// capability statement; this is the minimal one, not a full CapabilityStatement
// resource model.
type capabilityStatement struct {
	ResourceType string                  `json:"resourceType"`
	Status       string                  `json:"status"`
	Kind         string                  `json:"kind"`
	Rest         []capabilityRestSection `json:"rest"`
}

type capabilityRestSection struct {
	Mode      string               `json:"mode"`
	Resources []capabilityResource `json:"resource"`
}

type capabilityResource struct {
	Type         string   `json:"type"`
	SearchParams []string `json:"searchParam"`
	Interaction  []string `json:"interaction"`
}

var capability = capabilityStatement{
	ResourceType: "CapabilityStatement",
	Status:       "active",
	Kind:         "instance",
	Rest: []capabilityRestSection{
		{
			Mode: "server",
			Resources: []capabilityResource{
				{Type: "Patient", SearchParams: []string{"identifier", "name", "family", "given", "birthdate"}, Interaction: crud},
				{Type: "Observation", SearchParams: []string{"subject", "code", "date", "status", "category"}, Interaction: crud},
				{Type: "Questionnaire", SearchParams: []string{"url", "identifier", "name", "title", "status", "_id"}, Interaction: readOnly},
				{Type: "QuestionnaireResponse", SearchParams: []string{"subject", "questionnaire", "status", "authored", "author"}, Interaction: crud},
				{Type: "StructureDefinition", SearchParams: []string{"url", "name", "type", "status", "_id"}, Interaction: readOnly},
				{Type: "ImplementationGuide", SearchParams: []string{"url", "name", "status", "_id"}, Interaction: readOnly},
			},
		},
	},
}

var crud = []string{"read", "vread", "create", "update", "delete", "search-type"}

var readOnly = []string{"read", "vread", "search-type"}

// Metadata serves GET /fhir/metadata, a public endpoint per spec.md §6.
func Metadata(w http.ResponseWriter, r *http.Request) {
	Ok(w, capability)
}
