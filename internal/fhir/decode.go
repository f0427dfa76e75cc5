package fhir

import (
	"encoding/json"
	"fmt"
)

// factories maps a resource type name to a constructor for its zero value.
// Used both to decode inbound request bodies into the right concrete type
// and to validate that a path's {type} segment is one this gateway knows.
var factories = map[ResourceType]func() Resource{
	Patient:               func() Resource { return &PatientResource{} },
	Observation:           func() Resource { return &ObservationResource{} },
	Questionnaire:         func() Resource { return &QuestionnaireResource{} },
	QuestionnaireResponse: func() Resource { return &QuestionnaireResponseResource{} },
	StructureDefinition:   func() Resource { return &StructureDefinitionResource{} },
	ImplementationGuide:   func() Resource { return &ImplementationGuideResource{} },
}

// ErrUnknownType is returned for a {type} path segment this gateway does not
// implement.
var ErrUnknownType = fmt.Errorf("fhir: unknown resource type")

// KnownType reports whether rtype names one of the six resource kinds this
// gateway implements.
func KnownType(rtype string) bool {
	_, ok := factories[ResourceType(rtype)]
	return ok
}

// New returns a freshly zeroed resource of the given type.
func New(rtype ResourceType) (Resource, error) {
	f, ok := factories[rtype]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, rtype)
	}
	return f(), nil
}

// DecodeJSON decodes body into a new resource of the given type. The
// resourceType field, if present in the body, must match rtype — a mismatch
// is the "wrong resource type in path" malformed-request case.
func DecodeJSON(rtype ResourceType, body []byte) (Resource, error) {
	var probe struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("fhir: malformed resource body: %w", err)
	}
	if probe.ResourceType != "" && ResourceType(probe.ResourceType) != rtype {
		return nil, fmt.Errorf("fhir: body declares resourceType %q, path requires %q", probe.ResourceType, rtype)
	}

	r, err := New(rtype)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, r); err != nil {
		return nil, fmt.Errorf("fhir: malformed resource body: %w", err)
	}
	return r, nil
}
