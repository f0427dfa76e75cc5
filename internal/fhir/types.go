package fhir

// Identifier is a token-shaped business identifier: a namespace (System)
// plus a value. System is frequently empty, meaning "any namespace."
type Identifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value"`
}

func cloneIdentifiers(in []Identifier) []Identifier {
	if in == nil {
		return nil
	}
	out := make([]Identifier, len(in))
	copy(out, in)
	return out
}

// Coding is one code within a CodeableConcept — a system-qualified term.
type Coding struct {
	System string `json:"system,omitempty"`
	Code   string `json:"code"`
}

// CodeableConcept holds one or more Codings plus an optional display text.
// Observation.code and Observation.category are both CodeableConcepts.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

func cloneConcepts(in []CodeableConcept) []CodeableConcept {
	if in == nil {
		return nil
	}
	out := make([]CodeableConcept, len(in))
	for i, c := range in {
		cc := c
		if c.Coding != nil {
			cc.Coding = make([]Coding, len(c.Coding))
			copy(cc.Coding, c.Coding)
		}
		out[i] = cc
	}
	return out
}

// HumanName holds a patient's family and given names. The "name" search
// parameter matches over the concatenation of Family and Given.
type HumanName struct {
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

func cloneNames(in []HumanName) []HumanName {
	if in == nil {
		return nil
	}
	out := make([]HumanName, len(in))
	for i, n := range in {
		nn := n
		if n.Given != nil {
			nn.Given = append([]string(nil), n.Given...)
		}
		out[i] = nn
	}
	return out
}

// Reference is a loose pointer to another resource, either "Type/id" or a
// bare id (the default type is resolved per search-parameter, see
// internal/search). Stored verbatim as written by the client.
type Reference struct {
	Reference string `json:"reference,omitempty"`
}
