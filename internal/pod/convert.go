package pod

import (
	"strings"
	"time"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/rdf"
)

// ns is this gateway's own predicate vocabulary for the fields it needs to
// round-trip through the pod. It is not a published ontology — only this
// gateway reads and writes it.
const ns = "http://weare.health/ns/fhir#"

func pred(name string) string { return ns + name }

// toGraph serializes a resource into an RDF graph rooted at subject (the
// resource's pod URL). Each element of a multi-valued field (identifier,
// name, category) becomes its own triple, with the element's parts packed
// into one delimited literal — sufficient for this gateway's own
// round-trip, since nothing else reads this vocabulary.
func toGraph(subject string, r fhir.Resource) rdf.Graph {
	g := rdf.Graph{
		rdf.TypeTriples(subject, ns+string(r.ResourceType())),
		lit(subject, "id", r.ResourceID()),
		lit(subject, "versionId", r.GetMeta().VersionID),
		lit(subject, "lastUpdated", r.GetMeta().LastUpdated.UTC().Format(time.RFC3339)),
	}

	switch v := r.(type) {
	case *fhir.PatientResource:
		for _, id := range v.Identifier {
			g = append(g, lit(subject, "identifier", packIdentifier(id)))
		}
		for _, n := range v.Name {
			g = append(g, lit(subject, "name", packName(n)))
		}
		if v.BirthDate != "" {
			g = append(g, lit(subject, "birthDate", v.BirthDate))
		}

	case *fhir.ObservationResource:
		if v.Subject.Reference != "" {
			g = append(g, lit(subject, "subject", v.Subject.Reference))
		}
		if len(v.Code.Coding) > 0 {
			g = append(g, lit(subject, "code", packConcept(v.Code)))
		}
		for _, c := range v.Category {
			g = append(g, lit(subject, "category", packConcept(c)))
		}
		if v.Status != "" {
			g = append(g, lit(subject, "status", v.Status))
		}
		if v.EffectiveDateTime != "" {
			g = append(g, lit(subject, "effectiveDateTime", v.EffectiveDateTime))
		}

	case *fhir.QuestionnaireResource:
		if v.URL != "" {
			g = append(g, lit(subject, "url", v.URL))
		}
		for _, id := range v.Identifier {
			g = append(g, lit(subject, "identifier", packIdentifier(id)))
		}
		if v.Name != "" {
			g = append(g, lit(subject, "name", v.Name))
		}
		if v.Title != "" {
			g = append(g, lit(subject, "title", v.Title))
		}
		if v.Status != "" {
			g = append(g, lit(subject, "status", v.Status))
		}

	case *fhir.QuestionnaireResponseResource:
		if v.Subject.Reference != "" {
			g = append(g, lit(subject, "subject", v.Subject.Reference))
		}
		if v.Questionnaire != "" {
			g = append(g, lit(subject, "questionnaire", v.Questionnaire))
		}
		if v.Status != "" {
			g = append(g, lit(subject, "status", v.Status))
		}
		if v.Author.Reference != "" {
			g = append(g, lit(subject, "author", v.Author.Reference))
		}
		if v.Authored != "" {
			g = append(g, lit(subject, "authored", v.Authored))
		}

	case *fhir.StructureDefinitionResource:
		if v.URL != "" {
			g = append(g, lit(subject, "url", v.URL))
		}
		if v.Name != "" {
			g = append(g, lit(subject, "name", v.Name))
		}
		if v.Type != "" {
			g = append(g, lit(subject, "profileType", v.Type))
		}
		if v.Status != "" {
			g = append(g, lit(subject, "status", v.Status))
		}

	case *fhir.ImplementationGuideResource:
		if v.URL != "" {
			g = append(g, lit(subject, "url", v.URL))
		}
		if v.Name != "" {
			g = append(g, lit(subject, "name", v.Name))
		}
		if v.Status != "" {
			g = append(g, lit(subject, "status", v.Status))
		}
	}

	return g
}

// fromGraph reconstructs a resource of the given type from its RDF graph.
func fromGraph(rtype fhir.ResourceType, subject string, g rdf.Graph) (fhir.Resource, error) {
	r, err := fhir.New(rtype)
	if err != nil {
		return nil, err
	}

	r.SetResourceID(g.Object(subject, pred("id")))
	meta := r.GetMeta()
	meta.VersionID = g.Object(subject, pred("versionId"))
	if lu := g.Object(subject, pred("lastUpdated")); lu != "" {
		if t, err := time.Parse(time.RFC3339, lu); err == nil {
			meta.LastUpdated = t
		}
	}

	switch v := r.(type) {
	case *fhir.PatientResource:
		for _, raw := range g.Objects(subject, pred("identifier")) {
			v.Identifier = append(v.Identifier, unpackIdentifier(raw))
		}
		for _, raw := range g.Objects(subject, pred("name")) {
			v.Name = append(v.Name, unpackName(raw))
		}
		v.BirthDate = g.Object(subject, pred("birthDate"))

	case *fhir.ObservationResource:
		v.Subject = fhir.Reference{Reference: g.Object(subject, pred("subject"))}
		if raw := g.Object(subject, pred("code")); raw != "" {
			v.Code = unpackConcept(raw)
		}
		for _, raw := range g.Objects(subject, pred("category")) {
			v.Category = append(v.Category, unpackConcept(raw))
		}
		v.Status = g.Object(subject, pred("status"))
		v.EffectiveDateTime = g.Object(subject, pred("effectiveDateTime"))

	case *fhir.QuestionnaireResource:
		v.URL = g.Object(subject, pred("url"))
		for _, raw := range g.Objects(subject, pred("identifier")) {
			v.Identifier = append(v.Identifier, unpackIdentifier(raw))
		}
		v.Name = g.Object(subject, pred("name"))
		v.Title = g.Object(subject, pred("title"))
		v.Status = g.Object(subject, pred("status"))

	case *fhir.QuestionnaireResponseResource:
		v.Subject = fhir.Reference{Reference: g.Object(subject, pred("subject"))}
		v.Questionnaire = g.Object(subject, pred("questionnaire"))
		v.Status = g.Object(subject, pred("status"))
		v.Author = fhir.Reference{Reference: g.Object(subject, pred("author"))}
		v.Authored = g.Object(subject, pred("authored"))

	case *fhir.StructureDefinitionResource:
		v.URL = g.Object(subject, pred("url"))
		v.Name = g.Object(subject, pred("name"))
		v.Type = g.Object(subject, pred("profileType"))
		v.Status = g.Object(subject, pred("status"))

	case *fhir.ImplementationGuideResource:
		v.URL = g.Object(subject, pred("url"))
		v.Name = g.Object(subject, pred("name"))
		v.Status = g.Object(subject, pred("status"))
	}

	return r, nil
}

func lit(subject, predName, value string) rdf.Triple {
	return rdf.Triple{Subject: subject, Predicate: pred(predName), Object: value, IsLiteral: true}
}

func packIdentifier(id fhir.Identifier) string {
	return id.System + "|" + id.Value
}

func unpackIdentifier(raw string) fhir.Identifier {
	system, value, _ := strings.Cut(raw, "|")
	return fhir.Identifier{System: system, Value: value}
}

func packName(n fhir.HumanName) string {
	return n.Family + "|" + strings.Join(n.Given, ",")
}

func unpackName(raw string) fhir.HumanName {
	family, givenRaw, _ := strings.Cut(raw, "|")
	var given []string
	if givenRaw != "" {
		given = strings.Split(givenRaw, ",")
	}
	return fhir.HumanName{Family: family, Given: given}
}

func packConcept(c fhir.CodeableConcept) string {
	var parts []string
	for _, coding := range c.Coding {
		parts = append(parts, coding.System+"^"+coding.Code)
	}
	return strings.Join(parts, ";") + "~" + c.Text
}

func unpackConcept(raw string) fhir.CodeableConcept {
	codingsRaw, text, _ := strings.Cut(raw, "~")
	var concept fhir.CodeableConcept
	concept.Text = text
	if codingsRaw == "" {
		return concept
	}
	for _, part := range strings.Split(codingsRaw, ";") {
		system, code, _ := strings.Cut(part, "^")
		concept.Coding = append(concept.Coding, fhir.Coding{System: system, Code: code})
	}
	return concept
}
