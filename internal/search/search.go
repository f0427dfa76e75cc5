// Package search implements pure, in-memory typed search filters composed
// over the generic provider's SearchAll bundle — per spec.md §9's explicit
// guidance that typed search is composed, not inherited, there is no
// interface method on provider.Provider for it. Every filter here is a
// plain function over a provider.Bundle and url.Values; none of them touch
// the session store or do I/O.
package search

import (
	"net/url"
	"strings"
	"time"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/provider"
)

// tokenMatch implements the token parameter kind: "{system}|{value}" or a
// bare value. An empty system in the query matches any stored system.
// caseInsensitive selects case-insensitive comparison (status-like enums);
// otherwise the match is case-sensitive (codes, identifiers).
func tokenMatch(query, system, value string, caseInsensitive bool) bool {
	qSystem, qValue, hasSystem := strings.Cut(query, "|")
	if !hasSystem {
		qValue = query
		qSystem = ""
	}
	if qSystem != "" && qSystem != system {
		return false
	}
	if caseInsensitive {
		return strings.EqualFold(qValue, value)
	}
	return qValue == value
}

// stringMatch implements the string parameter kind: case-insensitive
// substring.
func stringMatch(query, value string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(query))
}

// referenceMatch implements the reference parameter kind, tolerant of
// "Type/id" and a bare id, and of the default subject type Patient.
func referenceMatch(query, stored string) bool {
	if stored == query {
		return true
	}
	if strings.HasSuffix(stored, "/"+query) {
		return true
	}
	return stored == "Patient/"+query
}

// dateInRange implements the date parameter kind: ts falls within
// [from, to] whichever bounds are non-nil. A missing (zero) ts never
// matches.
func dateInRange(ts time.Time, from, to *time.Time) bool {
	if ts.IsZero() {
		return false
	}
	if from != nil && ts.Before(*from) {
		return false
	}
	if to != nil && ts.After(*to) {
		return false
	}
	return true
}

// parseDateParam parses a FHIR-style date search value, which this gateway
// supports in its simplest bare form (no eq/gt/lt prefixes) as both the
// lower and upper bound of the same instant, truncated to whichever
// precision the caller supplied (date-only or full RFC3339).
func parseDateParam(raw string) (*time.Time, *time.Time, bool) {
	if raw == "" {
		return nil, nil, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		return &t, &end, true
	}
	return nil, nil, false
}

// Patient filters a Patient bundle by identifier, name, family, given,
// birthdate.
func Patient(b provider.Bundle[*fhir.PatientResource], q url.Values) provider.Bundle[*fhir.PatientResource] {
	var out []*fhir.PatientResource

	for _, r := range b.Entry {
		if v := q.Get("identifier"); v != "" {
			if !anyIdentifier(r.Identifier, v) {
				continue
			}
		}
		if v := q.Get("name"); v != "" {
			if !anyName(r.Name, v, func(n fhir.HumanName) string {
				return n.Family + " " + strings.Join(n.Given, " ")
			}) {
				continue
			}
		}
		if v := q.Get("family"); v != "" {
			if !anyName(r.Name, v, func(n fhir.HumanName) string { return n.Family }) {
				continue
			}
		}
		if v := q.Get("given"); v != "" {
			if !anyName(r.Name, v, func(n fhir.HumanName) string { return strings.Join(n.Given, " ") }) {
				continue
			}
		}
		if v := q.Get("birthdate"); v != "" {
			from, to, ok := parseDateParam(v)
			if !ok {
				continue
			}
			bd, err := time.Parse("2006-01-02", r.BirthDate)
			if err != nil || !dateInRange(bd, from, to) {
				continue
			}
		}
		out = append(out, r)
	}

	return rebundle(out)
}

// Observation filters an Observation bundle by subject, code, date,
// status, category.
func Observation(b provider.Bundle[*fhir.ObservationResource], q url.Values) provider.Bundle[*fhir.ObservationResource] {
	var out []*fhir.ObservationResource

	for _, r := range b.Entry {
		if v := q.Get("subject"); v != "" && !referenceMatch(v, r.Subject.Reference) {
			continue
		}
		if v := q.Get("code"); v != "" && !anyConceptToken(r.Code, v, false) {
			continue
		}
		if v := q.Get("status"); v != "" && !tokenMatch(v, "", r.Status, true) {
			continue
		}
		if v := q.Get("category"); v != "" {
			matched := false
			for _, c := range r.Category {
				if anyConceptToken(c, v, false) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if v := q.Get("date"); v != "" {
			from, to, ok := parseDateParam(v)
			if !ok {
				continue
			}
			eff, err := time.Parse(time.RFC3339, r.EffectiveDateTime)
			if err != nil {
				continue
			}
			if !dateInRange(eff, from, to) {
				continue
			}
		}
		out = append(out, r)
	}

	return rebundle(out)
}

// Questionnaire filters a Questionnaire bundle by url, identifier, name,
// title, status, _id.
func Questionnaire(b provider.Bundle[*fhir.QuestionnaireResource], q url.Values) provider.Bundle[*fhir.QuestionnaireResource] {
	var out []*fhir.QuestionnaireResource

	for _, r := range b.Entry {
		if v := q.Get("url"); v != "" && v != r.URL {
			continue
		}
		if v := q.Get("identifier"); v != "" && !anyIdentifier(r.Identifier, v) {
			continue
		}
		if v := q.Get("name"); v != "" && !stringMatch(v, r.Name) {
			continue
		}
		if v := q.Get("title"); v != "" && !stringMatch(v, r.Title) {
			continue
		}
		if v := q.Get("status"); v != "" && !tokenMatch(v, "", r.Status, true) {
			continue
		}
		if v := q.Get("_id"); v != "" && v != r.ResourceID() {
			continue
		}
		out = append(out, r)
	}

	return rebundle(out)
}

// QuestionnaireResponse filters a QuestionnaireResponse bundle by subject,
// questionnaire, status, authored, author.
func QuestionnaireResponse(b provider.Bundle[*fhir.QuestionnaireResponseResource], q url.Values) provider.Bundle[*fhir.QuestionnaireResponseResource] {
	var out []*fhir.QuestionnaireResponseResource

	for _, r := range b.Entry {
		if v := q.Get("subject"); v != "" && !referenceMatch(v, r.Subject.Reference) {
			continue
		}
		if v := q.Get("questionnaire"); v != "" && !referenceMatch(v, r.Questionnaire) {
			continue
		}
		if v := q.Get("status"); v != "" && !tokenMatch(v, "", r.Status, true) {
			continue
		}
		if v := q.Get("author"); v != "" && !referenceMatch(v, r.Author.Reference) {
			continue
		}
		if v := q.Get("authored"); v != "" {
			from, to, ok := parseDateParam(v)
			if !ok {
				continue
			}
			authored, err := time.Parse(time.RFC3339, r.Authored)
			if err != nil || !dateInRange(authored, from, to) {
				continue
			}
		}
		out = append(out, r)
	}

	return rebundle(out)
}

// StructureDefinition filters a StructureDefinition bundle by url, name,
// type, status, _id.
func StructureDefinition(b provider.Bundle[*fhir.StructureDefinitionResource], q url.Values) provider.Bundle[*fhir.StructureDefinitionResource] {
	var out []*fhir.StructureDefinitionResource

	for _, r := range b.Entry {
		if v := q.Get("url"); v != "" && v != r.URL {
			continue
		}
		if v := q.Get("name"); v != "" && !stringMatch(v, r.Name) {
			continue
		}
		if v := q.Get("type"); v != "" && !tokenMatch(v, "", r.Type, false) {
			continue
		}
		if v := q.Get("status"); v != "" && !tokenMatch(v, "", r.Status, true) {
			continue
		}
		if v := q.Get("_id"); v != "" && v != r.ResourceID() {
			continue
		}
		out = append(out, r)
	}

	return rebundle(out)
}

// ImplementationGuide filters an ImplementationGuide bundle by url, name,
// status, _id.
func ImplementationGuide(b provider.Bundle[*fhir.ImplementationGuideResource], q url.Values) provider.Bundle[*fhir.ImplementationGuideResource] {
	var out []*fhir.ImplementationGuideResource

	for _, r := range b.Entry {
		if v := q.Get("url"); v != "" && v != r.URL {
			continue
		}
		if v := q.Get("name"); v != "" && !stringMatch(v, r.Name) {
			continue
		}
		if v := q.Get("status"); v != "" && !tokenMatch(v, "", r.Status, true) {
			continue
		}
		if v := q.Get("_id"); v != "" && v != r.ResourceID() {
			continue
		}
		out = append(out, r)
	}

	return rebundle(out)
}

func anyIdentifier(ids []fhir.Identifier, query string) bool {
	for _, id := range ids {
		if tokenMatch(query, id.System, id.Value, false) {
			return true
		}
	}
	return false
}

func anyName(names []fhir.HumanName, query string, extract func(fhir.HumanName) string) bool {
	for _, n := range names {
		if stringMatch(query, extract(n)) {
			return true
		}
	}
	return false
}

func anyConceptToken(c fhir.CodeableConcept, query string, caseInsensitive bool) bool {
	for _, coding := range c.Coding {
		if tokenMatch(query, coding.System, coding.Code, caseInsensitive) {
			return true
		}
	}
	return false
}

func rebundle[R fhir.Resource](entries []R) provider.Bundle[R] {
	if entries == nil {
		entries = []R{}
	}
	return provider.Bundle[R]{
		ResourceType: "Bundle",
		Type:         "searchset",
		Total:        len(entries),
		Entry:        entries,
	}
}
