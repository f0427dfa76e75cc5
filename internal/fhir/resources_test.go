package fhir_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
)

func TestObservationResource_MarshalJSON_StampsDiscriminator(t *testing.T) {
	o := &fhir.ObservationResource{ID: "o1", Status: "final"}

	out, err := json.Marshal(o)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Observation", decoded["resourceType"])
	assert.Equal(t, "final", decoded["status"])
}

func TestObservationResource_Clone_DeepCopiesCategories(t *testing.T) {
	original := &fhir.ObservationResource{
		ID:       "o1",
		Category: []fhir.CodeableConcept{{Coding: []fhir.Coding{{System: "http://loinc.org", Code: "1234"}}}},
	}

	cloned := original.Clone().(*fhir.ObservationResource)
	cloned.Category[0].Coding[0].Code = "9999"

	assert.Equal(t, "1234", original.Category[0].Coding[0].Code)
}

func TestQuestionnaireResource_MarshalJSON_StampsDiscriminator(t *testing.T) {
	q := &fhir.QuestionnaireResource{ID: "q1", Title: "Intake"}

	out, err := json.Marshal(q)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "Questionnaire", decoded["resourceType"])
}

func TestQuestionnaireResource_Clone_DeepCopiesIdentifiers(t *testing.T) {
	original := &fhir.QuestionnaireResource{
		ID:         "q1",
		Identifier: []fhir.Identifier{{System: "urn:ig", Value: "abc"}},
	}

	cloned := original.Clone().(*fhir.QuestionnaireResource)
	cloned.Identifier[0].Value = "mutated"

	assert.Equal(t, "abc", original.Identifier[0].Value)
}

func TestQuestionnaireResponseResource_MarshalJSON_StampsDiscriminator(t *testing.T) {
	r := &fhir.QuestionnaireResponseResource{ID: "qr1", Status: "completed"}

	out, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "QuestionnaireResponse", decoded["resourceType"])
	assert.Equal(t, "completed", decoded["status"])
}

func TestQuestionnaireResponseResource_Clone_IsIndependentValue(t *testing.T) {
	original := &fhir.QuestionnaireResponseResource{ID: "qr1", Authored: "2024-01-01"}

	cloned := original.Clone().(*fhir.QuestionnaireResponseResource)
	cloned.Authored = "2025-01-01"

	assert.Equal(t, "2024-01-01", original.Authored)
	assert.NotSame(t, original, cloned)
}

func TestStructureDefinitionResource_MarshalJSON_StampsDiscriminator(t *testing.T) {
	sd := &fhir.StructureDefinitionResource{ID: "sd1", Type: "Patient"}

	out, err := json.Marshal(sd)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "StructureDefinition", decoded["resourceType"])
}

func TestStructureDefinitionResource_Clone_IsIndependentValue(t *testing.T) {
	original := &fhir.StructureDefinitionResource{ID: "sd1", Name: "WeareProfile"}

	cloned := original.Clone().(*fhir.StructureDefinitionResource)
	cloned.Name = "mutated"

	assert.Equal(t, "WeareProfile", original.Name)
}

func TestImplementationGuideResource_MarshalJSON_StampsDiscriminator(t *testing.T) {
	ig := &fhir.ImplementationGuideResource{ID: "ig1", Status: "active"}

	out, err := json.Marshal(ig)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "ImplementationGuide", decoded["resourceType"])
}

func TestImplementationGuideResource_Clone_IsIndependentValue(t *testing.T) {
	original := &fhir.ImplementationGuideResource{ID: "ig1", Name: "weare-core"}

	cloned := original.Clone().(*fhir.ImplementationGuideResource)
	cloned.Name = "mutated"

	assert.Equal(t, "weare-core", original.Name)
}
