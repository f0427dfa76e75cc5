package fhir

import "encoding/json"

// ObservationResource is the user-data "Observation" resource kind.
type ObservationResource struct {
	ID       string          `json:"id,omitempty"`
	Meta     Meta            `json:"meta"`
	Subject  Reference       `json:"subject,omitempty"`
	Code     CodeableConcept `json:"code,omitempty"`
	Category []CodeableConcept `json:"category,omitempty"`
	Status   string          `json:"status,omitempty"`
	// EffectiveDateTime is the timestamp the "date" search parameter ranges
	// against. RFC3339 string, kept as the wire format rather than
	// time.Time so round-tripping an input the client sent is exact.
	EffectiveDateTime string `json:"effectiveDateTime,omitempty"`
}

func (o *ObservationResource) ResourceType() ResourceType { return Observation }
func (o *ObservationResource) ResourceID() string         { return o.ID }
func (o *ObservationResource) SetResourceID(id string)    { o.ID = id }
func (o *ObservationResource) GetMeta() *Meta             { return &o.Meta }

func (o *ObservationResource) Clone() Resource {
	cp := *o
	cp.Code.Coding = append([]Coding(nil), o.Code.Coding...)
	cp.Category = cloneConcepts(o.Category)
	return &cp
}

// MarshalJSON stamps the resourceType discriminator the wire format requires.
func (o *ObservationResource) MarshalJSON() ([]byte, error) {
	type alias ObservationResource
	return json.Marshal(&struct {
		ResourceType string `json:"resourceType"`
		*alias
	}{ResourceType: string(Observation), alias: (*alias)(o)})
}
