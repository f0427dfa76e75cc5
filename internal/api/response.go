// Package api implements the HTTP REST surface of the gateway: the chi
// router tree under /fhir, per-type CRUD and search handlers, the
// capability statement, and the response helpers every handler uses to map
// provider/session errors onto the status codes of spec.md §6/§7. Built in
// the shape of the teacher's internal/api package (one file per concern,
// response.go owning the status-code vocabulary), generalized from the
// teacher's {"data": ...} envelope to direct FHIR resource/bundle bodies,
// since the wire format here is application/fhir+json, not an API
// envelope.
package api

import (
	"encoding/json"
	"io"
	"net/http"
)

const fhirContentType = "application/fhir+json"

// writeJSON writes payload as the raw response body (no envelope — payload
// is already a FHIR resource or Bundle, which self-describes via its
// resourceType field) with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", fhirContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Ok writes a 200 OK response.
func Ok(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, payload)
}

// Created writes a 201 Created response with a Location header pointing at
// the versioned resource URL, per spec.md §6.
func Created(w http.ResponseWriter, location string, payload any) {
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusCreated, payload)
}

// outcome is a minimal OperationOutcome-shaped error body — enough for a
// FHIR-aware client to read a human-readable diagnostic without this
// gateway carrying a full OperationOutcome resource model.
type outcome struct {
	ResourceType string          `json:"resourceType"`
	Issue        []outcomeDetail `json:"issue"`
}

type outcomeDetail struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics"`
}

func writeOutcome(w http.ResponseWriter, status int, severity, code, message string) {
	writeJSON(w, status, outcome{
		ResourceType: "OperationOutcome",
		Issue: []outcomeDetail{
			{Severity: severity, Code: code, Diagnostics: message},
		},
	})
}

// ErrBadRequest writes a 400 — malformed body or wrong resourceType in path.
func ErrBadRequest(w http.ResponseWriter, message string) {
	writeOutcome(w, http.StatusBadRequest, "error", "invalid", message)
}

// ErrUnauthorized writes a 401 — missing/malformed/expired bearer.
func ErrUnauthorized(w http.ResponseWriter) {
	writeOutcome(w, http.StatusUnauthorized, "error", "login", "authentication required")
}

// ErrNotFound writes a 404 — no such id, or an explicit version absent.
func ErrNotFound(w http.ResponseWriter) {
	writeOutcome(w, http.StatusNotFound, "error", "not-found", "resource not found")
}

// Deleted writes a 200 with an OperationOutcome-shaped success body, per
// spec.md §8 scenario 3 ("DELETE /Patient/1 → 200").
func Deleted(w http.ResponseWriter) {
	writeOutcome(w, http.StatusOK, "information", "informational", "resource deleted")
}

// ErrGone writes a 410 — tombstoned id. Flagged addition over the
// teacher's response.go vocabulary: the teacher's domain has no
// soft-delete concept, this gateway's does.
func ErrGone(w http.ResponseWriter) {
	writeOutcome(w, http.StatusGone, "error", "deleted", "resource has been deleted")
}

// ErrInternal writes a 500. The internal error detail is intentionally not
// exposed to the client.
func ErrInternal(w http.ResponseWriter) {
	writeOutcome(w, http.StatusInternalServerError, "error", "exception", "an internal error occurred")
}

// decodeBody reads and size-limits the request body. Callers pass it to
// fhir.DecodeJSON rather than json.Unmarshal directly, since resource
// decoding must also validate the resourceType-vs-path-type match.
func decodeBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		ErrBadRequest(w, "request body exceeds the 1MB limit or could not be read")
		return nil, false
	}
	return body, true
}
