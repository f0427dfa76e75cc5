package pod_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/pod"
)

// fakePod is a minimal in-memory Solid pod: HEAD always reports the
// container exists (skipping bootstrap PUTs), PUT stores the body at its
// path, GET returns the body stored at exactly that path (a container
// listing is only served if a test stores one at the container path).
type fakePod struct {
	mu      sync.Mutex
	docs    map[string][]byte
	deletes map[string]bool
}

func newFakePod() *fakePod {
	return &fakePod{docs: make(map[string][]byte), deletes: make(map[string]bool)}
}

func (f *fakePod) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.docs[r.URL.Path] = body
			delete(f.deletes, r.URL.Path)
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			if _, ok := f.docs[r.URL.Path]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(f.docs, r.URL.Path)
			f.deletes[r.URL.Path] = true
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			if body, ok := f.docs[r.URL.Path]; ok {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func TestClient_Disabled_AllMethodsNoop(t *testing.T) {
	c := pod.New(pod.Config{Disabled: true}, zap.NewNop())
	assert.False(t, c.Enabled())

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "https://example.org/profile/card#me", "tok", fhir.Patient, &fhir.PatientResource{ID: "p1"}))
	require.NoError(t, c.Delete(ctx, "https://example.org/profile/card#me", "tok", fhir.Patient, "p1"))
	resources, err := c.List(ctx, "https://example.org/profile/card#me", "tok", fhir.Patient)
	require.NoError(t, err)
	assert.Nil(t, resources)
}

func TestClient_Put_And_Delete(t *testing.T) {
	fake := newFakePod()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := pod.New(pod.Config{Timeout: 5 * time.Second, ContainerPath: "/weare/fhir"}, zap.NewNop())
	webID := srv.URL + "/profile/card#me"

	ctx := context.Background()
	patient := &fhir.PatientResource{ID: "p1", BirthDate: "1990-01-01"}
	patient.Meta.VersionID = "1"
	patient.Meta.LastUpdated = time.Now()

	require.NoError(t, c.Put(ctx, webID, "tok", fhir.Patient, patient))

	resourceURL, err := c.ResourceURL(webID, fhir.Patient, "p1")
	require.NoError(t, err)

	fake.mu.Lock()
	_, stored := fake.docs[mustPath(t, resourceURL)]
	fake.mu.Unlock()
	assert.True(t, stored)

	require.NoError(t, c.Delete(ctx, webID, "tok", fhir.Patient, "p1"))

	// deleting again is idempotent: the fake pod now 404s, which Delete
	// treats as success.
	require.NoError(t, c.Delete(ctx, webID, "tok", fhir.Patient, "p1"))
}

func TestClient_List_RoundTripsStoredResources(t *testing.T) {
	fake := newFakePod()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := pod.New(pod.Config{Timeout: 5 * time.Second, ContainerPath: "/weare/fhir"}, zap.NewNop())
	webID := srv.URL + "/profile/card#me"
	ctx := context.Background()

	patient := &fhir.PatientResource{ID: "p1", BirthDate: "1990-01-01"}
	patient.Meta.VersionID = "1"
	require.NoError(t, c.Put(ctx, webID, "tok", fhir.Patient, patient))

	containerURL, err := c.ContainerURL(webID, fhir.Patient)
	require.NoError(t, err)
	resourceURL, err := c.ResourceURL(webID, fhir.Patient, "p1")
	require.NoError(t, err)

	containerListing := []byte("<" + containerURL + "> <http://www.w3.org/ns/ldp#contains> <" + resourceURL + "> .\n")
	fake.mu.Lock()
	fake.docs[mustPath(t, containerURL)] = containerListing
	fake.mu.Unlock()

	resources, err := c.List(ctx, webID, "tok", fhir.Patient)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "p1", resources[0].ResourceID())
}

func TestClient_List_404ContainerReturnsEmptyNotError(t *testing.T) {
	fake := newFakePod()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := pod.New(pod.Config{Timeout: 5 * time.Second}, zap.NewNop())
	webID := srv.URL + "/profile/card#me"

	resources, err := c.List(context.Background(), webID, "tok", fhir.Observation)
	require.NoError(t, err)
	assert.Empty(t, resources)
}

func mustPath(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Path
}
