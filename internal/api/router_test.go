package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/api"
	"github.com/weare-health/fhir-session-gateway/internal/metrics"
	"github.com/weare-health/fhir-session-gateway/internal/sessionstore"
)

func bearerToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret-unverified"))
	require.NoError(t, err)
	return signed
}

func TestNewRouter_PublicEndpointsNeedNoAuth(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Store:   sessionstore.New(zap.NewNop()),
		Metrics: metrics.New(nil),
		Logger:  zap.NewNop(),
	})

	for _, target := range []string{"/metrics", "/swagger-ui", "/api-docs"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.NotEqual(t, http.StatusUnauthorized, rr.Code, target)
	}
}

func TestNewRouter_FhirMetadataIsPublic(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Store:   sessionstore.New(zap.NewNop()),
		Metrics: metrics.New(nil),
		Logger:  zap.NewNop(),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fhir/metadata", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewRouter_PatientRouteRequiresAuth(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Store:   sessionstore.New(zap.NewNop()),
		Metrics: metrics.New(nil),
		Logger:  zap.NewNop(),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fhir/Patient/p1", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNewRouter_PatientCreateReadThroughFullStack(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Store:   sessionstore.New(zap.NewNop()),
		Metrics: metrics.New(nil),
		Logger:  zap.NewNop(),
	})

	token := bearerToken(t, jwt.MapClaims{"sub": "https://pod.example/profile/card#me", "jti": "tok2"})
	auth := "Bearer " + token

	createReq := httptest.NewRequest(http.MethodPost, "/fhir/Patient", bytes.NewReader([]byte(`{"birthDate":"1990-01-01"}`)))
	createReq.Header.Set("Authorization", auth)
	createRR := httptest.NewRecorder()
	router.ServeHTTP(createRR, createReq)
	require.Equal(t, http.StatusCreated, createRR.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(createRR.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	readReq := httptest.NewRequest(http.MethodGet, "/fhir/Patient/"+created.ID, nil)
	readReq.Header.Set("Authorization", auth)
	readRR := httptest.NewRecorder()
	router.ServeHTTP(readRR, readReq)
	assert.Equal(t, http.StatusOK, readRR.Code)
}

func TestNewRouter_StaticRegistryRouteIsMounted(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Store:   sessionstore.New(zap.NewNop()),
		Metrics: metrics.New(nil),
		Logger:  zap.NewNop(),
	})

	token := bearerToken(t, jwt.MapClaims{"sub": "https://pod.example/profile/card#me", "jti": "tok3"})
	req := httptest.NewRequest(http.MethodGet, "/fhir/Questionnaire", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
