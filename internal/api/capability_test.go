package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weare-health/fhir-session-gateway/internal/api"
)

func TestMetadata_ListsAllSixResourceTypes(t *testing.T) {
	rr := httptest.NewRecorder()
	api.Metadata(rr, httptest.NewRequest(http.MethodGet, "/fhir/metadata", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		ResourceType string `json:"resourceType"`
		Rest         []struct {
			Resources []struct {
				Type string `json:"type"`
			} `json:"resource"`
		} `json:"rest"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "CapabilityStatement", body.ResourceType)
	require.Len(t, body.Rest, 1)
	assert.Len(t, body.Rest[0].Resources, 6)
}
