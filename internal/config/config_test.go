package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weare-health/fhir-session-gateway/internal/config"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("WEARE_TEST_VALUE", "")
	assert.Equal(t, "fallback", config.EnvOrDefault("WEARE_TEST_VALUE", "fallback"))

	t.Setenv("WEARE_TEST_VALUE", "set")
	assert.Equal(t, "set", config.EnvOrDefault("WEARE_TEST_VALUE", "fallback"))
}
