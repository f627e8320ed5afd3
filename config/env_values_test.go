package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("IS_DOCKER", "true")

	require.NoError(t, LoadEnv())
	assert.Equal(t, "http://localhost:8000", Env.APIBaseURL)
	assert.Equal(t, "/login", Env.LoginPath)
	assert.Equal(t, 30, Env.RequestTimeoutSecs)
	assert.Equal(t, "8000", Env.DevServerPort)
	assert.Equal(t, 1000*60*15, Env.JWTExpirationMilliseconds)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("IS_DOCKER", "true")
	t.Setenv("DOCQUERY_API_URL", "https://api.example.com")
	t.Setenv("DOCQUERY_REQUEST_TIMEOUT_SECS", "5")

	require.NoError(t, LoadEnv())
	assert.Equal(t, "https://api.example.com", Env.APIBaseURL)
	assert.Equal(t, 5, Env.RequestTimeoutSecs)
}

func TestLoadEnvRejectsBadBaseURL(t *testing.T) {
	t.Setenv("IS_DOCKER", "true")
	t.Setenv("DOCQUERY_API_URL", "localhost:8000")

	assert.Error(t, LoadEnv())
}

func TestLoadEnvInvalidIntFallsBack(t *testing.T) {
	t.Setenv("IS_DOCKER", "true")
	t.Setenv("DOCQUERY_REQUEST_TIMEOUT_SECS", "not-a-number")

	require.NoError(t, LoadEnv())
	assert.Equal(t, 30, Env.RequestTimeoutSecs)
}
