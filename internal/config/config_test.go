package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("PROVIDER_CLIENT_ID", "client-123")
	t.Setenv("PROVIDER_CLIENT_SECRET", "very-secret")
	t.Setenv("PROFILE_STORE", "sqlite")
	t.Setenv("SESSION_MINTER", "jwt")
	t.Setenv("SESSION_JWT_SECRET", "jwt-secret")
}

func TestLoad_DefaultsAndDerivedValues(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "vk", cfg.ProviderName)
	assert.Equal(t, "vk.com", cfg.ProviderDomain)
	assert.Equal(t, "client-123", cfg.ProviderAudience, "audience falls back to client id")
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 30*time.Second, cfg.ServerTimeout)
	assert.Equal(t, 60*time.Minute, cfg.SessionJWTLifetime)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.FirebaseRequired())
	assert.ElementsMatch(t, []string{"very-secret", "jwt-secret"}, cfg.Secrets())
}

func TestLoad_CORSOriginsList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_RejectsMissingClientCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PROVIDER_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER_CLIENT_SECRET")
}

func TestLoad_RejectsUnknownStore(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PROFILE_STORE", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROFILE_STORE")
}

func TestLoad_JWTMinterNeedsSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_JWT_SECRET")
}

func TestLoad_FirebaseKeyFileChecked(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_MINTER", "firebase")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", filepath.Join(t.TempDir(), "missing.json"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	keyPath := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(keyPath, []byte(`{}`), 0o600))
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", keyPath)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.FirebaseRequired())
}
