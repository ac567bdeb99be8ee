package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Verification.SessionTTL)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "did:ethr:verifyx", cfg.Issuer.DID)
	assert.Equal(t, "VerifyX", cfg.Issuer.Name)
	assert.Equal(t, 365*24*time.Hour, cfg.Issuer.Validity)
	assert.Equal(t, "log", cfg.Audit.Sink)
	assert.Empty(t, cfg.Database.URL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VERIFICATION_SESSION_TTL", "45m")
	t.Setenv("RATE_LIMIT_REQUESTS", "3")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	t.Setenv("VERIFICATION_STORE", "Redis")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.Verification.SessionTTL)
	assert.Equal(t, 3, cfg.RateLimit.Requests)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "redis", cfg.Verification.StoreBackend)
}

func TestFromEnvCollectsErrors(t *testing.T) {
	t.Setenv("VERIFICATION_SESSION_TTL", "soon")
	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	t.Setenv("AUDIT_SINK", "s3")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERIFICATION_SESSION_TTL")
	assert.Contains(t, err.Error(), "RATE_LIMIT_REQUESTS must be positive")
	assert.Contains(t, err.Error(), "AUDIT_SINK")
}
