package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("API_TOKEN_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, int32(20), cfg.PoolMaxConns)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 600, cfg.RateLimitPerMinute)
	assert.Equal(t, 120, cfg.RateLimitBurst)
	assert.Equal(t, 5*time.Minute, cfg.ContextCacheTTL)
	assert.False(t, cfg.DevMode)
	require.NoError(t, cfg.Validate())
}

func TestLoadDisabledTools(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("API_TOKEN_SECRET", "s3cret")
	t.Setenv("TOOLS_DISABLED", "manage_agent, call_agent")

	cfg := Load()
	assert.True(t, cfg.DisabledTools["manage_agent"])
	assert.True(t, cfg.DisabledTools["call_agent"])
	assert.False(t, cfg.DisabledTools["manage_task"])
}

func TestValidateRequiresDatabase(t *testing.T) {
	cfg := &Config{APITokenSecret: "x"}
	require.Error(t, cfg.Validate())
}

func TestValidateIssuerAndJWKSTravelTogether(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", APITokenSecret: "s", JWKSURL: "https://idp/jwks"}
	require.Error(t, cfg.Validate())

	cfg = &Config{DatabaseURL: "postgres://x", APITokenSecret: "s", PlatformIssuer: "https://idp"}
	require.Error(t, cfg.Validate())

	cfg = &Config{
		DatabaseURL:    "postgres://x",
		APITokenSecret: "s",
		PlatformIssuer: "https://idp",
		JWKSURL:        "https://idp/jwks",
	}
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresSomeAuthMode(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x"}
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	cfg := &Config{
		DatabaseURL:    "postgres://x",
		APITokenSecret: "dev-secret-change-in-production",
	}
	require.Error(t, cfg.Validate())

	cfg.DevMode = true
	require.NoError(t, cfg.Validate())
}
