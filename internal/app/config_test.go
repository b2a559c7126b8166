package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BASE_URL", "https://auth.example.com")
	t.Setenv("SIGNING_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "gatehouse_session", cfg.SessionCookie)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.DevRoutes)
	assert.True(t, cfg.SingleCookie)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresBaseURL(t *testing.T) {
	t.Setenv("SIGNING_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("BASE_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsRelativeBaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BASE_URL", "/just/a/path")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsShortSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SIGNING_SECRET", "tooshort")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DEV_ROUTES", "true")
	t.Setenv("TRUSTED_ORIGINS", "https://app.example.com,https://admin.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.DevRoutes)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.TrustedOrigins)
}
