package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "DATABASE_URL", "GYM_TIMEZONE", "RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_BURST", "GYMDESK_API_URL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "America/Mexico_City", cfg.Timezone.String())
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:5173")
	assert.False(t, cfg.UsesPostgres())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORT=7000\nSERVICE_NAME=frontdesk\n"), 0o600))

	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	unsetEnv(t, "SERVICE_NAME")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "frontdesk", cfg.ServiceName)
	assert.True(t, cfg.IsProduction())
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("GYM_TIMEZONE", "Mars/Olympus_Mons")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestGetInt(t *testing.T) {
	t.Setenv("GYMDESK_TEST_INT", "not-a-number")
	assert.Equal(t, 5, GetInt("GYMDESK_TEST_INT", 5))

	t.Setenv("GYMDESK_TEST_INT", " 12 ")
	assert.Equal(t, 12, GetInt("GYMDESK_TEST_INT", 5))
}

func TestGetList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://desk.example.mx, ,http://localhost:5173 ")
	assert.Equal(t, []string{"https://desk.example.mx", "http://localhost:5173"}, GetList("CORS_ALLOWED_ORIGINS", nil))

	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Equal(t, DefaultAllowedOrigins, GetList("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins))
}
