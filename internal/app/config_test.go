package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("PUBLIC_URL", "https://buensabor.test/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "https://buensabor.test", cfg.PublicURL)
	assert.Equal(t, uint32(5), cfg.BackendBreakerFailures)
	assert.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "c")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsRelativeBackend(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_URL", "api.local")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestIsProductionNilSafe(t *testing.T) {
	var cfg *Config
	assert.False(t, cfg.IsProduction())
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
}
