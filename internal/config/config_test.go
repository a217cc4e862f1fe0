package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PLATFORM_URL", "https://proj.example.co/")
	t.Setenv("PLATFORM_ANON_KEY", "anon")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("BILLING_NOISE_RETRY_SECONDS", "3")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "https://proj.example.co", cfg.Platform.URL)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, "127.0.0.1:5174", cfg.Addr())
	assert.Equal(t, 3*time.Second, cfg.Billing.NoiseRetryDelay)
	assert.Equal(t, "checkout", cfg.Billing.ReturnParam)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadConfig_ReadsEnvFile(t *testing.T) {
	t.Setenv("PLATFORM_URL", "")
	t.Setenv("PLATFORM_ANON_KEY", "")
	os.Unsetenv("PLATFORM_URL")
	os.Unsetenv("PLATFORM_ANON_KEY")
	f := filepath.Join(t.TempDir(), "companion.env")
	require.NoError(t, os.WriteFile(f, []byte("PLATFORM_URL=https://file.example.co\nPLATFORM_ANON_KEY=file-anon\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PLATFORM_URL")
		os.Unsetenv("PLATFORM_ANON_KEY")
	})

	cfg, err := LoadConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.co", cfg.Platform.URL)
	assert.Equal(t, "file-anon", cfg.Platform.AnonKey)
}

func TestLoadConfig_MissingPlatform(t *testing.T) {
	t.Setenv("PLATFORM_URL", "")
	t.Setenv("PLATFORM_ANON_KEY", "")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrMissingPlatform)
}

func TestLoadConfig_BackendValidation(t *testing.T) {
	t.Setenv("PLATFORM_URL", "https://proj.example.co")
	t.Setenv("PLATFORM_ANON_KEY", "anon")
	t.Setenv("REDIS_HOST", "")

	t.Setenv("SESSION_BACKEND", "floppy")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("SESSION_BACKEND", "redis")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
