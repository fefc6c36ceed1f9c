package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 0, cfg.Catalog.MaxAttempts)
	assert.Equal(t, "fixed", cfg.Catalog.Backoff)
	assert.Equal(t, 1000, cfg.Catalog.BackoffMillis)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[catalog]
backoff = "exponential"
max_attempts = 5
max_concurrent = 2

[logging]
level = "debug"
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SLIMELIST_JWT_TTL_HOURS=2\n"), 0o600))
	// godotenv writes straight into the process environment
	t.Cleanup(func() { _ = os.Unsetenv("SLIMELIST_JWT_TTL_HOURS") })
	t.Setenv("SLIMELIST_CATALOG_MAX_ATTEMPTS", "7")
	t.Setenv("SLIMELIST_LOG_JSON", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "exponential", cfg.Catalog.Backoff)
	assert.Equal(t, 7, cfg.Catalog.MaxAttempts)
	assert.Equal(t, 2, cfg.Catalog.MaxConcurrent)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTDuration)
}

func TestLoadRejectsBadFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[catalog\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "pgx" }},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"bad backoff", func(c *Config) { c.Catalog.Backoff = "jitter" }},
		{"negative attempts", func(c *Config) { c.Catalog.MaxAttempts = -1 }},
		{"zero concurrency", func(c *Config) { c.Catalog.MaxConcurrent = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
