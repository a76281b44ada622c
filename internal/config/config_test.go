package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GIN_MODE", "TRANSLATE_BACKEND", "TRANSLATE_CHUNK_SIZE", "MAX_UPLOAD_MB", "WORKER_COUNT"} {
		t.Setenv(key, "")
	}
	t.Setenv("GIN_MODE", "test")
	t.Setenv("TRANSLATE_BACKEND", "http")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.TranslateChunkSize)
	assert.Equal(t, 3, cfg.WorkerCount)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GIN_MODE", "test")
	t.Setenv("TRANSLATE_BACKEND", "llm")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("WORKER_COUNT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "llm", cfg.TranslateBackend)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes())
	assert.Equal(t, 3, cfg.WorkerCount, "unparseable ints fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GinMode:            "debug",
			TranslateBackend:   "http",
			TranslateChunkSize: 4000,
			MaxUploadMB:        50,
			JWTSecret:          "dev-jwt-secret-change-in-production",
		}
	}
	require.NoError(t, valid().validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.TranslateBackend = "deepl" }},
		{"tiny chunks", func(c *Config) { c.TranslateChunkSize = 10 }},
		{"no upload size", func(c *Config) { c.MaxUploadMB = 0 }},
		{"release with default secret", func(c *Config) { c.GinMode = "release"; c.AdminAPIKey = "admin" }},
		{"release without admin key", func(c *Config) { c.GinMode = "release"; c.JWTSecret = "real-secret" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}

	cfg := valid()
	cfg.GinMode, cfg.JWTSecret, cfg.AdminAPIKey = "release", "real-secret", "admin"
	assert.NoError(t, cfg.validate())
}

func TestFindFirst(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", findFirst([]string{dir + "/missing"}))
	assert.Equal(t, dir, findFirst([]string{dir + "/missing", dir}))
}
