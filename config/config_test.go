package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this file mutate the process environment and cannot run in parallel.

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("DATABASE_NAME", "welcomer")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./assets", cfg.AssetsDir)
	assert.Equal(t, 30*time.Second, cfg.PromptTimeout)
	assert.Equal(t, 5.0, cfg.AvatarFetchRate)
	assert.Equal(t, 10, cfg.AvatarFetchBurst)
	assert.Equal(t, int64(8<<20), cfg.MaxUploadBytes)
	assert.Empty(t, cfg.NATSServers)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "postgres://localhost:5432/welcomer?sslmode=disable", cfg.GetDatabaseURL())
	assert.Equal(t, filepath.Join("data", "templates"), cfg.TemplatesDir())
	assert.Equal(t, filepath.Join("data", "welcome_imgs"), cfg.PoolImagesDir())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("PROMPT_TIMEOUT_SECONDS", "5")
	t.Setenv("AVATAR_FETCH_RATE", "0.5")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_TYPE", "otlp")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PromptTimeout)
	assert.Equal(t, 0.5, cfg.AvatarFetchRate)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, "otlp", cfg.OTelExporterType)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{"DATABASE_URL": "postgres://x"}},
		{name: "missing database", env: map[string]string{"DISCORD_TOKEN": "t"}},
		{name: "bad timeout", env: map[string]string{"ENVIRONMENT": "test", "PROMPT_TIMEOUT_SECONDS": "soon"}},
		{name: "zero timeout", env: map[string]string{"ENVIRONMENT": "test", "PROMPT_TIMEOUT_SECONDS": "0"}},
		{name: "unknown exporter", env: map[string]string{"ENVIRONMENT": "test", "OTEL_EXPORTER_TYPE": "zipkin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DISCORD_TOKEN", "")
			t.Setenv("DATABASE_URL", "")
			t.Setenv("ENVIRONMENT", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSetTestConfig(t *testing.T) {
	t.Cleanup(ResetConfig)

	cfg := NewTestConfig()
	cfg.GuildID = "42"
	SetTestConfig(cfg)

	assert.Same(t, cfg, Get())
}
