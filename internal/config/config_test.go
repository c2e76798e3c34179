package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "DATABASE_URL", "AUTH_MODE", "MAX_CHORDS", "BATCH_CONCURRENCY", "DEFAULT_STYLE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "harmonizer.sqlite3", cfg.DatabaseURL)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.Equal(t, "pop", cfg.DefaultStyle)
	assert.Equal(t, 256, cfg.MaxChords)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.False(t, cfg.IsGatewayMode())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("MAX_CHORDS", "32")
	t.Setenv("BATCH_CONCURRENCY", "zero")
	t.Setenv("PREVIEW_SAMPLE_RATE", "-1")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.IsJWTMode())
	assert.Equal(t, 32, cfg.MaxChords)
	assert.Equal(t, 4, cfg.BatchConcurrency)
	assert.Equal(t, 22050, cfg.PreviewSampleRate)
}
