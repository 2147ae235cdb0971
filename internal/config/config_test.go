package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "HTTP_PORT", "STORE_BACKEND", "GROQ_API_KEY", "GROQ_MODEL", "FUNCTIONS_URL", "SWEEP_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Empty(t, cfg.Groq.APIKey)
	assert.Equal(t, "llama3-8b-8192", cfg.Groq.Model)
	assert.Equal(t, "http://localhost:8081/functions/v1", cfg.FunctionsURL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("ACCESS_TTL", "5m")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("FUNCTIONS_URL", "")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg := Load()

	assert.True(t, cfg.Production())
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, "gsk_test", cfg.Groq.APIKey)
	assert.Equal(t, "http://localhost:9000/functions/v1", cfg.FunctionsURL)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}
