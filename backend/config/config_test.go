package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.AutoAdvanceDelay)
	assert.Equal(t, 120, cfg.DefaultDurationMinutes)
	assert.Equal(t, 256, cfg.MediaCacheEntries)
	assert.Equal(t, 20*time.Second, cfg.MediaFetchTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionRetention)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("AUTO_ADVANCE_DELAY", "500ms")
	t.Setenv("DEFAULT_DURATION_MINUTES", "60")
	t.Setenv("MEDIA_BASE_URL", "https://api.example.com")
	t.Setenv("LOG_COLORS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 500*time.Millisecond, cfg.AutoAdvanceDelay)
	assert.Equal(t, 60, cfg.DefaultDurationMinutes)
	assert.Equal(t, "https://api.example.com", cfg.MediaBaseURL)
	assert.False(t, cfg.LogColors)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MEDIA_CACHE_ENTRIES", "lots")
	t.Setenv("SESSION_RETENTION", "forever")
	t.Setenv("LOG_COLORS", "maybe")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.MediaCacheEntries)
	assert.Equal(t, 30*time.Minute, cfg.SessionRetention)
	assert.True(t, cfg.LogColors)
}
