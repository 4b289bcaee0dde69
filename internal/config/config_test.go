package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Interval)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ASANA_ACCESS_TOKEN", "pat-123")
	t.Setenv("KNOWSYNC_ADDR", ":9090")
	t.Setenv("KNOWSYNC_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("KNOWSYNC_SYNC_ENABLED", "false")
	t.Setenv("KNOWSYNC_SYNC_INTERVAL", "6h")

	cfg := Load()

	assert.Equal(t, "pat-123", cfg.AsanaAccessToken)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 6*time.Hour, cfg.Scheduler.Interval)
}

func TestLoadIgnoresBadInterval(t *testing.T) {
	t.Setenv("KNOWSYNC_SYNC_INTERVAL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Interval)
}
