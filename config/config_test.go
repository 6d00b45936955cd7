package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EVENT_ID", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("SCAN_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Scanner.Interval)
	assert.Equal(t, 3*time.Second, cfg.Scanner.ErrorCooldown)
	assert.Equal(t, 3*time.Second, cfg.Scanner.SuccessDisplay)
	assert.Equal(t, "EVT-", cfg.Scanner.PayloadPrefix)
	assert.Equal(t, 6, cfg.Manual.CodeLength)
	assert.Equal(t, 5*time.Second, cfg.Manual.PopupDismiss)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EVENT_ID", "42")
	t.Setenv("API_BASE_URL", "https://api.example.com/api/")
	t.Setenv("SCAN_INTERVAL", "250ms")
	t.Setenv("ERROR_COOLDOWN", "not-a-duration")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Scanner.EventID)
	assert.Equal(t, "https://api.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Scanner.Interval)
	assert.Equal(t, 3*time.Second, cfg.Scanner.ErrorCooldown)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsBadEventID(t *testing.T) {
	t.Setenv("EVENT_ID", "abc")
	_, err := Load()
	assert.Error(t, err)
}
