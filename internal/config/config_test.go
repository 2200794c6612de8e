package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the planner keys; envconfig treats a set-but-empty
// variable as a value, not as missing.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "GEMINI_API_KEY", "API_KEY", "GEMINI_MODEL",
		"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "LOG_LEVEL", "SYNC_DELAY", "TIMEZONE", "BRIEFING_TIME",
	} {
		prev, ok := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		key := k
		t.Cleanup(func() {
			if ok {
				_ = os.Setenv(key, prev)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "synclife.db", cfg.DatabaseURL)
	assert.Equal(t, "gemini-3-pro-preview", cfg.GeminiModel)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 800*time.Millisecond, cfg.SyncDelay)
	assert.Equal(t, "06:00", cfg.BriefingTime)
	assert.False(t, cfg.TelegramEnabled())
	assert.Error(t, cfg.RequireGenerator())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadLegacyAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", " legacy-key ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.GeminiAPIKey)
	assert.NoError(t, cfg.RequireGenerator())
}

func TestLoadPrefersGeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.GeminiAPIKey)
}

func TestLoadTelegram(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, int64(42), cfg.TelegramChatID)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("SYNC_DELAY", "-1s")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	_, err = Load()
	assert.Error(t, err)
}
