package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL    string        `envconfig:"DATABASE_URL" default:"synclife.db"`
	GeminiAPIKey   string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel    string        `envconfig:"GEMINI_MODEL" default:"gemini-3-pro-preview"`
	TelegramToken  string        `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID int64         `envconfig:"TELEGRAM_CHAT_ID"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	SyncDelay      time.Duration `envconfig:"SYNC_DELAY" default:"800ms"`
	Timezone       string        `envconfig:"TIMEZONE" default:"Local"`
	BriefingTime   string        `envconfig:"BRIEFING_TIME" default:"06:00"` // HH:MM, empty disables
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}

	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	if cfg.GeminiAPIKey == "" {
		var legacy struct {
			APIKey string `envconfig:"API_KEY"`
		}
		if err := envconfig.Process("", &legacy); err == nil {
			cfg.GeminiAPIKey = strings.TrimSpace(legacy.APIKey)
		}
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	if cfg.SyncDelay < 0 {
		return cfg, fmt.Errorf("SYNC_DELAY must not be negative")
	}
	cfg.BriefingTime = strings.TrimSpace(cfg.BriefingTime)
	if _, err := cfg.Location(); err != nil {
		return cfg, fmt.Errorf("TIMEZONE: %w", err)
	}

	return cfg, nil
}

// RequireGenerator checks the settings needed to call the schedule generator.
func (c Config) RequireGenerator() error {
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	return nil
}

// TelegramEnabled reports whether the chat front-end should start.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
