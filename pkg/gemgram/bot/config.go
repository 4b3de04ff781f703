// Package bot – config.go defines the runtime configuration.
package bot

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zawhtut/gemgram/pkg/gemgram/gemini"
	"github.com/zawhtut/gemgram/pkg/gemgram/history"
	"github.com/zawhtut/gemgram/pkg/gemgram/quota"
)

// AllowAll is the allow-list value that opens the bot to every group and
// channel. Empty means private conversations only.
const AllowAll = "ALL"

// Config is the full runtime configuration, loadable from YAML with
// environment-variable overrides layered on top.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Gemini   GeminiConfig   `yaml:"gemini"`

	// AllowedGroup routes group/channel messages: "ALL", a specific chat
	// identifier, or empty for private-only.
	AllowedGroup string `yaml:"allowed_group"`

	History HistoryConfig `yaml:"history"`
	Quota   QuotaConfig   `yaml:"quota"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// TelegramConfig identifies the personal account to automate.
type TelegramConfig struct {
	// APIID and APIHash are the application identity pair from my.telegram.org.
	APIID   int    `yaml:"api_id"`
	APIHash string `yaml:"api_hash"`

	// Session is the reusable login credential printed by `gemgram session`.
	Session string `yaml:"session"`
}

// GeminiConfig selects the completion backend.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// HistoryConfig bounds per-conversation memory.
type HistoryConfig struct {
	// MaxPairs is how many user/assistant pairs a transcript retains.
	MaxPairs int `yaml:"max_pairs"`
}

// QuotaConfig shapes the shared daily grounding budget.
type QuotaConfig struct {
	DailyLimit int `yaml:"daily_limit"`

	// Timezone is the reference zone for "today".
	Timezone string `yaml:"timezone"`

	// ResetAt is the scheduled roll-over wall-clock time (HH:MM) in the
	// reference zone. The lazy staleness check makes this an optimization,
	// not a correctness requirement.
	ResetAt string `yaml:"reset_at"`
}

// StoreConfig locates the persistent key-value database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|text
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model:   gemini.DefaultModel,
			BaseURL: gemini.DefaultBaseURL,
		},
		History: HistoryConfig{
			MaxPairs: history.DefaultMaxPairs,
		},
		Quota: QuotaConfig{
			DailyLimit: quota.DefaultDailyLimit,
			Timezone:   quota.DefaultZone,
			ResetAt:    "17:33",
		},
		Store: StoreConfig{
			Path: "./data/gemgram.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ApplyEnv overlays the recognized environment variables. Env wins over the
// config file so deployments can keep secrets out of it entirely.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.Telegram.APIID = id
		}
	}
	if v := os.Getenv("TELEGRAM_API_HASH"); v != "" {
		c.Telegram.APIHash = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_SESSION_STRING")); v != "" {
		c.Telegram.Session = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL_NAME"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("ALLOWED_GROUP_ID"); v != "" {
		c.AllowedGroup = v
	}
}

// Validate checks the settings required to enter steady state. These are
// the fatal startup errors: the process must refuse to run without them.
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("telegram.api_id is required (or set TELEGRAM_API_ID)")
	}
	if c.Telegram.APIHash == "" {
		return fmt.Errorf("telegram.api_hash is required (or set TELEGRAM_API_HASH)")
	}
	if c.Telegram.Session == "" {
		return fmt.Errorf("telegram.session is required: run 'gemgram session' to generate one (or set TELEGRAM_SESSION_STRING)")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required (or set GEMINI_API_KEY)")
	}
	return nil
}

// GroupAllowed reports whether a group/channel chat id passes the
// configured allow-list.
func (c *Config) GroupAllowed(chatID int64) bool {
	switch {
	case strings.EqualFold(c.AllowedGroup, AllowAll):
		return true
	case c.AllowedGroup == "":
		return false
	default:
		return c.AllowedGroup == strconv.FormatInt(chatID, 10)
	}
}
