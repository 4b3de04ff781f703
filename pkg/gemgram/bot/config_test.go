package bot

import (
	"testing"

	"github.com/zawhtut/gemgram/pkg/gemgram/quota"
)

func TestParseConfigOverlaysDefaults(t *testing.T) {
	yaml := `
telegram:
  api_id: 12345
  api_hash: abc
gemini:
  api_key: secret
quota:
  daily_limit: 50
allowed_group: "-100987"
`
	cfg, err := ParseConfig([]byte(yaml))
	if err != nil {
		t.Fatalf("ParseConfig() error: %v", err)
	}
	if cfg.Telegram.APIID != 12345 {
		t.Fatalf("APIID = %d, want 12345", cfg.Telegram.APIID)
	}
	if cfg.Quota.DailyLimit != 50 {
		t.Fatalf("DailyLimit = %d, want overlay value 50", cfg.Quota.DailyLimit)
	}
	// Untouched keys keep their defaults.
	if cfg.Quota.Timezone != quota.DefaultZone {
		t.Fatalf("Timezone = %q, want default %q", cfg.Quota.Timezone, quota.DefaultZone)
	}
	if cfg.Quota.ResetAt != "17:33" {
		t.Fatalf("ResetAt = %q, want default 17:33", cfg.Quota.ResetAt)
	}
	if cfg.History.MaxPairs != 10 {
		t.Fatalf("MaxPairs = %d, want default 10", cfg.History.MaxPairs)
	}
}

func TestParseConfigRejectsBadYAML(t *testing.T) {
	if _, err := ParseConfig([]byte("telegram: [not a mapping")); err == nil {
		t.Fatalf("ParseConfig() accepted malformed YAML")
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "999")
	t.Setenv("TELEGRAM_API_HASH", "envhash")
	t.Setenv("TELEGRAM_SESSION_STRING", "  envsession  ")
	t.Setenv("GEMINI_API_KEY", "envkey")
	t.Setenv("GEMINI_MODEL_NAME", "envmodel")
	t.Setenv("ALLOWED_GROUP_ID", "ALL")

	cfg := DefaultConfig()
	cfg.Telegram.APIID = 1
	cfg.Gemini.APIKey = "filekey"
	cfg.ApplyEnv()

	if cfg.Telegram.APIID != 999 {
		t.Fatalf("APIID = %d, want env override 999", cfg.Telegram.APIID)
	}
	if cfg.Telegram.Session != "envsession" {
		t.Fatalf("Session = %q, want trimmed env value", cfg.Telegram.Session)
	}
	if cfg.Gemini.APIKey != "envkey" {
		t.Fatalf("APIKey = %q, want env override", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "envmodel" {
		t.Fatalf("Model = %q, want env override", cfg.Gemini.Model)
	}
	if cfg.AllowedGroup != "ALL" {
		t.Fatalf("AllowedGroup = %q, want ALL", cfg.AllowedGroup)
	}
}

func TestApplyEnvIgnoresBadAPIID(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "not-a-number")
	cfg := DefaultConfig()
	cfg.Telegram.APIID = 7
	cfg.ApplyEnv()
	if cfg.Telegram.APIID != 7 {
		t.Fatalf("APIID = %d, want unparseable env ignored", cfg.Telegram.APIID)
	}
}

func TestValidate(t *testing.T) {
	full := func() *Config {
		cfg := DefaultConfig()
		cfg.Telegram.APIID = 1
		cfg.Telegram.APIHash = "h"
		cfg.Telegram.Session = "s"
		cfg.Gemini.APIKey = "k"
		return cfg
	}
	if err := full().Validate(); err != nil {
		t.Fatalf("Validate() on complete config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api id", func(c *Config) { c.Telegram.APIID = 0 }},
		{"missing api hash", func(c *Config) { c.Telegram.APIHash = "" }},
		{"missing session", func(c *Config) { c.Telegram.Session = "" }},
		{"missing gemini key", func(c *Config) { c.Gemini.APIKey = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate() accepted incomplete config")
			}
		})
	}
}

func TestGroupAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		chatID  int64
		want    bool
	}{
		{"all uppercase", "ALL", -100123, true},
		{"all lowercase", "all", -100123, true},
		{"empty means no groups", "", -100123, false},
		{"matching id", "-100123", -100123, true},
		{"other id", "-100123", -100999, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AllowedGroup = tt.allowed
			if got := cfg.GroupAllowed(tt.chatID); got != tt.want {
				t.Fatalf("GroupAllowed(%d) with %q = %v, want %v", tt.chatID, tt.allowed, got, tt.want)
			}
		})
	}
}
