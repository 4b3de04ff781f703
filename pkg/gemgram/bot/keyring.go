// Package bot – keyring.go provides secure credential storage using the
// operating system's native keyring.
//
// Priority for resolving secrets:
//  1. OS keyring (most secure — encrypted by the OS)
//  2. Environment variable (GEMINI_API_KEY, TELEGRAM_SESSION_STRING)
//  3. .env file (loaded by godotenv)
//  4. config.yaml value (least secure — plaintext on disk)
package bot

import (
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "gemgram"

	// keyringGeminiKey is the key name for the Gemini API key.
	keyringGeminiKey = "gemini_api_key"

	// keyringSession is the key name for the Telegram session string.
	keyringSession = "telegram_session"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// KeyringAvailable checks if the OS keyring is accessible.
func KeyringAvailable() bool {
	testKey := "__gemgram_test__"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}

// ResolveSecrets fills the Gemini API key and the Telegram session string
// from the OS keyring when the config/env chain did not provide them.
func ResolveSecrets(cfg *Config, logger *slog.Logger) {
	if cfg.Gemini.APIKey == "" {
		if val := GetKeyring(keyringGeminiKey); val != "" {
			cfg.Gemini.APIKey = val
			logger.Debug("Gemini API key loaded from OS keyring")
		}
	}
	if cfg.Telegram.Session == "" {
		if val := GetKeyring(keyringSession); val != "" {
			cfg.Telegram.Session = val
			logger.Debug("Telegram session loaded from OS keyring")
		}
	}
}

// StoreSessionInKeyring saves a freshly generated session string so future
// runs can start without it appearing in config or environment.
func StoreSessionInKeyring(session string, logger *slog.Logger) error {
	if err := StoreKeyring(keyringSession, session); err != nil {
		return fmt.Errorf("storing session in keyring: %w", err)
	}
	logger.Info("Telegram session stored in OS keyring", "service", keyringService)
	return nil
}
