// Package telegram – login.go implements the one-off interactive login
// that produces a reusable session string. Steady-state operation refuses
// to start without the credential this flow prints.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
)

// GenerateSession performs the login handshake (phone number, one-time
// code, optional 2FA password — all supplied by authenticator) and returns
// the resulting session string.
func GenerateSession(ctx context.Context, apiID int, apiHash string, authenticator auth.UserAuthenticator, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telegram")

	storage, _ := NewStringSessionStorage("")
	client := telegram.NewClient(apiID, apiHash, telegram.Options{
		SessionStorage: storage,
	})

	flow := auth.NewFlow(authenticator, auth.SendCodeOptions{})

	err := client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return sessionHint(fmt.Errorf("login failed: %w", err))
		}
		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetching own identity after login: %w", err)
		}
		logger.Info("login successful",
			"id", self.ID,
			"username", self.Username,
			"first_name", self.FirstName,
		)
		return nil
	})
	if err != nil {
		return "", err
	}

	s := storage.String()
	if s == "" {
		return "", fmt.Errorf("login completed but no session was stored")
	}
	return s, nil
}
