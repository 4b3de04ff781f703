package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/spf13/cobra"

	"github.com/zawhtut/gemgram/pkg/gemgram/bot"
	"github.com/zawhtut/gemgram/pkg/gemgram/telegram"
)

// newSessionCmd creates the `gemgram session` command: the interactive
// login that prints a reusable session string.
func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Log in interactively and print a reusable session string",
		Long: `Perform the Telegram login handshake (phone number, one-time code,
optional 2FA password) and print the session string the daemon needs.

Store the result as TELEGRAM_SESSION_STRING, in config.yaml, or pass
--keyring to keep it in the OS keyring.

Examples:
  gemgram session
  gemgram session --keyring`,
		RunE: runSession,
	}
	cmd.Flags().Bool("keyring", false, "store the session string in the OS keyring")
	return cmd
}

func runSession(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, slog.Default())
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	if cfg.Telegram.APIID == 0 || cfg.Telegram.APIHash == "" {
		return fmt.Errorf("telegram.api_id and telegram.api_hash are required (or set TELEGRAM_API_ID / TELEGRAM_API_HASH)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("─── Telegram session generation ───")
	session, err := telegram.GenerateSession(ctx, cfg.Telegram.APIID, cfg.Telegram.APIHash, promptAuth{}, logger)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Login successful. Your session string:")
	fmt.Println("===================================================================")
	fmt.Println(session)
	fmt.Println("===================================================================")
	fmt.Println("Keep it secret: anyone holding it can act as your account.")

	if useKeyring, _ := cmd.Flags().GetBool("keyring"); useKeyring {
		if !bot.KeyringAvailable() {
			return fmt.Errorf("OS keyring not available; store the string as TELEGRAM_SESSION_STRING instead")
		}
		if err := bot.StoreSessionInKeyring(session, logger); err != nil {
			return err
		}
		fmt.Println("Session stored in the OS keyring; 'gemgram serve' will pick it up.")
	} else {
		fmt.Println("Set it as TELEGRAM_SESSION_STRING (or telegram.session in config.yaml).")
	}
	return nil
}

// promptAuth supplies login credentials interactively.
type promptAuth struct{}

// Phone implements auth.UserAuthenticator.
func (promptAuth) Phone(_ context.Context) (string, error) {
	return promptLine("Phone number (with country code, e.g. +959...)", false)
}

// Code implements auth.UserAuthenticator.
func (promptAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return promptLine("Code received via Telegram", false)
}

// Password implements auth.UserAuthenticator; asked only when the account
// has 2FA enabled.
func (promptAuth) Password(_ context.Context) (string, error) {
	return promptLine("2FA password", true)
}

// AcceptTermsOfService implements auth.UserAuthenticator.
func (promptAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

// SignUp implements auth.UserAuthenticator. The flow automates an existing
// account; registering a new one is out of the question.
func (promptAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign-up is not supported: log in with an existing account")
}

// promptLine shows a single input field, optionally masked.
func promptLine(title string, masked bool) (string, error) {
	var val string
	input := huh.NewInput().Title(title).Value(&val)
	if masked {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", err
	}
	val = strings.TrimSpace(val)
	if val == "" && !masked {
		return "", fmt.Errorf("value cannot be empty")
	}
	return val, nil
}
