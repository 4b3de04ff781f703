package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zawhtut/gemgram/pkg/gemgram/bot"
	"github.com/zawhtut/gemgram/pkg/gemgram/gemini"
	"github.com/zawhtut/gemgram/pkg/gemgram/history"
	"github.com/zawhtut/gemgram/pkg/gemgram/kv"
	"github.com/zawhtut/gemgram/pkg/gemgram/quota"
	"github.com/zawhtut/gemgram/pkg/gemgram/schedule"
	"github.com/zawhtut/gemgram/pkg/gemgram/telegram"
)

// newServeCmd creates the `gemgram serve` command that starts the daemon.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Telegram and start answering messages",
		Long: `Start gemgram as a daemon: log in with the stored session string,
listen for new messages and reply via Gemini.

Examples:
  gemgram serve
  gemgram serve --config ./config.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	cfg, err := resolveConfig(cmd, slog.Default())
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	// Missing credentials are fatal: refuse to enter steady state.
	if err := cfg.Validate(); err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.Quota.Timezone)
	if err != nil {
		return fmt.Errorf("loading quota timezone %q: %w", cfg.Quota.Timezone, err)
	}

	// ── Open the store and build the component graph ──
	store, err := kv.OpenSQLite(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	quotaStore := quota.New(store, cfg.Quota.DailyLimit, loc, logger)
	historyStore := history.New(store, cfg.History.MaxPairs, logger)
	gateway := gemini.NewClient(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model, bot.Persona, logger)

	transport, err := telegram.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating telegram client: %w", err)
	}

	b := bot.New(quotaStore, historyStore, gateway, transport, logger)

	reset, err := schedule.New(quotaStore, cfg.Quota.ResetAt, loc, logger)
	if err != nil {
		return fmt.Errorf("creating quota reset schedule: %w", err)
	}

	logger.Info("starting gemgram",
		"model", gateway.Model(),
		"allowed_group", cfg.AllowedGroup,
		"daily_limit", quotaStore.Limit(),
		"store", cfg.Store.Path,
	)

	// ── Run until shutdown signal ──
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reset.Start()
	defer reset.Stop()

	if err := transport.Run(ctx, b.Handle); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("shutdown signal received, stopping...")
			return nil
		}
		return fmt.Errorf("telegram client stopped: %w", err)
	}
	return nil
}
