// Package commands wires the gemgram CLI: serve (the daemon), session
// (login bootstrap) and config management.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zawhtut/gemgram/pkg/gemgram/bot"
)

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gemgram",
		Short: "Personal Telegram account automation backed by Gemini",
		Long: `gemgram relays incoming Telegram messages from your personal account
to the Gemini API and replies with the model's answer, keeping a short
rolling conversation memory per user and a shared daily quota for
web-grounded answers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "path to config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	// Load .env before any command reads the environment.
	cobra.OnInitialize(func() {
		_ = godotenv.Load()
	})

	rootCmd.AddCommand(
		newServeCmd(),
		newSessionCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// resolveConfig loads config from the --config flag, an auto-discovered
// file, or defaults, then overlays env vars and keyring secrets.
func resolveConfig(cmd *cobra.Command, logger *slog.Logger) (*bot.Config, error) {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")

	var (
		cfg *bot.Config
		err error
	)
	switch {
	case configPath != "":
		cfg, err = bot.LoadConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	default:
		if found := bot.FindConfigFile(); found != "" {
			cfg, err = bot.LoadConfigFromFile(found)
			if err != nil {
				return nil, fmt.Errorf("loading config from %s: %w", found, err)
			}
			logger.Info("config loaded", "path", found)
		} else {
			logger.Info("no config file found, using defaults")
			cfg = bot.DefaultConfig()
		}
	}

	cfg.ApplyEnv()
	bot.ResolveSecrets(cfg, logger)
	return cfg, nil
}

// newLogger builds the slog logger from config and the --verbose flag.
func newLogger(cmd *cobra.Command, cfg *bot.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if verbose {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(handler)
}
