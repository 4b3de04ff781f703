package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zawhtut/gemgram/pkg/gemgram/bot"
)

// newConfigCmd creates the `gemgram config` command.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage gemgram configuration.

Examples:
  gemgram config init
  gemgram config show
  gemgram config validate`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(),
		newConfigValidateCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default config.yaml",
		RunE: func(_ *cobra.Command, _ []string) error {
			target := "config.yaml"

			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config.yaml already exists. Remove it first or edit it directly")
			}

			cfg := bot.DefaultConfig()
			if err := bot.SaveConfigToFile(cfg, target); err != nil {
				return err
			}

			fmt.Printf("Created %s with default configuration.\n", target)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Set telegram.api_id and telegram.api_hash (from my.telegram.org)")
			fmt.Println("  2. Run: gemgram session   (prints your session string)")
			fmt.Println("  3. Set GEMINI_API_KEY and run: gemgram serve")
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, slog.Default())
			if err != nil {
				return err
			}

			// Secrets never hit stdout.
			cfg.Gemini.APIKey = redact(cfg.Gemini.APIKey)
			cfg.Telegram.Session = redact(cfg.Telegram.Session)

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, slog.Default())
			if err != nil {
				return err
			}

			fmt.Printf("  API ID:        %d\n", cfg.Telegram.APIID)
			fmt.Printf("  Session:       %s\n", presence(cfg.Telegram.Session))
			fmt.Printf("  Gemini key:    %s\n", presence(cfg.Gemini.APIKey))
			fmt.Printf("  Model:         %s\n", cfg.Gemini.Model)
			fmt.Printf("  Allowed group: %q\n", cfg.AllowedGroup)
			fmt.Printf("  History pairs: %d\n", cfg.History.MaxPairs)
			fmt.Printf("  Daily quota:   %d (reset %s %s)\n", cfg.Quota.DailyLimit, cfg.Quota.ResetAt, cfg.Quota.Timezone)
			fmt.Printf("  Store:         %s\n", cfg.Store.Path)

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration incomplete: %w", err)
			}
			fmt.Println("\nConfiguration is valid.")
			return nil
		},
	}
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "<redacted>"
}

func presence(s string) string {
	if s == "" {
		return "missing"
	}
	return "set"
}
