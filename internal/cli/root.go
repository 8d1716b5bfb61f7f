package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan-bot/config"
	"github.com/agroscan/agroscan-bot/internal/infrastructure/gemini"
)

// rootOptions carries state shared by the subcommands.
type rootOptions struct {
	cfg *config.Config
}

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "agroscan",
		Short: "Crop leaf disease diagnosis",
		Long: `AgroScan diagnoses crop leaf diseases from photos.

It runs as a Telegram bot, or locally against image files, and reports the
disease, a pesticide and a recommendation in English and Telugu.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.ConfigureLogging()
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.AddCommand(newBotCommand(opts))
	rootCmd.AddCommand(newDiagnoseCommand(opts))
	rootCmd.AddCommand(newTUICommand(opts))
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// the version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "AgroScan %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// newAnalyzer builds the Gemini client from the loaded config.
func newAnalyzer(ctx context.Context, cfg *config.Config) (*gemini.Client, error) {
	apiKey, err := cfg.ResolveGeminiAPIKey(ctx)
	if err != nil {
		return nil, err
	}
	return gemini.NewClient(gemini.Config{
		APIKey:  apiKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.AnalysisTimeout,
	})
}
