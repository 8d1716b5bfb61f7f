package cli

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan-bot/internal/container"
	"github.com/agroscan/agroscan-bot/internal/domain/entity"
	"github.com/agroscan/agroscan-bot/internal/ui"
)

func newTUICommand(opts *rootOptions) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "tui IMAGE...",
		Short: "Interactive terminal diagnosis",
		Long: `Open an interactive session over the given photos.

Keys: n next image, a analyze, r reset, q quit.

Logs go to a file so they do not tear the screen, by default
agroscan/tui.log under the user cache directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg

			if logFile == "" {
				path, err := defaultTUILogPath()
				if err != nil {
					return err
				}
				logFile = path
			}
			f, err := openLogFile(logFile)
			if err != nil {
				return err
			}
			defer f.Close()
			log.SetOutput(f)
			defer log.SetOutput(os.Stderr)

			analyzer, err := newAnalyzer(ctx, cfg)
			if err != nil {
				return err
			}
			session := container.New(analyzer, cfg.AnalysisTimeout).NewSession()

			return ui.Run(ctx, session, args, func(path string) (*entity.Image, error) {
				return loadImage(path, cfg.MaxImageBytes)
			})
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "File that receives logs while the TUI runs")

	return cmd
}

func defaultTUILogPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(dir, "agroscan", "tui.log"), nil
}

// openLogFile opens path for appending, creating missing directories.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
