package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agroscan/agroscan-bot/internal/container"
	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

var errDiagnosisFailed = errors.New("diagnosis failed")

func newDiagnoseCommand(opts *rootOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "diagnose IMAGE",
		Short: "Diagnose a leaf photo from disk",
		Long: `Send one leaf photo for analysis and print the diagnosis.

Examples:
  # Human readable output
  agroscan diagnose leaf.jpg

  # Machine readable output
  agroscan diagnose leaf.png -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, opts, args[0], outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputHuman, "Output format (human, json, yaml)")

	return cmd
}

func runDiagnose(cmd *cobra.Command, opts *rootOptions, path, outputFormat string) error {
	ctx := cmd.Context()
	cfg := opts.cfg

	img, err := loadImage(path, cfg.MaxImageBytes)
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}
	session := container.New(analyzer, cfg.AnalysisTimeout).NewSession()

	session.UploadImage(img)
	req := session.RequestAnalysis(ctx)
	if req == nil {
		return fmt.Errorf("analysis of %s could not start", path)
	}

	if outputFormat == OutputHuman {
		color.New(color.FgCyan, color.Bold).Fprintf(os.Stderr, "\n🔍 Diagnosing %s\n", img.Name)
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Analyzing the leaf..."
	s.Start()
	_, err = req.Wait(ctx)
	s.Stop()
	if err != nil {
		return err
	}

	view := session.View()
	if err := displayView(cmd.OutOrStdout(), view, outputFormat); err != nil {
		return err
	}
	if view.Status() == entity.StatusError {
		return errDiagnosisFailed
	}
	return nil
}
