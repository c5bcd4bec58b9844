// Package cli implements the truequote command line.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/merlin-energy/truequote/internal/config"
	"github.com/merlin-energy/truequote/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// app carries state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	configPath string
	cfg        *config.Config
	logResult  *logging.LogPathResult
}

// NewRootCmd creates the root command.
func NewRootCmd(ver string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "truequote",
		Short:         "TrueQuote load profiles, pricing and validation",
		Long:          "TrueQuote turns facility questionnaires into load profiles and battery quotes, and validates every industry calculator.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			result := setupLogging(cmd, cfg)
			a.logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.logResult.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $TRUEQUOTE_HOME/config.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.AddCommand(
		newQuoteCmd(a),
		newValidateCmd(a),
		newTemplatesCmd(a),
		newServeCmd(a),
	)
	return cmd
}

const rootCmdExample = `  # Quote a 120-room hotel in Nevada
  truequote quote --industry hotel --answer rooms=120 --answer hotelClass=upscale --state NV

  # Quote from an answers file and print JSON
  truequote quote --industry data_center --answers dc.yaml --output json

  # Validate every industry and write the report
  truequote validate --report report.json

  # Browse a validation run interactively
  truequote validate --interactive

  # List industry templates
  truequote templates list

  # Serve the HTTP API
  truequote serve --addr :8080`
