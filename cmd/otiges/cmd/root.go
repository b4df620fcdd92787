package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceIGES/internal/config"
	"github.com/OpenTraceLab/OpenTraceIGES/internal/logging"
)

var (
	// Global flags
	verbose bool

	cfg *config.Config
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "otiges",
	Short: "IGES model tools for board outlines",
	Long: `Build, inspect and combine IGES 5.3 models.

Settings are read from OTIGES_* environment variables; flags override them.

Examples:
  otiges board bracket.kicad_pcb -o bracket.igs    # Board solid from Edge.Cuts and drills
  otiges info bracket.igs                          # Global section and entity counts
  otiges merge -o case.igs top.igs bottom.igs      # Combine models into one file`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = log.Sync() },
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}
	lc := logging.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment}
	if verbose {
		lc.Level = "debug"
	}
	l, err := logging.New(lc)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	log = l.With(zap.String("run_id", uuid.NewString()), zap.String("cmd", cmd.Name()))
	return nil
}
