package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/iges"
)

var (
	mergeOutput string
	mergeCull   bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge -o <output> <iges_file>...",
	Short: "Combine IGES files into one model",
	Long: `Reads each input, moves its entities into a new model and writes it.
Every input must use the units named by OTIGES_UNITS (default MM).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "output file")
	mergeCmd.Flags().BoolVar(&mergeCull, "cull", false, "delete orphaned entities before writing")
	_ = mergeCmd.MarkFlagRequired("output")
}

func runMerge(cmd *cobra.Command, args []string) error {
	m := iges.New(iges.WithLogger(log), iges.WithGlobal(cfg.Global(0)))
	for _, path := range args {
		src := iges.New(iges.WithLogger(log))
		if err := src.ReadFile(path); err != nil {
			return err
		}
		n := src.Len()
		if err := m.Import(src); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		m.Start = append(m.Start, fmt.Sprintf("Merged from %s", path))
		log.Debug("merged file", zap.String("file", path), zap.Int("entities", n))
	}

	culled := 0
	if mergeCull {
		culled = m.Cull()
	}
	if err := m.WriteFile(mergeOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d files into %s: %d entities (%d culled)\n", len(args), mergeOutput, m.Len(), culled)
	return nil
}
