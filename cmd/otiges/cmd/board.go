package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/board"
	"github.com/OpenTraceLab/OpenTraceIGES/pkg/iges"
	"github.com/OpenTraceLab/OpenTraceIGES/pkg/kicad/pcb"
)

var (
	boardOutput    string
	boardThickness float64
	boardMinDrill  float64
)

var boardCmd = &cobra.Command{
	Use:   "board <board_file>",
	Short: "Convert a KiCad board outline to an IGES solid",
	Long: `Reads the Edge.Cuts layer, pad drills and via drills of a KiCad 6 or later
board and writes the board as trimmed surfaces: one wall per outline segment,
plus the top and bottom faces.

The largest closed Edge.Cuts loop is the board edge; all other loops are
cutouts. Output ending in .gz or .zst is compressed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.Flags().StringVarP(&boardOutput, "output", "o", "", "output file (default: input name with .igs)")
	boardCmd.Flags().Float64Var(&boardThickness, "thickness", 0, "board thickness in mm (default: from the file)")
	boardCmd.Flags().Float64Var(&boardMinDrill, "min-drill", 0, "smallest drill diameter to model in mm (default: OTIGES_MIN_DRILL)")
}

func runBoard(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := boardOutput
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".igs"
	}

	pb, err := pcb.ParseFile(input)
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}

	minDrill := cfg.MinDrill
	if cmd.Flags().Changed("min-drill") {
		minDrill = boardMinDrill
	}
	if minDrill == 0 {
		minDrill = -1
	}
	b, err := board.FromKiCad(pb, board.Options{
		MinResolution: cfg.MinResolution,
		MinDrill:      minDrill,
		Thickness:     boardThickness,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("error building outline: %w", err)
	}

	if u, _ := iges.ParseUnits(cfg.Units); u != iges.UnitsMillimeter {
		log.Warn("board models are written in millimetres", zap.String("units", cfg.Units))
	}
	m := iges.New(iges.WithLogger(log), iges.WithGlobal(cfg.Global(iges.UnitsMillimeter)))
	m.Start = []string{fmt.Sprintf("Board outline of %s (%s, version %d)", filepath.Base(input), pb.Generator, pb.Version)}

	surfaces, err := b.Emit(m)
	if err != nil {
		return fmt.Errorf("error emitting model: %w", err)
	}
	if err := m.WriteFile(output); err != nil {
		return fmt.Errorf("error writing model: %w", err)
	}

	out := cmd.OutOrStdout()
	bb := b.Outline.Bounds()
	fmt.Fprintf(out, "Board: %s\n", input)
	fmt.Fprintf(out, "  Size: %.3f x %.3f x %.3f mm\n", bb.Width(), bb.Height(), b.Thickness)
	fmt.Fprintf(out, "  Edge segments: %d\n", len(b.Outline.Segments()))
	fmt.Fprintf(out, "  Cutouts: %d\n", len(b.Outline.Cutouts()))
	fmt.Fprintf(out, "  Drills: %d (%d below limit, %d rejected)\n", b.Drills, b.Small, b.Rejected)
	fmt.Fprintf(out, "  Face area: %.3f mm²\n", b.Area())
	fmt.Fprintf(out, "Wrote %s: %d surfaces, %d entities\n", output, len(surfaces), m.Len())
	return nil
}
