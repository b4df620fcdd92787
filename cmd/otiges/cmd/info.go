package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/iges"
)

var infoCull bool

var infoCmd = &cobra.Command{
	Use:   "info <iges_file>",
	Short: "Show the global section and entity counts of an IGES file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoCull, "cull", false, "list orphans and count what culling removes (the file is not changed)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	m := iges.New(iges.WithLogger(log))
	if err := m.ReadFile(args[0]); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	g := m.Global
	fmt.Fprintf(out, "File: %s\n", args[0])
	fmt.Fprintf(out, "  Name: %s\n", g.FileName)
	fmt.Fprintf(out, "  System: %s / %s\n", g.NativeSystem, g.Preprocessor)
	if g.Author != "" || g.Organization != "" {
		fmt.Fprintf(out, "  Author: %s (%s)\n", g.Author, g.Organization)
	}
	fmt.Fprintf(out, "  Units: %s\n", g.Units)
	fmt.Fprintf(out, "  Resolution: %g\n", g.MinResolution)
	fmt.Fprintf(out, "  Created: %s\n", g.FileDate)

	stats := m.Stats()
	types := make([]iges.EntityType, 0, len(stats))
	for t := range stats {
		types = append(types, t)
	}
	slices.Sort(types)

	fmt.Fprintf(out, "Entities: %d\n", m.Len())
	for _, t := range types {
		fmt.Fprintf(out, "  %4d  %-32s %d\n", int(t), t, stats[t])
	}

	orphans := m.Orphans()
	fmt.Fprintf(out, "Orphans: %d\n", len(orphans))
	if infoCull {
		for _, e := range orphans {
			fmt.Fprintf(out, "  %s\n", e)
		}
		fmt.Fprintf(out, "Culled %d entities\n", m.Cull())
	}
	return nil
}
