package pcb

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/kicad/sexp"
)

// MinSupportedVersion is the file format version written by KiCad 6.0.
const MinSupportedVersion = 20211014

// DefaultThickness is used when the file does not set one.
const DefaultThickness = 1.6

// ParseFile reads and parses a KiCad board file.
func ParseFile(filename string) (*Board, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a KiCad board. Only the content needed to build the
// mechanical model is kept: the layer table, graphics, footprints with
// their pads, and vias.
func Parse(r io.Reader) (*Board, error) {
	exprs, err := sexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if len(exprs) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	root, ok := exprs[0].(*sexp.List)
	if !ok || root.Name() != "kicad_pcb" {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got %s", exprs[0])
	}

	board := &Board{General: General{Thickness: DefaultThickness}}
	if board.Version, board.Generator, err = parseHeader(root); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if node, found := root.Find("general"); found {
		if board.General, err = parseGeneral(node); err != nil {
			return nil, fmt.Errorf("failed to parse general section: %w", err)
		}
	}
	if node, found := root.Find("layers"); found {
		if board.Layers, err = parseLayers(node); err != nil {
			return nil, fmt.Errorf("failed to parse layers section: %w", err)
		}
	}
	if board.Graphics, err = parseGraphics(root, "gr_"); err != nil {
		return nil, fmt.Errorf("failed to parse graphics: %w", err)
	}
	for _, node := range root.FindAll("footprint") {
		fp, err := parseFootprint(node)
		if err != nil {
			return nil, fmt.Errorf("failed to parse footprint: %w", err)
		}
		board.Footprints = append(board.Footprints, *fp)
	}
	for _, node := range root.FindAll("via") {
		v, err := parseVia(node)
		if err != nil {
			return nil, fmt.Errorf("failed to parse via: %w", err)
		}
		board.Vias = append(board.Vias, v)
	}
	return board, nil
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root *sexp.List) (version int, generator string, err error) {
	node, found := root.Find("version")
	if !found {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}
	if version, err = node.Int(1); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}
	if version < MinSupportedVersion {
		return 0, "", fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", version, MinSupportedVersion)
	}

	generator = "unknown"
	if node, found := root.Find("generator"); found {
		if s, err := node.Str(1); err == nil {
			generator = s
		}
	} else if node, found := root.Find("host"); found {
		if s, err := node.Str(1); err == nil {
			generator = s
		}
	}
	return version, generator, nil
}

// parseGeneral reads (general (thickness 1.6) ...).
func parseGeneral(node *sexp.List) (General, error) {
	g := General{Thickness: DefaultThickness}
	if t, found := node.Find("thickness"); found {
		v, err := t.Float(1)
		if err != nil {
			return g, fmt.Errorf("failed to parse thickness: %w", err)
		}
		if v <= 0 {
			return g, fmt.Errorf("board thickness must be positive, got %g", v)
		}
		g.Thickness = v
	}
	return g, nil
}

// parseLayers reads (layers (0 "F.Cu" signal) (44 "Edge.Cuts" user) ...).
func parseLayers(node *sexp.List) ([]Layer, error) {
	var layers []Layer
	for _, it := range node.Items[1:] {
		l, ok := it.(*sexp.List)
		if !ok {
			continue
		}
		n, err := l.Int(0)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer number: %w", err)
		}
		name, err := l.Str(1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer name: %w", err)
		}
		typ, err := l.Str(2)
		if err != nil {
			typ = "user"
		}
		layers = append(layers, Layer{Number: n, Name: name, Type: typ})
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no layers defined")
	}
	return layers, nil
}

// parseVia reads (via (at x y) (size s) (drill d) (layers "F.Cu" "B.Cu") ...).
func parseVia(node *sexp.List) (Via, error) {
	var v Via
	var err error
	if v.At.X, v.At.Y, err = node.ChildXY("at"); err != nil {
		return v, err
	}
	if s, found := node.Find("size"); found {
		if v.Size, err = s.Float(1); err != nil {
			return v, err
		}
	}
	if d, found := node.Find("drill"); found {
		if v.Drill, err = d.Float(1); err != nil {
			return v, err
		}
	}
	v.Layers = parseLayerNames(node)
	return v, nil
}

func parseLayerNames(node *sexp.List) []string {
	l, found := node.Find("layers")
	if !found {
		return nil
	}
	var names []string
	for i := 1; i < len(l.Items); i++ {
		if s, err := l.Str(i); err == nil {
			names = append(names, s)
		}
	}
	return names
}
