package pcb

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/kicad/sexp"
)

// parseFootprint extracts a footprint (component) definition
// Expected format: (footprint "library:name" (layer "F.Cu") (at x y [angle]) ...)
func parseFootprint(node *sexp.List) (*Footprint, error) {
	fp := &Footprint{}

	name, err := node.Str(1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprint name: %w", err)
	}
	if lib, n, ok := strings.Cut(name, ":"); ok {
		fp.Library, fp.Name = lib, n
	} else {
		fp.Name = name
	}

	if l, found := node.Find("layer"); found {
		fp.Layer, _ = l.Str(1)
	}
	if fp.At, fp.Angle, err = parseAt(node); err != nil {
		return nil, fmt.Errorf("footprint %s: %w", name, err)
	}

	for _, p := range node.FindAll("property") {
		key, err1 := p.Str(1)
		val, err2 := p.Str(2)
		if err1 != nil || err2 != nil {
			continue
		}
		switch key {
		case "Reference":
			fp.Reference = val
		case "Value":
			fp.Value = val
		}
	}
	// KiCad 6 stores reference and value as fp_text
	for _, t := range node.FindAll("fp_text") {
		kind, _ := t.Str(1)
		val, _ := t.Str(2)
		switch {
		case kind == "reference" && fp.Reference == "":
			fp.Reference = val
		case kind == "value" && fp.Value == "":
			fp.Value = val
		}
	}

	for _, p := range node.FindAll("pad") {
		pad, err := parsePad(p)
		if err != nil {
			return nil, fmt.Errorf("footprint %s: %w", name, err)
		}
		fp.Pads = append(fp.Pads, pad)
	}

	if fp.Graphics, err = parseGraphics(node, "fp_"); err != nil {
		return nil, fmt.Errorf("footprint %s: %w", name, err)
	}
	return fp, nil
}

// parsePad extracts a pad definition from a footprint
// Expected format: (pad "number" type shape (at x y [angle]) (size w h) (drill d) (layers ...) ...)
func parsePad(node *sexp.List) (Pad, error) {
	var pad Pad
	var err error
	if pad.Number, err = node.Str(1); err != nil {
		return pad, fmt.Errorf("failed to parse pad number: %w", err)
	}
	if pad.Type, err = node.Str(2); err != nil {
		return pad, fmt.Errorf("failed to parse pad type: %w", err)
	}
	if pad.Shape, err = node.Str(3); err != nil {
		return pad, fmt.Errorf("failed to parse pad shape: %w", err)
	}
	if pad.At, _, err = parseAt(node); err != nil {
		return pad, fmt.Errorf("pad %s: %w", pad.Number, err)
	}
	if s, found := node.Find("size"); found {
		if pad.Width, pad.Height, err = s.XY(); err != nil {
			return pad, fmt.Errorf("pad %s: %w", pad.Number, err)
		}
	}
	if d, found := node.Find("drill"); found {
		// (drill d [(offset x y)]) or (drill oval w [h])
		idx := 1
		if d.Has("oval") {
			pad.DrillOval = true
			idx = 2
		}
		if len(d.Items) > idx {
			if pad.Drill, err = d.Float(idx); err != nil {
				return pad, fmt.Errorf("pad %s: %w", pad.Number, err)
			}
		}
		if pad.DrillOval && len(d.Items) > idx+1 {
			if h, err := d.Float(idx + 1); err == nil && h == pad.Drill {
				pad.DrillOval = false
			}
		}
	}
	pad.Layers = parseLayerNames(node)
	return pad, nil
}

// parseAt reads (at x y [angle]).
func parseAt(node *sexp.List) (Point, float64, error) {
	at, found := node.Find("at")
	if !found {
		return Point{}, 0, fmt.Errorf("missing required 'at' position")
	}
	x, y, err := at.XY()
	if err != nil {
		return Point{}, 0, err
	}
	var angle float64
	if len(at.Items) > 3 {
		if angle, err = at.Float(3); err != nil {
			return Point{}, 0, err
		}
	}
	return Point{x, y}, angle, nil
}
