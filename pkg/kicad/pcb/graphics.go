package pcb

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/kicad/sexp"
)

const closeTol = 1e-9

var shapeKeys = map[string]Shape{
	"line":   ShapeLine,
	"arc":    ShapeArc,
	"circle": ShapeCircle,
	"rect":   ShapeRect,
	"poly":   ShapePoly,
}

// parseGraphics collects the children of node named prefix+shape, such as
// gr_line or fp_arc, in file order. Text and other drawings are ignored.
func parseGraphics(node *sexp.List, prefix string) ([]Graphic, error) {
	var out []Graphic
	for _, it := range node.Items {
		l, ok := it.(*sexp.List)
		if !ok {
			continue
		}
		kind, ok := shapeKeys[strings.TrimPrefix(l.Name(), prefix)]
		if !ok || !strings.HasPrefix(l.Name(), prefix) {
			continue
		}
		g, err := parseGraphic(l, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", l.Name(), err)
		}
		out = append(out, g)
	}
	return out, nil
}

func parseGraphic(node *sexp.List, kind Shape) (Graphic, error) {
	g := Graphic{Kind: kind, Width: strokeWidth(node)}
	if l, found := node.Find("layer"); found {
		g.Layer, _ = l.Str(1)
	}

	var err error
	switch kind {
	case ShapeLine, ShapeRect:
		if g.Start.X, g.Start.Y, err = node.ChildXY("start"); err != nil {
			return g, err
		}
		g.End.X, g.End.Y, err = node.ChildXY("end")
	case ShapeArc:
		if g.Start.X, g.Start.Y, err = node.ChildXY("start"); err != nil {
			return g, err
		}
		if g.Mid.X, g.Mid.Y, err = node.ChildXY("mid"); err != nil {
			return g, err
		}
		if g.End.X, g.End.Y, err = node.ChildXY("end"); err != nil {
			return g, err
		}
		if _, ok := g.Center(); !ok {
			err = fmt.Errorf("line %d: arc points are collinear", node.Line)
		}
	case ShapeCircle:
		if g.Start.X, g.Start.Y, err = node.ChildXY("center"); err != nil {
			return g, err
		}
		g.End.X, g.End.Y, err = node.ChildXY("end")
	case ShapePoly:
		g.Path, err = parsePath(node, g.Layer, g.Width)
	}
	return g, err
}

// parsePath turns (pts (xy ..) (arc ..) ...) into a closed chain of edges.
func parsePath(node *sexp.List, layer string, width float64) ([]Graphic, error) {
	pts, found := node.Find("pts")
	if !found {
		return nil, fmt.Errorf("line %d: polygon has no (pts)", node.Line)
	}

	var path []Graphic
	var first, cur Point
	started := false
	lineTo := func(p Point) {
		if !started {
			first, cur, started = p, p, true
			return
		}
		if cur.Dist(p) > closeTol {
			path = append(path, Graphic{Kind: ShapeLine, Layer: layer, Width: width, Start: cur, End: p})
		}
		cur = p
	}

	for _, it := range pts.Items[1:] {
		l, ok := it.(*sexp.List)
		if !ok {
			continue
		}
		switch l.Name() {
		case "xy":
			x, y, err := l.XY()
			if err != nil {
				return nil, err
			}
			lineTo(Point{x, y})
		case "arc":
			arc, err := parseGraphic(l, ShapeArc)
			if err != nil {
				return nil, err
			}
			arc.Layer, arc.Width = layer, width
			lineTo(arc.Start)
			path = append(path, arc)
			cur = arc.End
		}
	}
	if !started {
		return nil, fmt.Errorf("line %d: polygon has no points", node.Line)
	}
	lineTo(first)
	if len(path) < 2 {
		return nil, fmt.Errorf("line %d: polygon needs at least two edges", node.Line)
	}
	return path, nil
}

// strokeWidth reads (stroke (width w)) or the older bare (width w).
func strokeWidth(node *sexp.List) float64 {
	if s, found := node.Find("stroke"); found {
		node = s
	}
	if w, found := node.Find("width"); found {
		if v, err := w.Float(1); err == nil {
			return v
		}
	}
	return 0
}
