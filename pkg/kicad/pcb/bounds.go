package pcb

import "math"

// Bounds is an axis-aligned box in board coordinates.
type Bounds struct {
	Min, Max Point
}

func NewBounds() Bounds {
	return Bounds{
		Min: Point{math.Inf(1), math.Inf(1)},
		Max: Point{math.Inf(-1), math.Inf(-1)},
	}
}

func (b *Bounds) Expand(p Point) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
}

func (b Bounds) Empty() bool     { return b.Min.X > b.Max.X }
func (b Bounds) Width() float64  { return b.Max.X - b.Min.X }
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// Bounds returns the box around g. Arcs are covered by their full circle,
// which may overestimate.
func (g Graphic) Bounds() Bounds {
	b := NewBounds()
	switch g.Kind {
	case ShapeArc, ShapeCircle:
		if c, ok := g.Center(); ok {
			r := g.Radius()
			b.Expand(Point{c.X - r, c.Y - r})
			b.Expand(Point{c.X + r, c.Y + r})
			break
		}
		fallthrough
	case ShapeLine, ShapeRect:
		b.Expand(g.Start)
		b.Expand(g.End)
	case ShapePoly:
		for _, e := range g.Path {
			eb := e.Bounds()
			b.Expand(eb.Min)
			b.Expand(eb.Max)
		}
	}
	return b
}

// EdgeBounds returns the box around all Edge.Cuts graphics.
func (b *Board) EdgeBounds() Bounds {
	out := NewBounds()
	for _, g := range b.EdgeCuts() {
		gb := g.Bounds()
		if !gb.Empty() {
			out.Expand(gb.Min)
			out.Expand(gb.Max)
		}
	}
	return out
}
