package pcb

import "math"

// EdgeLayer holds the board outline and internal cutouts.
const EdgeLayer = "Edge.Cuts"

// Point is a board coordinate in millimetres. KiCad's Y axis points down.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point    { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// rotate turns p by deg degrees the way KiCad does: positive angles turn
// counterclockwise on screen, which is clockwise in the Y-down frame.
func (p Point) rotate(deg float64) Point {
	if deg == 0 {
		return p
	}
	s, c := math.Sincos(-deg * math.Pi / 180)
	return Point{p.X*c - p.Y*s, p.X*s + p.Y*c}
}

// Shape identifies the kind of a Graphic.
type Shape int

const (
	ShapeLine Shape = iota + 1
	ShapeArc
	ShapeCircle
	ShapeRect
	ShapePoly
)

var shapeNames = map[Shape]string{
	ShapeLine:   "line",
	ShapeArc:    "arc",
	ShapeCircle: "circle",
	ShapeRect:   "rect",
	ShapePoly:   "poly",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return "unknown"
}

// Graphic is one drawn element. The fields used depend on Kind:
//
//	line    Start, End
//	arc     Start, Mid, End
//	circle  Start is the centre, End a point on the circle
//	rect    Start and End are opposite corners
//	poly    Path holds the closed sequence of lines and arcs
type Graphic struct {
	Kind  Shape
	Layer string
	Width float64
	Start Point
	Mid   Point
	End   Point
	Path  []Graphic
}

// Center returns the centre of an arc or circle. ok is false for other
// shapes and for arcs whose three points are collinear.
func (g Graphic) Center() (c Point, ok bool) {
	switch g.Kind {
	case ShapeCircle:
		return g.Start, true
	case ShapeArc:
		return circumcenter(g.Start, g.Mid, g.End)
	}
	return Point{}, false
}

func (g Graphic) Radius() float64 {
	c, ok := g.Center()
	if !ok {
		return 0
	}
	if g.Kind == ShapeCircle {
		return c.Dist(g.End)
	}
	return c.Dist(g.Start)
}

// Edges breaks rectangles and polygons into their lines and arcs. Other
// shapes are returned as they are.
func (g Graphic) Edges() []Graphic {
	switch g.Kind {
	case ShapeRect:
		a, c := g.Start, g.End
		b, d := Point{c.X, a.Y}, Point{a.X, c.Y}
		return []Graphic{
			{Kind: ShapeLine, Layer: g.Layer, Width: g.Width, Start: a, End: b},
			{Kind: ShapeLine, Layer: g.Layer, Width: g.Width, Start: b, End: c},
			{Kind: ShapeLine, Layer: g.Layer, Width: g.Width, Start: c, End: d},
			{Kind: ShapeLine, Layer: g.Layer, Width: g.Width, Start: d, End: a},
		}
	case ShapePoly:
		return g.Path
	}
	return []Graphic{g}
}

func (g Graphic) transform(at Point, deg float64) Graphic {
	if g.Kind == ShapeRect && deg != 0 {
		// a rotated rectangle is no longer axis aligned
		g = Graphic{Kind: ShapePoly, Layer: g.Layer, Width: g.Width, Path: g.Edges()}
	}
	f := func(p Point) Point { return p.rotate(deg).Add(at) }
	g.Start, g.Mid, g.End = f(g.Start), f(g.Mid), f(g.End)
	if len(g.Path) > 0 {
		path := make([]Graphic, len(g.Path))
		for i, e := range g.Path {
			path[i] = e.transform(at, deg)
		}
		g.Path = path
	}
	return g
}

func circumcenter(a, b, c Point) (Point, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return Point{}, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	return Point{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}
