package mcad

import (
	"math"

	"github.com/zooyer/golib/xmath"
)

// DefaultMinResolution is the tolerance used by outlines created with a
// zero resolution.
const DefaultMinResolution = 1e-6

// Point is a position in the board plane.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) Dot(q Point) float64   { return p.X*q.X + p.Y*q.Y }
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }
func (p Point) Len() float64          { return math.Hypot(p.X, p.Y) }
func (p Point) Dist(q Point) float64  { return math.Hypot(p.X-q.X, p.Y-q.Y) }
func (p Point) Angle() float64        { return math.Atan2(p.Y, p.X) }

// Near reports whether q lies within distance tol of p. Points with a NaN
// coordinate are never near.
func (p Point) Near(q Point, tol float64) bool {
	if !xmath.Equal(p.X, q.X, tol) || !xmath.Equal(p.Y, q.Y, tol) {
		return false
	}
	return p.Dist(q) <= tol
}

// Bounds is an axis aligned rectangle.
type Bounds struct {
	Min, Max Point
}

func emptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{Min: Point{inf, inf}, Max: Point{-inf, -inf}}
}

func (b Bounds) extend(p Point) Bounds {
	b.Min.X = min(b.Min.X, p.X)
	b.Min.Y = min(b.Min.Y, p.Y)
	b.Max.X = max(b.Max.X, p.X)
	b.Max.Y = max(b.Max.Y, p.Y)
	return b
}

func (b Bounds) union(o Bounds) Bounds {
	return b.extend(o.Min).extend(o.Max)
}

// Overlaps reports whether b and o share any area once grown by tol.
func (b Bounds) Overlaps(o Bounds, tol float64) bool {
	return b.Min.X <= o.Max.X+tol && o.Min.X <= b.Max.X+tol &&
		b.Min.Y <= o.Max.Y+tol && o.Min.Y <= b.Max.Y+tol
}

func (b Bounds) Width() float64  { return b.Max.X - b.Min.X }
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// Area is used to rank candidate board edges.
func (b Bounds) Area() float64 { return b.Width() * b.Height() }

// normAngle maps a to [0, 2π).
func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
