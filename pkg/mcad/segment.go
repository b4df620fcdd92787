package mcad

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// SegmentType tags the geometry of a Segment.
type SegmentType int

const (
	SegLine SegmentType = iota + 1
	SegArc
	SegCircle
)

func (t SegmentType) String() string {
	switch t {
	case SegLine:
		return "line"
	case SegArc:
		return "arc"
	case SegCircle:
		return "circle"
	}
	return fmt.Sprintf("SegmentType(%d)", int(t))
}

// degenerate is the smallest length or radius a segment may have. Outlines
// apply their own, usually larger, resolution on top of it.
const degenerate = 1e-12

var ErrDegenerate = errors.New("mcad: degenerate segment")

// Segment is an immutable line, arc or circle. Arcs store their start angle
// and a signed sweep; a positive sweep runs counterclockwise.
type Segment struct {
	kind   SegmentType
	start  Point
	end    Point
	center Point
	radius float64
	angle  float64
	sweep  float64
}

// NewLine returns the line from start to end.
func NewLine(start, end Point) (*Segment, error) {
	if start.Dist(end) <= degenerate {
		return nil, fmt.Errorf("%w: zero length line at %v", ErrDegenerate, start)
	}
	return &Segment{kind: SegLine, start: start, end: end}, nil
}

// NewArc returns the arc around center from start to end. The radius is
// taken from start; end is projected onto the circle. Coincident start and
// end points are rejected; use NewCircle for a full turn.
func NewArc(center, start, end Point, cw bool) (*Segment, error) {
	r := start.Dist(center)
	if r <= degenerate {
		return nil, fmt.Errorf("%w: zero radius arc at %v", ErrDegenerate, center)
	}
	if re := end.Dist(center); math.Abs(re-r) > max(r*1e-6, degenerate) {
		return nil, fmt.Errorf("%w: arc end radius %g does not match start radius %g", ErrDegenerate, re, r)
	}
	a0 := start.Sub(center).Angle()
	a1 := end.Sub(center).Angle()
	sweep := normAngle(a1 - a0)
	if cw {
		sweep -= 2 * math.Pi
	}
	if math.Abs(sweep) <= degenerate || math.Abs(sweep) >= 2*math.Pi-degenerate {
		return nil, fmt.Errorf("%w: arc start and end coincide", ErrDegenerate)
	}
	return newArc(center, r, a0, sweep), nil
}

// NewArcAngles returns the arc around center with the given radius that
// starts at angle a0 and turns through sweep radians.
func NewArcAngles(center Point, radius, a0, sweep float64) (*Segment, error) {
	if radius <= degenerate {
		return nil, fmt.Errorf("%w: zero radius arc at %v", ErrDegenerate, center)
	}
	if math.Abs(sweep) <= degenerate {
		return nil, fmt.Errorf("%w: zero sweep arc", ErrDegenerate)
	}
	if math.Abs(sweep) >= 2*math.Pi-degenerate {
		return NewCircle(center, radius)
	}
	return newArc(center, radius, a0, sweep), nil
}

// NewCircle returns a counterclockwise circle starting at angle 0.
func NewCircle(center Point, radius float64) (*Segment, error) {
	if radius <= degenerate {
		return nil, fmt.Errorf("%w: zero radius circle at %v", ErrDegenerate, center)
	}
	p := Point{center.X + radius, center.Y}
	return &Segment{kind: SegCircle, start: p, end: p, center: center, radius: radius, sweep: 2 * math.Pi}, nil
}

func newArc(center Point, r, a0, sweep float64) *Segment {
	s := &Segment{kind: SegArc, center: center, radius: r, angle: a0, sweep: sweep}
	s.start = s.at(a0)
	s.end = s.at(a0 + sweep)
	return s
}

func (s *Segment) Type() SegmentType { return s.kind }
func (s *Segment) Start() Point      { return s.start }
func (s *Segment) End() Point        { return s.end }
func (s *Segment) Center() Point     { return s.center }
func (s *Segment) Radius() float64   { return s.radius }

// StartAngle and EndAngle are in radians; EndAngle may lie outside
// [-π, π] since it equals StartAngle plus the sweep.
func (s *Segment) StartAngle() float64 { return s.angle }
func (s *Segment) EndAngle() float64   { return s.angle + s.sweep }
func (s *Segment) Sweep() float64      { return s.sweep }

// IsCW reports whether an arc or circle runs clockwise.
func (s *Segment) IsCW() bool { return s.sweep < 0 }

func (s *Segment) curved() bool { return s.kind != SegLine }

func (s *Segment) at(a float64) Point {
	return Point{s.center.X + s.radius*math.Cos(a), s.center.Y + s.radius*math.Sin(a)}
}

// Length returns the arc length.
func (s *Segment) Length() float64 {
	if s.kind == SegLine {
		return s.start.Dist(s.end)
	}
	return math.Abs(s.sweep) * s.radius
}

// PointAt returns the point at fraction t of the segment.
func (s *Segment) PointAt(t float64) Point {
	if s.kind == SegLine {
		return s.start.Add(s.end.Sub(s.start).Scale(t))
	}
	switch t {
	case 0:
		return s.start
	case 1:
		return s.end
	}
	return s.at(s.angle + t*s.sweep)
}

func (s *Segment) Midpoint() Point { return s.PointAt(0.5) }

// Reverse returns the segment traversed the other way.
func (s *Segment) Reverse() *Segment {
	r := *s
	r.start, r.end = s.end, s.start
	if s.kind != SegLine {
		if s.kind == SegArc {
			r.angle = s.angle + s.sweep
		}
		r.sweep = -s.sweep
	}
	return &r
}

// Bounds returns the tight bounding box, including arc extremes.
func (s *Segment) Bounds() Bounds {
	b := emptyBounds().extend(s.start).extend(s.end)
	if s.kind == SegLine {
		return b
	}
	for i := range 4 {
		a := float64(i) * math.Pi / 2
		if s.containsAngle(a, 0) {
			b = b.extend(s.at(a))
		}
	}
	return b
}

// offset returns how far angle a lies along the sweep direction from the
// start angle, in [0, 2π).
func (s *Segment) offset(a float64) float64 {
	if s.sweep >= 0 {
		return normAngle(a - s.angle)
	}
	return normAngle(s.angle - a)
}

// containsAngle reports whether angle a lies on the arc, allowing tol
// radians past either end.
func (s *Segment) containsAngle(a, tol float64) bool {
	if s.kind == SegCircle {
		return true
	}
	off := s.offset(a)
	return off <= math.Abs(s.sweep)+tol || off >= 2*math.Pi-tol
}

// Distance returns the distance from p to the segment.
func (s *Segment) Distance(p Point) float64 {
	if s.kind == SegLine {
		d := s.end.Sub(s.start)
		t := p.Sub(s.start).Dot(d) / d.Dot(d)
		t = max(0, min(1, t))
		return p.Dist(s.start.Add(d.Scale(t)))
	}
	v := p.Sub(s.center)
	if v.Len() <= degenerate {
		return s.radius
	}
	if s.containsAngle(v.Angle(), 0) {
		return math.Abs(v.Len() - s.radius)
	}
	return min(p.Dist(s.start), p.Dist(s.end))
}

// param returns the fraction of s at which the point p, assumed on s,
// lies.
func (s *Segment) param(p Point) float64 {
	if s.kind == SegLine {
		d := s.end.Sub(s.start)
		return p.Sub(s.start).Dot(d) / d.Dot(d)
	}
	off := s.offset(p.Sub(s.center).Angle())
	if sw := math.Abs(s.sweep); s.kind == SegArc && off > sw && 2*math.Pi-off < off-sw {
		// just before the start
		off -= 2 * math.Pi
	}
	return off / math.Abs(s.sweep)
}

// cut is a split position on a segment: fraction t and the exact point
// that the neighbouring pieces must share.
type cut struct {
	t float64
	p Point
}

// splitAt cuts s at the given positions, which must be sorted by t. Lines
// and arcs need cuts strictly inside (0, 1); a circle needs at least two
// cuts and becomes the closed chain of arcs that starts at the first one.
func (s *Segment) splitAt(cuts []cut) []*Segment {
	if len(cuts) == 0 || (s.kind == SegCircle && len(cuts) < 2) {
		return []*Segment{s}
	}
	piece := func(from, to cut) *Segment {
		if s.kind == SegLine {
			return &Segment{kind: SegLine, start: from.p, end: to.p}
		}
		a := newArc(s.center, s.radius, s.angle+from.t*s.sweep, (to.t-from.t)*s.sweep)
		a.start, a.end = from.p, to.p
		return a
	}
	out := make([]*Segment, 0, len(cuts)+1)
	if s.kind == SegCircle {
		for i, c := range cuts {
			next := cut{t: 1 + cuts[0].t, p: cuts[0].p}
			if i+1 < len(cuts) {
				next = cuts[i+1]
			}
			out = append(out, piece(c, next))
		}
		return out
	}
	prev := cut{t: 0, p: s.start}
	for _, c := range slices.Concat(cuts, []cut{{t: 1, p: s.end}}) {
		out = append(out, piece(prev, c))
		prev = c
	}
	return out
}

// area returns the segment's contribution to the signed area of a closed
// chain (positive for counterclockwise chains).
func (s *Segment) area() float64 {
	x1, y1, x2, y2 := s.start.X, s.start.Y, s.end.X, s.end.Y
	if s.kind == SegLine {
		return 0.5 * (x1*y2 - x2*y1)
	}
	c := s.center
	return 0.5 * (c.X*(y2-y1) - c.Y*(x2-x1) + s.radius*s.radius*s.sweep)
}

// winding returns the angle s subtends at p, signed by direction of travel.
// p must not lie on s.
func (s *Segment) winding(p Point) float64 {
	a, b := s.start.Sub(p), s.end.Sub(p)
	if s.kind == SegLine {
		return math.Atan2(a.Cross(b), a.Dot(b))
	}
	inCircle := p.Dist(s.center) < s.radius
	if s.kind == SegCircle {
		if inCircle {
			return s.sweep
		}
		return 0
	}
	chord := s.end.Sub(s.start)
	m := s.Midpoint().Sub(p)
	side := chord.Cross(p.Sub(s.start))
	arcSide := chord.Cross(s.Midpoint().Sub(s.start))
	if math.Abs(side) <= degenerate*chord.Len() && a.Dot(b) < 0 {
		// on the chord: the arc stays in one half plane as seen from p
		return math.Copysign(math.Pi, a.Cross(m))
	}
	angle := math.Atan2(a.Cross(b), a.Dot(b))
	if !inCircle {
		return angle
	}
	// inside the disc, the arc's own side of the chord is the region
	// bounded by the arc and the chord
	if (side > 0) == (arcSide > 0) {
		return angle + math.Copysign(2*math.Pi, s.sweep)
	}
	return angle
}

func (s *Segment) String() string {
	switch s.kind {
	case SegLine:
		return fmt.Sprintf("line %v -> %v", s.start, s.end)
	case SegArc:
		return fmt.Sprintf("arc c=%v r=%g %v -> %v sweep=%.4g", s.center, s.radius, s.start, s.end, s.sweep)
	}
	return fmt.Sprintf("circle c=%v r=%g", s.center, s.radius)
}
