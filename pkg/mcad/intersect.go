package mcad

import (
	"math"
)

// Intersect returns the points where a and b meet, within tol. overlap is
// set when the two segments share a stretch of boundary rather than
// isolated points; the points are then not meaningful.
func Intersect(a, b *Segment, tol float64) (pts []Point, overlap bool) {
	if !a.Bounds().Overlaps(b.Bounds(), tol) {
		return nil, false
	}
	switch {
	case !a.curved() && !b.curved():
		pts, overlap = lineLine(a, b, tol)
	case !a.curved():
		pts = lineCircle(a, b, tol)
	case !b.curved():
		pts = lineCircle(b, a, tol)
	default:
		pts, overlap = circleCircle(a, b, tol)
	}
	if overlap {
		return nil, true
	}
	return dedupe(pts, tol), false
}

func lineLine(a, b *Segment, tol float64) ([]Point, bool) {
	r := a.end.Sub(a.start)
	s := b.end.Sub(b.start)
	qp := b.start.Sub(a.start)
	den := r.Cross(s)
	rl, sl := r.Len(), s.Len()

	if math.Abs(den) <= tol*1e-3*rl*sl {
		// parallel: only collinear lines can meet
		if math.Abs(qp.Cross(r))/rl > tol {
			return nil, false
		}
		t0 := qp.Dot(r) / (rl * rl)
		t1 := b.end.Sub(a.start).Dot(r) / (rl * rl)
		lo, hi := max(0, min(t0, t1)), min(1, max(t0, t1))
		switch {
		case (hi-lo)*rl > tol:
			return nil, true
		case hi-lo >= -tol/rl:
			return []Point{a.PointAt((lo + hi) / 2)}, false
		}
		return nil, false
	}

	t := qp.Cross(s) / den
	u := qp.Cross(r) / den
	if t < -tol/rl || t > 1+tol/rl || u < -tol/sl || u > 1+tol/sl {
		return nil, false
	}
	return []Point{snap(a.start.Add(r.Scale(t)), tol, a, b)}, false
}

// lineCircle intersects line l with arc or circle c.
func lineCircle(l, c *Segment, tol float64) []Point {
	d := l.end.Sub(l.start)
	f := l.start.Sub(c.center)
	qa := d.Dot(d)
	qb := 2 * f.Dot(d)
	qc := f.Dot(f) - c.radius*c.radius

	var ts []float64
	disc := qb*qb - 4*qa*qc
	foot := -qb / (2 * qa)
	// distance from the center to the infinite line
	h := math.Abs(d.Cross(f)) / math.Sqrt(qa)
	switch {
	case math.Abs(h-c.radius) <= tol/2:
		ts = []float64{foot}
	case disc < 0:
		return nil
	default:
		sq := math.Sqrt(disc)
		ts = []float64{(-qb - sq) / (2 * qa), (-qb + sq) / (2 * qa)}
	}

	var out []Point
	for _, t := range ts {
		p := l.start.Add(d.Scale(t))
		if l.Distance(p) <= tol && c.Distance(p) <= tol {
			out = append(out, snap(p, tol, l, c))
		}
	}
	return out
}

func circleCircle(a, b *Segment, tol float64) ([]Point, bool) {
	v := b.center.Sub(a.center)
	d := v.Len()
	if d <= tol {
		if math.Abs(a.radius-b.radius) > tol {
			return nil, false
		}
		if coArcOverlap(a, b, tol) {
			return nil, true
		}
		var out []Point
		for _, p := range []Point{a.start, a.end} {
			if b.Distance(p) <= tol {
				out = append(out, p)
			}
		}
		for _, p := range []Point{b.start, b.end} {
			if a.Distance(p) <= tol {
				out = append(out, p)
			}
		}
		return out, false
	}
	if d > a.radius+b.radius+tol || d < math.Abs(a.radius-b.radius)-tol {
		return nil, false
	}

	x := (a.radius*a.radius - b.radius*b.radius + d*d) / (2 * d)
	h2 := a.radius*a.radius - x*x
	base := a.center.Add(v.Scale(x / d))
	var cands []Point
	if h2 <= 0 || math.Sqrt(h2) <= tol/2 {
		cands = []Point{base}
	} else {
		h := math.Sqrt(h2)
		perp := Point{-v.Y / d, v.X / d}
		cands = []Point{base.Add(perp.Scale(h)), base.Sub(perp.Scale(h))}
	}
	var out []Point
	for _, p := range cands {
		if a.Distance(p) <= tol && b.Distance(p) <= tol {
			out = append(out, snap(p, tol, a, b))
		}
	}
	return out, false
}

// coArcOverlap reports whether two arcs on the same circle share more
// than their end points.
func coArcOverlap(a, b *Segment, tol float64) bool {
	if a.IsCW() {
		a = a.Reverse()
	}
	if b.IsCW() {
		b = b.Reverse()
	}
	eps := tol / a.radius
	return b.offset(a.angle) < math.Abs(b.sweep)-eps ||
		a.offset(b.angle) < math.Abs(a.sweep)-eps
}

// snap moves p onto a segment end point when it lies within tol of one, so
// that crossings at shared vertices compare equal.
func snap(p Point, tol float64, segs ...*Segment) Point {
	for _, s := range segs {
		if p.Near(s.start, tol) {
			return s.start
		}
		if p.Near(s.end, tol) {
			return s.end
		}
	}
	return p
}

func dedupe(pts []Point, tol float64) []Point {
	out := pts[:0]
next:
	for _, p := range pts {
		for _, q := range out {
			if p.Near(q, tol) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}
