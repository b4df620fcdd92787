package mcad

import (
	"cmp"
	"fmt"
	"slices"
)

// AddOutline merges other into the boundary of o. The boundaries must
// cross at exactly two points, or other must enclose o entirely. Cutouts
// and drill holes of o must lie clear of other; a covered hole is an
// ErrOverlap. On success other's geometry, including its cutouts and
// drill holes, moves into o and other becomes invalid. On failure o is
// unchanged.
func (o *Outline) AddOutline(other *Outline) error {
	const op = "add outline"
	if err := o.checkOperand(other); err != nil {
		return o.fail(op, err)
	}
	saved := o.save()
	if err := o.union(other); err != nil {
		o.restore(saved)
		return o.fail(op, err)
	}
	other.take()
	return nil
}

// AddCircle merges a circle into the boundary; see AddOutline.
func (o *Outline) AddCircle(c *Segment) error {
	other, err := o.circleOperand(c)
	if err != nil {
		return o.fail("add circle", err)
	}
	return o.AddOutline(other)
}

// SubOutline removes other from o. Boundaries crossing at two points are
// spliced; an outline fully inside o becomes a cutout; a disjoint outline
// leaves o unchanged. An outline that encloses o is an error, as is one
// whose cutouts or drill holes reach into o, since the material they
// enclose would become an island. Holes of other lying outside o are
// dropped. On success other becomes invalid unless it was disjoint.
func (o *Outline) SubOutline(other *Outline) error {
	const op = "subtract outline"
	if err := o.checkOperand(other); err != nil {
		return o.fail(op, err)
	}
	saved := o.save()
	taken, err := o.subtract(other)
	if err != nil {
		o.restore(saved)
		return o.fail(op, err)
	}
	if taken {
		other.take()
	}
	return nil
}

// SubCircle removes a circle from o; see SubOutline.
func (o *Outline) SubCircle(c *Segment) error {
	other, err := o.circleOperand(c)
	if err != nil {
		return o.fail("subtract circle", err)
	}
	return o.SubOutline(other)
}

// AddCutout registers c as a hole in o. c must not cross the boundary of
// o. When overlaps is set c is also checked against every existing cutout
// and drill hole. On success c becomes invalid.
func (o *Outline) AddCutout(c *Outline, overlaps bool) error {
	const op = "add cutout"
	if err := o.checkOperand(c); err != nil {
		return o.fail(op, err)
	}
	if err := o.addCutout(c.segs, overlaps); err != nil {
		return o.fail(op, err)
	}
	c.take()
	return nil
}

// AddDrillHole registers the circle h as a drill hole; see AddCutout.
func (o *Outline) AddDrillHole(h *Segment, overlaps bool) error {
	const op = "add drill hole"
	if err := o.usable(); err != nil {
		return o.fail(op, err)
	}
	if h == nil || h.kind != SegCircle {
		return o.fail(op, fmt.Errorf("%w: drill holes must be circles", ErrDegenerate))
	}
	if h.radius <= o.minRes {
		return o.fail(op, fmt.Errorf("%w: %v", ErrDegenerate, h))
	}
	if h.IsCW() {
		h = h.Reverse()
	}
	if err := o.checkHole([]*Segment{h}, overlaps); err != nil {
		return o.fail(op, err)
	}
	o.holes = append(o.holes, h)
	return nil
}

func (o *Outline) checkOperand(other *Outline) error {
	if err := o.usable(); err != nil {
		return err
	}
	if other == nil || other == o {
		return fmt.Errorf("%w: invalid operand", ErrInvalid)
	}
	if err := other.usable(); err != nil {
		return fmt.Errorf("operand: %w", err)
	}
	return nil
}

func (o *Outline) circleOperand(c *Segment) (*Outline, error) {
	if c == nil || c.kind != SegCircle {
		return nil, fmt.Errorf("%w: not a circle", ErrDegenerate)
	}
	other := NewOutline(o.minRes)
	if err := other.AddSegment(c); err != nil {
		return nil, err
	}
	return other, nil
}

func (o *Outline) union(other *Outline) error {
	pts, err := crossings(o.segs, other.segs, o.minRes)
	if err != nil {
		return err
	}
	old := o.segs
	switch len(pts) {
	case 0:
		inside, err := o.contains(other.segs)
		if err != nil {
			return err
		}
		if inside {
			return fmt.Errorf("%w: the added outline lies inside", ErrContained)
		}
		enclosed, err := containsChain(other.segs, o.segs, o.minRes)
		if err != nil {
			return err
		}
		if !enclosed {
			return ErrDisjoint
		}
		o.segs = slices.Clone(other.segs)
	case 2:
		segs, err := o.splice(other.segs, pts, false)
		if err != nil {
			return err
		}
		o.segs = segs
	default:
		return fmt.Errorf("%w: found %d", ErrIntersections, len(pts))
	}
	if err := holesClear(other.segs, o.holeChains(), o.minRes); err != nil {
		return fmt.Errorf("added outline: %w", err)
	}
	o.bounds = nil
	if err := o.recheck(old); err != nil {
		return err
	}
	for _, c := range other.cutouts {
		if err := o.addCutout(c.segs, true); err != nil {
			return err
		}
	}
	for _, h := range other.holes {
		if err := o.checkHole([]*Segment{h}, true); err != nil {
			return err
		}
		o.holes = append(o.holes, h)
	}
	return nil
}

// subtract reports whether other was consumed.
func (o *Outline) subtract(other *Outline) (bool, error) {
	pts, err := crossings(o.segs, other.segs, o.minRes)
	if err != nil {
		return false, err
	}
	switch len(pts) {
	case 0:
		inside, err := o.contains(other.segs)
		if err != nil {
			return false, err
		}
		if inside {
			if err := holesClear(o.segs, other.holeChains(), o.minRes); err != nil {
				return false, fmt.Errorf("subtracted outline: %w", err)
			}
			return true, o.addCutout(other.segs, true)
		}
		enclosed, err := containsChain(other.segs, o.segs, o.minRes)
		if err != nil {
			return false, err
		}
		if enclosed {
			return false, fmt.Errorf("%w: the subtracted outline covers the whole outline", ErrContained)
		}
		return false, nil
	case 2:
		if err := holesClear(o.segs, other.holeChains(), o.minRes); err != nil {
			return false, fmt.Errorf("subtracted outline: %w", err)
		}
		old := o.segs
		segs, err := o.splice(other.segs, pts, true)
		if err != nil {
			return false, err
		}
		o.segs = segs
		o.bounds = nil
		return true, o.recheck(old)
	}
	return false, fmt.Errorf("%w: found %d", ErrIntersections, len(pts))
}

// splice joins the part of o's boundary outside other with the part of
// other outside o (union) or the reversed part of other inside o
// (subtraction). pts holds the two crossings.
func (o *Outline) splice(other []*Segment, pts []Point, subtract bool) ([]*Segment, error) {
	tol := o.minRes
	a1, a2, err := divide(splitChain(o.segs, pts, tol), pts[0], pts[1], tol)
	if err != nil {
		return nil, err
	}
	b1, b2, err := divide(splitChain(other, pts, tol), pts[0], pts[1], tol)
	if err != nil {
		return nil, err
	}
	keep, err := pickPath(a1, a2, other, false, tol)
	if err != nil {
		return nil, err
	}
	part, err := pickPath(b1, b2, o.segs, subtract, tol)
	if err != nil {
		return nil, err
	}
	if subtract {
		part = reverseChain(part)
	}
	if !keep[len(keep)-1].end.Near(part[0].start, tol) {
		return nil, fmt.Errorf("%w: boundary parts do not join", ErrIntersections)
	}
	out := slices.Concat(keep, part)
	if !contiguous(out, true, tol) {
		return nil, fmt.Errorf("%w: result is not contiguous", ErrIntersections)
	}
	if chainArea(out) <= 0 {
		return nil, ErrWinding
	}
	return out, nil
}

// recheck verifies that cutouts and drill holes that were inside the old
// boundary are still inside the new one without touching it.
func (o *Outline) recheck(old []*Segment) error {
	for _, h := range o.holeChains() {
		pts, err := crossings(o.segs, h, o.minRes)
		if err != nil {
			return err
		}
		if len(pts) > 0 {
			return fmt.Errorf("%w: boundary meets a hole at %v", ErrOverlap, pts[0])
		}
		was, err := containsChain(old, h, o.minRes)
		if err != nil {
			return err
		}
		now, err := o.contains(h)
		if err != nil {
			return err
		}
		if was && !now {
			return fmt.Errorf("%w: a hole falls outside the new boundary", ErrOverlap)
		}
	}
	return nil
}

// holeChains returns the cutouts and drill holes of o as closed chains.
func (o *Outline) holeChains() [][]*Segment {
	holes := make([][]*Segment, 0, len(o.cutouts)+len(o.holes))
	for _, c := range o.cutouts {
		holes = append(holes, c.segs)
	}
	for _, h := range o.holes {
		holes = append(holes, []*Segment{h})
	}
	return holes
}

// holesClear fails when any of holes meets the closed chain region or
// lies inside it.
func holesClear(region []*Segment, holes [][]*Segment, tol float64) error {
	for _, h := range holes {
		pts, err := crossings(region, h, tol)
		if err != nil {
			return err
		}
		if len(pts) > 0 {
			return fmt.Errorf("%w: hole meets the boundary at %v", ErrOverlap, pts[0])
		}
		in, err := containsChain(region, h, tol)
		if err != nil {
			return err
		}
		if in {
			return fmt.Errorf("%w: hole lies inside the region", ErrOverlap)
		}
	}
	return nil
}

func (o *Outline) addCutout(segs []*Segment, overlaps bool) error {
	if err := o.checkHole(segs, overlaps); err != nil {
		return err
	}
	c := NewOutline(o.minRes)
	c.segs = slices.Clone(segs)
	c.closed = true
	c.log = o.log
	o.cutouts = append(o.cutouts, c)
	return nil
}

// checkHole verifies that the closed chain h does not touch the boundary
// and, when overlaps is set, that it is clear of every cutout and drill
// hole.
func (o *Outline) checkHole(h []*Segment, overlaps bool) error {
	pts, err := crossings(o.segs, h, o.minRes)
	if err != nil {
		return err
	}
	if len(pts) > 0 {
		return fmt.Errorf("%w: hole meets the boundary at %v", ErrOverlap, pts[0])
	}
	if !overlaps {
		return nil
	}
	for _, c := range o.cutouts {
		if err := disjoint(c.segs, h, o.minRes); err != nil {
			return fmt.Errorf("cutout: %w", err)
		}
	}
	for _, d := range o.holes {
		if err := disjoint([]*Segment{d}, h, o.minRes); err != nil {
			return fmt.Errorf("drill hole: %w", err)
		}
	}
	return nil
}

// disjoint fails when two closed chains share any point or one encloses
// the other.
func disjoint(a, b []*Segment, tol float64) error {
	pts, err := crossings(a, b, tol)
	if err != nil {
		return err
	}
	if len(pts) > 0 {
		return fmt.Errorf("%w at %v", ErrOverlap, pts[0])
	}
	for _, pair := range [][2][]*Segment{{a, b}, {b, a}} {
		in, err := containsChain(pair[0], pair[1], tol)
		if err != nil {
			return err
		}
		if in {
			return fmt.Errorf("%w: one hole encloses another", ErrOverlap)
		}
	}
	return nil
}

// contains reports whether the chain inner, which must not cross the
// boundary, lies inside o.
func (o *Outline) contains(inner []*Segment) (bool, error) {
	return containsChain(o.segs, inner, o.minRes)
}

func containsChain(outer, inner []*Segment, tol float64) (bool, error) {
	return chainContains(outer, inner[0].Midpoint(), tol)
}

// crossings returns the distinct points where chains a and b meet.
func crossings(a, b []*Segment, tol float64) ([]Point, error) {
	var pts []Point
	for _, s := range a {
		for _, t := range b {
			ps, overlap := Intersect(s, t, tol)
			if overlap {
				return nil, fmt.Errorf("%w: %v and %v", ErrOverlap, s, t)
			}
			pts = append(pts, ps...)
		}
	}
	return dedupe(pts, tol), nil
}

// splitChain splits segments so that every point in pts becomes a vertex.
func splitChain(segs []*Segment, pts []Point, tol float64) []*Segment {
	out := make([]*Segment, 0, len(segs)+len(pts))
	for _, s := range segs {
		var cuts []cut
		for _, p := range pts {
			if s.Distance(p) > tol {
				continue
			}
			if s.kind != SegCircle && (p.Near(s.start, tol) || p.Near(s.end, tol)) {
				continue
			}
			cuts = append(cuts, cut{t: s.param(p), p: p})
		}
		slices.SortFunc(cuts, func(a, b cut) int { return cmp.Compare(a.t, b.t) })
		out = append(out, s.splitAt(cuts)...)
	}
	return out
}

// divide rotates a closed chain to start at x and cuts it at y, giving the
// paths x→y and y→x.
func divide(segs []*Segment, x, y Point, tol float64) (xy, yx []*Segment, err error) {
	i := slices.IndexFunc(segs, func(s *Segment) bool { return s.start.Near(x, tol) })
	if i < 0 {
		return nil, nil, fmt.Errorf("%w: no vertex at %v", ErrIntersections, x)
	}
	ring := slices.Concat(segs[i:], segs[:i])
	j := slices.IndexFunc(ring, func(s *Segment) bool { return s.end.Near(y, tol) })
	if j < 0 || j == len(ring)-1 {
		return nil, nil, fmt.Errorf("%w: no vertex at %v", ErrIntersections, y)
	}
	return slices.Clone(ring[:j+1]), slices.Clone(ring[j+1:]), nil
}

// pickPath returns whichever of p1 and p2 lies inside (or outside) the
// closed chain against. Exactly one must qualify.
func pickPath(p1, p2, against []*Segment, inside bool, tol float64) ([]*Segment, error) {
	var found []*Segment
	for _, p := range [][]*Segment{p1, p2} {
		in, err := chainContains(against, p[len(p)/2].Midpoint(), tol)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOverlap, err)
		}
		if in != inside {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: boundaries touch without crossing", ErrIntersections)
		}
		found = p
	}
	if found == nil {
		return nil, fmt.Errorf("%w: boundaries touch without crossing", ErrIntersections)
	}
	return found, nil
}
