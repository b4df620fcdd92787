package mcad

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"
)

var (
	ErrClosed        = errors.New("mcad: outline is closed")
	ErrNotClosed     = errors.New("mcad: outline is not closed")
	ErrInvalid       = errors.New("mcad: outline is no longer valid")
	ErrDisconnected  = errors.New("mcad: segment does not continue the chain")
	ErrOnBoundary    = errors.New("mcad: point lies on the boundary")
	ErrIntersections = errors.New("mcad: outlines must meet at exactly two points")
	ErrOverlap       = errors.New("mcad: overlapping boundaries")
	ErrContained     = errors.New("mcad: outline is fully contained")
	ErrDisjoint      = errors.New("mcad: outlines are disjoint")
	ErrWinding       = errors.New("mcad: result is not counterclockwise")
)

// Outline is a closed chain of segments with cutouts and drill holes. The
// zero value is not usable; call NewOutline.
//
// An Outline is not safe for concurrent use.
type Outline struct {
	minRes  float64
	segs    []*Segment
	cutouts []*Outline
	holes   []*Segment
	closed  bool
	invalid bool
	bounds  *Bounds
	errs    []string
	log     *zap.Logger
}

// NewOutline returns an empty outline that compares points within minRes.
// A zero minRes selects DefaultMinResolution.
func NewOutline(minRes float64) *Outline {
	if minRes <= 0 {
		minRes = DefaultMinResolution
	}
	return &Outline{minRes: minRes, log: zap.NewNop()}
}

// CircleOutline returns a closed outline made of a single circle.
func CircleOutline(center Point, radius, minRes float64) (*Outline, error) {
	c, err := NewCircle(center, radius)
	if err != nil {
		return nil, err
	}
	o := NewOutline(minRes)
	if err := o.AddSegment(c); err != nil {
		return nil, err
	}
	return o, nil
}

// SetLogger routes failure diagnostics to l in addition to the error queue.
func (o *Outline) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	o.log = l
}

func (o *Outline) MinResolution() float64 { return o.minRes }

func (o *Outline) IsClosed() bool { return o.closed }

// IsValid reports whether the outline can still be used. Outlines absorbed
// by AddOutline or AddCutout become invalid.
func (o *Outline) IsValid() bool { return !o.invalid }

func (o *Outline) Segments() []*Segment   { return slices.Clone(o.segs) }
func (o *Outline) Cutouts() []*Outline    { return slices.Clone(o.cutouts) }
func (o *Outline) DrillHoles() []*Segment { return slices.Clone(o.holes) }

// Errors returns the queued failure messages, oldest first.
func (o *Outline) Errors() []string { return slices.Clone(o.errs) }

func (o *Outline) ClearErrors() { o.errs = nil }

// fail queues err and returns it.
func (o *Outline) fail(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	o.errs = append(o.errs, err.Error())
	o.log.Debug("outline operation failed", zap.String("op", op), zap.Error(err))
	return err
}

// AddSegment appends s to the open chain. The outline closes when the
// chain returns to its first point; a clockwise chain is reversed at that
// moment so that stored chains always run counterclockwise.
func (o *Outline) AddSegment(s *Segment) error {
	const op = "add segment"
	switch {
	case o.invalid:
		return o.fail(op, ErrInvalid)
	case o.closed:
		return o.fail(op, ErrClosed)
	case s == nil:
		return o.fail(op, fmt.Errorf("%w: nil segment", ErrDegenerate))
	case s.Length() <= o.minRes || (s.curved() && s.radius <= o.minRes):
		return o.fail(op, fmt.Errorf("%w: %v", ErrDegenerate, s))
	}
	if n := len(o.segs); n > 0 {
		if s.kind == SegCircle {
			return o.fail(op, fmt.Errorf("%w: a circle must be the only segment", ErrDisconnected))
		}
		if !o.segs[n-1].end.Near(s.start, o.minRes) {
			return o.fail(op, fmt.Errorf("%w: %v does not meet %v", ErrDisconnected, s.start, o.segs[n-1].end))
		}
	}
	o.segs = append(o.segs, s)
	o.bounds = nil
	if s.kind == SegCircle || (len(o.segs) > 1 && s.end.Near(o.segs[0].start, o.minRes)) {
		o.closed = true
		if o.Winding() < 0 {
			o.segs = reverseChain(o.segs)
		}
	}
	return nil
}

// IsContiguous reports whether every segment ends where the next one
// starts, including the wrap from last to first on a closed outline.
func (o *Outline) IsContiguous() bool {
	return contiguous(o.segs, o.closed, o.minRes)
}

func contiguous(segs []*Segment, closed bool, tol float64) bool {
	if len(segs) == 0 {
		return false
	}
	for i := 1; i < len(segs); i++ {
		if !segs[i-1].end.Near(segs[i].start, tol) {
			return false
		}
	}
	return !closed || segs[len(segs)-1].end.Near(segs[0].start, tol)
}

// Winding returns the signed area enclosed by the segment chain; it is
// positive for counterclockwise chains.
func (o *Outline) Winding() float64 { return chainArea(o.segs) }

func chainArea(segs []*Segment) float64 {
	var a float64
	for _, s := range segs {
		a += s.area()
	}
	return a
}

func reverseChain(segs []*Segment) []*Segment {
	out := make([]*Segment, len(segs))
	for i, s := range segs {
		out[len(segs)-1-i] = s.Reverse()
	}
	return out
}

// Bounds returns the bounding box of the outer boundary.
func (o *Outline) Bounds() Bounds {
	if o.bounds == nil {
		b := emptyBounds()
		for _, s := range o.segs {
			b = b.union(s.Bounds())
		}
		o.bounds = &b
	}
	return *o.bounds
}

// IsInside reports whether p lies in the material of the outline: inside
// the boundary and outside every cutout and drill hole. Points on any
// boundary are reported as an error.
func (o *Outline) IsInside(p Point) (bool, error) {
	const op = "is inside"
	if err := o.usable(); err != nil {
		return false, o.fail(op, err)
	}
	in, err := chainContains(o.segs, p, o.minRes)
	if err != nil || !in {
		return false, o.failIf(op, err)
	}
	for _, c := range o.cutouts {
		hit, err := chainContains(c.segs, p, o.minRes)
		if err != nil {
			return false, o.fail(op, err)
		}
		if hit {
			return false, nil
		}
	}
	for _, h := range o.holes {
		if h.Distance(p) <= o.minRes {
			return false, o.fail(op, fmt.Errorf("%w: %v on drill hole %v", ErrOnBoundary, p, h))
		}
		if p.Dist(h.center) < h.radius {
			return false, nil
		}
	}
	return true, nil
}

func (o *Outline) failIf(op string, err error) error {
	if err == nil {
		return nil
	}
	return o.fail(op, err)
}

// chainContains tests p against a closed chain by summing the angle each
// segment subtends at p.
func chainContains(segs []*Segment, p Point, tol float64) (bool, error) {
	var total float64
	for _, s := range segs {
		if s.Distance(p) <= tol {
			return false, fmt.Errorf("%w: %v on %v", ErrOnBoundary, p, s)
		}
		total += s.winding(p)
	}
	return math.Abs(total) > math.Pi, nil
}

func (o *Outline) usable() error {
	switch {
	case o.invalid:
		return ErrInvalid
	case !o.closed:
		return ErrNotClosed
	}
	return nil
}

// snapshot captures everything a failed operation must restore.
type snapshot struct {
	segs    []*Segment
	cutouts []*Outline
	holes   []*Segment
	closed  bool
}

func (o *Outline) save() snapshot {
	return snapshot{
		segs:    slices.Clone(o.segs),
		cutouts: slices.Clone(o.cutouts),
		holes:   slices.Clone(o.holes),
		closed:  o.closed,
	}
}

func (o *Outline) restore(s snapshot) {
	o.segs, o.cutouts, o.holes, o.closed = s.segs, s.cutouts, s.holes, s.closed
	o.bounds = nil
}

// take empties o after its geometry has been absorbed by another outline.
func (o *Outline) take() {
	o.segs, o.cutouts, o.holes = nil, nil, nil
	o.closed = false
	o.invalid = true
	o.bounds = nil
}

func (o *Outline) String() string {
	return fmt.Sprintf("outline(%d segments, %d cutouts, %d holes, closed=%t)",
		len(o.segs), len(o.cutouts), len(o.holes), o.closed)
}
