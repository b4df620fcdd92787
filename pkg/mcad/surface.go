package mcad

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/iges"
)

// GetVerticalSurface emits the side walls of the outline between botZ and
// topZ: one trimmed surface for every boundary segment, every cutout
// segment and every drill hole. Wall normals point away from the
// material. Nothing is added to m when an error is returned.
func (o *Outline) GetVerticalSurface(m *iges.Model, topZ, botZ float64) ([]*iges.Entity, error) {
	const op = "vertical surface"
	if err := o.emitCheck(m, topZ, botZ); err != nil {
		return nil, o.fail(op, err)
	}
	e := &emitter{m: m}
	out := e.walls(o, topZ, botZ)
	if e.err != nil {
		e.rollback()
		return nil, o.fail(op, e.err)
	}
	return out, nil
}

// GetPlanarSurface emits the face of the outline at height z, trimmed by
// the boundary and holed by every cutout and drill hole. The top face
// points +Z and the bottom face -Z.
func (o *Outline) GetPlanarSurface(m *iges.Model, z float64, top bool) (*iges.Entity, error) {
	const op = "planar surface"
	if err := o.usable(); err != nil {
		return nil, o.fail(op, err)
	}
	if m == nil {
		return nil, o.fail(op, fmt.Errorf("%w: nil model", ErrInvalid))
	}
	e := &emitter{m: m}
	out := e.face(o, z, top)
	if e.err != nil {
		e.rollback()
		return nil, o.fail(op, e.err)
	}
	return out, nil
}

// GetSolid emits the walls followed by the top and bottom faces.
func (o *Outline) GetSolid(m *iges.Model, topZ, botZ float64) ([]*iges.Entity, error) {
	const op = "solid"
	if err := o.emitCheck(m, topZ, botZ); err != nil {
		return nil, o.fail(op, err)
	}
	e := &emitter{m: m}
	out := e.walls(o, topZ, botZ)
	out = append(out, e.face(o, topZ, true), e.face(o, botZ, false))
	if e.err != nil {
		e.rollback()
		return nil, o.fail(op, e.err)
	}
	return out, nil
}

func (o *Outline) emitCheck(m *iges.Model, topZ, botZ float64) error {
	if err := o.usable(); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrInvalid)
	}
	if topZ-botZ <= o.minRes {
		return fmt.Errorf("%w: top %g is not above bottom %g", ErrDegenerate, topZ, botZ)
	}
	return nil
}

// emitter creates entities in a model and remembers them so that a failed
// emission can be undone. The first error sticks; later calls are no-ops.
type emitter struct {
	m    *iges.Model
	made []*iges.Entity
	err  error
}

func (e *emitter) entity(t iges.EntityType) *iges.Entity {
	if e.err != nil {
		return nil
	}
	ent, err := e.m.NewEntity(t)
	if err != nil {
		e.err = err
		return nil
	}
	e.made = append(e.made, ent)
	return ent
}

// create makes an entity of type t and returns it with its payload. A
// payload of any other type than T fails the emission.
func create[T iges.Payload](e *emitter, t iges.EntityType) (*iges.Entity, T) {
	var zero T
	ent := e.entity(t)
	if ent == nil {
		return nil, zero
	}
	p, ok := iges.As[T](ent)
	if !ok {
		e.err = fmt.Errorf("%s entity does not carry a %T payload", t, zero)
		return nil, zero
	}
	return ent, p
}

func (e *emitter) check(err error) {
	if e.err == nil && err != nil {
		e.err = err
	}
}

func (e *emitter) rollback() {
	for i := len(e.made) - 1; i >= 0; i-- {
		_ = e.m.DelEntity(e.made[i])
	}
	e.made = nil
}

func (e *emitter) walls(o *Outline, topZ, botZ float64) []*iges.Entity {
	var out []*iges.Entity
	for _, s := range o.segs {
		out = append(out, e.wall(s, topZ, botZ))
	}
	// hole walls run clockwise so that they face into the hole
	for _, c := range o.cutouts {
		for _, s := range reverseChain(c.segs) {
			out = append(out, e.wall(s, topZ, botZ))
		}
	}
	for _, h := range o.holes {
		out = append(out, e.wall(h.Reverse(), topZ, botZ))
	}
	return out
}

// wall emits the vertical patch swept by s. The surface is parameterised
// with U along s and V from botZ to topZ, both over [0, 1].
func (e *emitter) wall(s *Segment, topZ, botZ float64) *iges.Entity {
	sp := splineOf(s)
	n := len(sp.ctrl)
	ctrl := make([]iges.Point, 0, 2*n)
	weights := make([]float64, 0, 2*n)
	for _, z := range []float64{botZ, topZ} {
		for i, p := range sp.ctrl {
			ctrl = append(ctrl, iges.Point{X: p.X, Y: p.Y, Z: z})
			weights = append(weights, sp.weights[i])
		}
	}
	surf, p := create[*iges.NURBSSurface](e, iges.TypeNURBSSurface)
	if surf != nil {
		p.DegreeU, p.DegreeV = sp.degree, 1
		p.ClosedU = s.kind == SegCircle
		p.KnotsU = sp.knots
		p.KnotsV = []float64{0, 0, 1, 1}
		p.Weights = weights
		p.Control = ctrl
		p.U0, p.U1, p.V0, p.V1 = 0, 1, 0, 1
		e.check(p.Validate())
	}

	// parameter space: the unit square, counterclockwise
	uv := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	bcurve := e.composite(func(i int) *iges.Entity {
		return e.paramLine(uv[i], uv[(i+1)%4])
	}, 4)

	lo := func(p Point) iges.Point { return iges.Point{X: p.X, Y: p.Y, Z: botZ} }
	hi := func(p Point) iges.Point { return iges.Point{X: p.X, Y: p.Y, Z: topZ} }
	ccurve := e.composite(func(i int) *iges.Entity {
		switch i {
		case 0:
			return e.curve(s, botZ)
		case 1:
			return e.line(lo(s.end), hi(s.end))
		case 2:
			return e.curve(s.Reverse(), topZ)
		}
		return e.line(hi(s.start), lo(s.start))
	}, 4)

	return e.trimmed(surf, e.boundary(surf, bcurve, ccurve))
}

// face emits a planar patch over the outline's bounding box at height z,
// trimmed by the boundary and every hole.
func (e *emitter) face(o *Outline, z float64, top bool) *iges.Entity {
	b := o.Bounds()
	b.Min = b.Min.Sub(Point{o.minRes, o.minRes})
	b.Max = b.Max.Add(Point{o.minRes, o.minRes})
	corners := []Point{{b.Min.X, b.Min.Y}, {b.Max.X, b.Min.Y}, {b.Min.X, b.Max.Y}, {b.Max.X, b.Max.Y}}
	if !top {
		// run U along -X so that the normal points down
		corners = []Point{{b.Max.X, b.Min.Y}, {b.Min.X, b.Min.Y}, {b.Max.X, b.Max.Y}, {b.Min.X, b.Max.Y}}
	}
	surf, p := create[*iges.NURBSSurface](e, iges.TypeNURBSSurface)
	if surf != nil {
		p.DegreeU, p.DegreeV = 1, 1
		p.KnotsU = []float64{0, 0, 1, 1}
		p.KnotsV = []float64{0, 0, 1, 1}
		p.Weights = []float64{1, 1, 1, 1}
		for _, c := range corners {
			p.Control = append(p.Control, iges.Point{X: c.X, Y: c.Y, Z: z})
		}
		p.U0, p.U1, p.V0, p.V1 = 0, 1, 0, 1
		e.check(p.Validate())
	}

	toUV := func(q Point) Point {
		u := (q.X - b.Min.X) / b.Width()
		if !top {
			u = 1 - u
		}
		return Point{u, (q.Y - b.Min.Y) / b.Height()}
	}
	// outer loops run counterclockwise in parameter space and inner loops
	// clockwise; flipping U for the bottom face mirrors both
	loop := func(segs []*Segment, inner bool) *iges.Entity {
		if inner == top {
			segs = reverseChain(segs)
		}
		bc := e.composite(func(i int) *iges.Entity { return e.paramCurve(segs[i], toUV) }, len(segs))
		cc := e.composite(func(i int) *iges.Entity { return e.curve(segs[i], z) }, len(segs))
		return e.boundary(surf, bc, cc)
	}

	outer := loop(o.segs, false)
	var inner []*iges.Entity
	for _, c := range o.cutouts {
		inner = append(inner, loop(c.segs, true))
	}
	for _, h := range o.holes {
		inner = append(inner, loop([]*Segment{h}, true))
	}
	return e.trimmed(surf, outer, inner...)
}

func (e *emitter) trimmed(surf, outer *iges.Entity, inner ...*iges.Entity) *iges.Entity {
	ts, p := create[*iges.TrimmedSurface](e, iges.TypeTrimmedSurface)
	if ts == nil || surf == nil || outer == nil {
		return nil
	}
	e.check(p.SetSurface(surf))
	e.check(p.SetOuter(outer))
	for _, c := range inner {
		e.check(p.AddInner(c))
	}
	return ts
}

func (e *emitter) boundary(surf, bcurve, ccurve *iges.Entity) *iges.Entity {
	cos, p := create[*iges.CurveOnSurface](e, iges.TypeCurveOnSurface)
	if cos == nil || surf == nil || bcurve == nil || ccurve == nil {
		return nil
	}
	p.Creation = iges.CurveCreationUnspecified
	p.Preferred = iges.PreferParametric
	e.check(p.SetSurface(surf))
	e.check(p.SetBCurve(bcurve))
	e.check(p.SetCCurve(ccurve))
	return cos
}

// composite emits a composite curve of n members produced by member.
func (e *emitter) composite(member func(i int) *iges.Entity, n int) *iges.Entity {
	cc, p := create[*iges.CompositeCurve](e, iges.TypeCompositeCurve)
	if cc == nil {
		return nil
	}
	for i := range n {
		if c := member(i); c != nil {
			e.check(p.AddCurve(c))
		}
	}
	return cc
}

func (e *emitter) line(a, b iges.Point) *iges.Entity {
	ent, p := create[*iges.Line](e, iges.TypeLine)
	if ent == nil {
		return nil
	}
	p.P1, p.P2 = a, b
	return ent
}

// curve emits s at height z: a line, a circular arc when s runs
// counterclockwise, or a rational spline otherwise.
func (e *emitter) curve(s *Segment, z float64) *iges.Entity {
	at := func(p Point) iges.Point { return iges.Point{X: p.X, Y: p.Y, Z: z} }
	switch {
	case s.kind == SegLine:
		return e.line(at(s.start), at(s.end))
	case !s.IsCW():
		ent, p := create[*iges.CircularArc](e, iges.TypeCircularArc)
		if ent == nil {
			return nil
		}
		p.ZT = z
		p.Center, p.Start, p.End = at(s.center), at(s.start), at(s.end)
		return ent
	}
	return e.spline(splineOf(s), at)
}

// paramCurve emits s mapped into a surface's parameter space. The map is
// affine so the spline keeps its weights.
func (e *emitter) paramCurve(s *Segment, toUV func(Point) Point) *iges.Entity {
	return e.spline(splineOf(s), func(p Point) iges.Point {
		q := toUV(p)
		return iges.Point{X: q.X, Y: q.Y}
	})
}

func (e *emitter) paramLine(a, b Point) *iges.Entity {
	sp := spline{degree: 1, knots: []float64{0, 0, 1, 1}, weights: []float64{1, 1}, ctrl: []Point{a, b}}
	return e.spline(sp, func(p Point) iges.Point { return iges.Point{X: p.X, Y: p.Y} })
}

func (e *emitter) spline(sp spline, place func(Point) iges.Point) *iges.Entity {
	ent, p := create[*iges.NURBSCurve](e, iges.TypeNURBSCurve)
	if ent == nil {
		return nil
	}
	p.Degree = sp.degree
	p.Planar = true
	p.Closed = sp.ctrl[0].Near(sp.ctrl[len(sp.ctrl)-1], degenerate)
	p.Knots = sp.knots
	p.Weights = sp.weights
	for _, c := range sp.ctrl {
		p.Control = append(p.Control, place(c))
	}
	p.V0, p.V1 = 0, 1
	p.Normal = iges.Point{Z: 1}
	e.check(p.Validate())
	return ent
}

// spline is a planar rational B-spline over [0, 1].
type spline struct {
	degree  int
	knots   []float64
	weights []float64
	ctrl    []Point
}

// splineOf converts s to a spline. Arcs become rational quadratics with one
// span per quarter turn or less.
func splineOf(s *Segment) spline {
	if s.kind == SegLine {
		return spline{degree: 1, knots: []float64{0, 0, 1, 1}, weights: []float64{1, 1}, ctrl: []Point{s.start, s.end}}
	}
	n := int(math.Ceil(math.Abs(s.sweep)/(math.Pi/2) - 1e-9))
	n = max(n, 1)
	d := s.sweep / float64(n)
	w := math.Cos(d / 2)
	sp := spline{degree: 2, knots: []float64{0, 0, 0}}
	for i := range n {
		a := s.angle + float64(i)*d
		if i == 0 {
			sp.ctrl = append(sp.ctrl, s.start)
		} else {
			sp.ctrl = append(sp.ctrl, s.at(a))
			k := float64(i) / float64(n)
			sp.knots = append(sp.knots, k, k)
		}
		mid := a + d/2
		sp.ctrl = append(sp.ctrl, s.center.Add(Point{math.Cos(mid), math.Sin(mid)}.Scale(s.radius/w)))
		sp.weights = append(sp.weights, 1, w)
	}
	sp.ctrl = append(sp.ctrl, s.end)
	sp.weights = append(sp.weights, 1)
	sp.knots = append(sp.knots, 1, 1, 1)
	return sp
}
