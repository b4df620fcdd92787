package iges

import (
	"fmt"
	"slices"
)

// SurfaceOfRevolution is entity 120: Generatrix swept about Axis from
// StartAngle to EndAngle (radians).
type SurfaceOfRevolution struct {
	node
	StartAngle, EndAngle float64

	axis, generatrix       *Entity
	axisSeq, generatrixSeq int
}

func (p *SurfaceOfRevolution) readParams(r *paramReader) {
	p.axisSeq = r.ptr()
	p.generatrixSeq = r.ptr()
	p.StartAngle = r.real(0)
	p.EndAngle = r.real(0)
}

func (p *SurfaceOfRevolution) writeParams(w *paramWriter) {
	w.ptr(p.axis)
	w.ptr(p.generatrix)
	w.real(p.StartAngle)
	w.real(p.EndAngle)
}

func (p *SurfaceOfRevolution) associate(a *associator) {
	p.axis = a.required(p.axisSeq, axisRule)
	p.generatrix = a.required(p.generatrixSeq, generatrixRule)
	p.axisSeq, p.generatrixSeq = 0, 0
	p.self.physicalChild(p.axis)
	p.self.physicalChild(p.generatrix)
}

func (p *SurfaceOfRevolution) children() []*Entity { return nonNil(p.axis, p.generatrix) }

func (p *SurfaceOfRevolution) missing() bool {
	return (p.axis == nil && p.axisSeq == 0) || (p.generatrix == nil && p.generatrixSeq == 0)
}

func (p *SurfaceOfRevolution) unlink(child *Entity) bool {
	found := false
	if p.axis == child {
		p.axis, found = nil, true
	}
	if p.generatrix == child {
		p.generatrix, found = nil, true
	}
	return found
}

func (p *SurfaceOfRevolution) Axis() *Entity       { return p.axis }
func (p *SurfaceOfRevolution) Generatrix() *Entity { return p.generatrix }

func (p *SurfaceOfRevolution) SetAxis(axis *Entity) error {
	return p.setChild(&p.axis, axis, axisRule)
}

func (p *SurfaceOfRevolution) SetGeneratrix(c *Entity) error {
	return p.setChild(&p.generatrix, c, generatrixRule)
}

// setChild links c into *slot, marking it physically dependent and
// releasing the previous occupant.
func (n *node) setChild(slot **Entity, c *Entity, r childRule) error {
	if err := n.link(c, r); err != nil {
		return err
	}
	old := *slot
	*slot = c
	n.self.physicalChild(c)
	n.release(old)
	return nil
}

// TabulatedCylinder is entity 122: Directrix swept along the vector to
// Terminate.
type TabulatedCylinder struct {
	node
	Terminate    Point
	directrix    *Entity
	directrixSeq int
}

func (p *TabulatedCylinder) readParams(r *paramReader) {
	p.directrixSeq = r.ptr()
	p.Terminate = r.point(Point{})
}

func (p *TabulatedCylinder) writeParams(w *paramWriter) {
	w.ptr(p.directrix)
	w.point(p.Terminate)
}

func (p *TabulatedCylinder) associate(a *associator) {
	p.directrix = a.required(p.directrixSeq, directrixRule)
	p.directrixSeq = 0
	p.self.physicalChild(p.directrix)
}

func (p *TabulatedCylinder) children() []*Entity { return nonNil(p.directrix) }

func (p *TabulatedCylinder) missing() bool { return p.directrix == nil && p.directrixSeq == 0 }

func (p *TabulatedCylinder) unlink(child *Entity) bool {
	if p.directrix != child {
		return false
	}
	p.directrix = nil
	return true
}

func (p *TabulatedCylinder) Directrix() *Entity { return p.directrix }

func (p *TabulatedCylinder) SetDirectrix(c *Entity) error {
	return p.setChild(&p.directrix, c, directrixRule)
}

// NURBSSurface is entity 128. Control points and weights are stored with
// the U index varying fastest.
type NURBSSurface struct {
	node
	DegreeU, DegreeV     int
	ClosedU, ClosedV     bool
	PeriodicU, PeriodicV bool
	KnotsU, KnotsV       []float64
	Weights              []float64
	Control              []Point
	U0, U1, V0, V1       float64
}

// CountU returns the number of control points along U.
func (p *NURBSSurface) CountU() int { return len(p.KnotsU) - p.DegreeU - 1 }

// CountV returns the number of control points along V.
func (p *NURBSSurface) CountV() int { return len(p.KnotsV) - p.DegreeV - 1 }

func (p *NURBSSurface) readParams(r *paramReader) {
	k1 := r.int(0)
	k2 := r.int(0)
	p.DegreeU = r.int(0)
	p.DegreeV = r.int(0)
	p.ClosedU = r.bool()
	p.ClosedV = r.bool()
	r.bool() // polynomial flag
	p.PeriodicU = r.bool()
	p.PeriodicV = r.bool()
	if r.err == nil && (k1 < 0 || k2 < 0 || p.DegreeU < 1 || p.DegreeV < 1) {
		r.err = fmt.Errorf("%w: bad B-spline surface indices %d,%d degrees %d,%d", ErrCorrupt, k1, k2, p.DegreeU, p.DegreeV)
		return
	}
	p.KnotsU = r.reals(k1 + p.DegreeU + 2)
	p.KnotsV = r.reals(k2 + p.DegreeV + 2)
	n := (k1 + 1) * (k2 + 1)
	p.Weights = r.reals(n)
	p.Control = r.points(n)
	p.U0 = r.real(0)
	p.U1 = r.real(1)
	p.V0 = r.real(0)
	p.V1 = r.real(1)
}

func (p *NURBSSurface) writeParams(w *paramWriter) {
	w.int(p.CountU() - 1)
	w.int(p.CountV() - 1)
	w.int(p.DegreeU)
	w.int(p.DegreeV)
	w.bool(p.ClosedU)
	w.bool(p.ClosedV)
	w.bool(polynomial(p.Weights))
	w.bool(p.PeriodicU)
	w.bool(p.PeriodicV)
	for _, v := range p.KnotsU {
		w.real(v)
	}
	for _, v := range p.KnotsV {
		w.real(v)
	}
	for _, v := range p.Weights {
		w.real(v)
	}
	for _, c := range p.Control {
		w.point(c)
	}
	w.real(p.U0)
	w.real(p.U1)
	w.real(p.V0)
	w.real(p.V1)
}

// Validate checks knot, weight and control point counts in both directions.
func (p *NURBSSurface) Validate() error {
	nu, nv := p.CountU(), p.CountV()
	if nu < 1 || nv < 1 {
		return fmt.Errorf("iges: B-spline surface has %dx%d control points", nu, nv)
	}
	if len(p.Control) != nu*nv {
		return fmt.Errorf("iges: %d control points, want %d", len(p.Control), nu*nv)
	}
	ones := make([]float64, nu)
	for i := range ones {
		ones[i] = 1
	}
	if err := validateSpline(p.DegreeU, p.KnotsU, nu, ones, p.U0, p.U1); err != nil {
		return fmt.Errorf("U: %w", err)
	}
	ones = make([]float64, nv)
	for i := range ones {
		ones[i] = 1
	}
	if err := validateSpline(p.DegreeV, p.KnotsV, nv, ones, p.V0, p.V1); err != nil {
		return fmt.Errorf("V: %w", err)
	}
	if len(p.Weights) != nu*nv {
		return fmt.Errorf("iges: %d weights, want %d", len(p.Weights), nu*nv)
	}
	for i, w := range p.Weights {
		if w <= 0 {
			return fmt.Errorf("iges: weight %d is not positive", i)
		}
	}
	return nil
}

// Curve creation methods of entity 142.
const (
	CurveCreationUnspecified   = 0
	CurveCreationProjection    = 1
	CurveCreationIntersection  = 2
	CurveCreationIsoparametric = 3
)

// Preferred representation of entity 142.
const (
	PreferUnspecified = 0
	PreferParametric  = 1
	PreferModel       = 2
	PreferEither      = 3
)

// CurveOnSurface is entity 142: a curve lying on a surface, given in the
// surface's parameter space (BCurve) and/or in model space (CCurve).
type CurveOnSurface struct {
	node
	Creation  int
	Preferred int

	surface, bcurve, ccurve          *Entity
	surfaceSeq, bcurveSeq, ccurveSeq int
}

func (p *CurveOnSurface) readParams(r *paramReader) {
	p.Creation = r.int(0)
	p.surfaceSeq = r.ptr()
	p.bcurveSeq = r.ptr()
	p.ccurveSeq = r.ptr()
	p.Preferred = r.int(0)
}

func (p *CurveOnSurface) writeParams(w *paramWriter) {
	w.int(p.Creation)
	w.ptr(p.surface)
	w.ptr(p.bcurve)
	w.ptr(p.ccurve)
	w.int(p.Preferred)
}

func (p *CurveOnSurface) associate(a *associator) {
	p.surface = a.required(p.surfaceSeq, surfaceRule)
	p.bcurve = a.resolve(p.bcurveSeq, curveRule)
	p.ccurve = a.resolve(p.ccurveSeq, curveRule)
	p.surfaceSeq, p.bcurveSeq, p.ccurveSeq = 0, 0, 0
	if a.err == nil && p.bcurve == nil && p.ccurve == nil {
		a.err = fmt.Errorf("%w: curve on surface has neither B nor C curve", ErrInvalidPointer)
	}
	for _, c := range nonNil(p.surface, p.bcurve, p.ccurve) {
		p.self.physicalChild(c)
	}
	if p.bcurve != nil {
		p.bcurve.markParametric()
	}
}

func (p *CurveOnSurface) children() []*Entity { return nonNil(p.surface, p.bcurve, p.ccurve) }

func (p *CurveOnSurface) missing() bool { return p.surface == nil && p.surfaceSeq == 0 }

func (p *CurveOnSurface) unlink(child *Entity) bool {
	found := false
	for _, slot := range []**Entity{&p.surface, &p.bcurve, &p.ccurve} {
		if *slot == child {
			*slot, found = nil, true
		}
	}
	return found
}

func (p *CurveOnSurface) Surface() *Entity { return p.surface }
func (p *CurveOnSurface) BCurve() *Entity  { return p.bcurve }
func (p *CurveOnSurface) CCurve() *Entity  { return p.ccurve }

func (p *CurveOnSurface) SetSurface(s *Entity) error {
	return p.setChild(&p.surface, s, surfaceRule)
}

// SetBCurve sets the parameter space curve; it is flagged as 2D parametric.
func (p *CurveOnSurface) SetBCurve(c *Entity) error {
	if err := p.setChild(&p.bcurve, c, curveRule); err != nil {
		return err
	}
	c.markParametric()
	return nil
}

func (p *CurveOnSurface) SetCCurve(c *Entity) error {
	return p.setChild(&p.ccurve, c, curveRule)
}

// markParametric flags e and the members of a composite as parameter space
// geometry.
func (e *Entity) markParametric() {
	e.status.Use = UseParametric2D
	if cc, ok := e.data.(*CompositeCurve); ok {
		for _, c := range cc.curves {
			c.status.Use = UseParametric2D
		}
	}
}

// TrimmedSurface is entity 144: a surface bounded by an outer curve on
// surface and zero or more inner ones.
type TrimmedSurface struct {
	node

	surface  *Entity
	outer    *Entity
	inner    []*Entity
	surfSeq  int
	outerSeq int
	innerSeq []int
	n1       int
}

func (p *TrimmedSurface) readParams(r *paramReader) {
	p.surfSeq = r.ptr()
	p.n1 = r.int(0)
	n2 := r.count()
	p.outerSeq = r.ptr()
	for i := 0; i < n2 && r.err == nil; i++ {
		p.innerSeq = append(p.innerSeq, r.ptr())
	}
}

func (p *TrimmedSurface) writeParams(w *paramWriter) {
	w.ptr(p.surface)
	if p.outer != nil {
		w.int(1)
	} else {
		w.int(0)
	}
	w.int(len(p.inner))
	w.ptr(p.outer)
	for _, c := range p.inner {
		w.ptr(c)
	}
}

func (p *TrimmedSurface) associate(a *associator) {
	p.surface = a.required(p.surfSeq, surfaceRule)
	if p.n1 != 0 || p.outerSeq != 0 {
		p.outer = a.required(p.outerSeq, boundaryRule)
	}
	for _, seq := range p.innerSeq {
		c := a.required(seq, boundaryRule)
		if c == nil {
			break
		}
		p.inner = append(p.inner, c)
	}
	p.surfSeq, p.outerSeq, p.innerSeq = 0, 0, nil
	for _, c := range p.children() {
		p.self.physicalChild(c)
	}
}

func (p *TrimmedSurface) children() []*Entity {
	return append(nonNil(p.surface, p.outer), p.inner...)
}

// missing reports a Trimmed Surface without its surface; such an entity is
// always culled.
func (p *TrimmedSurface) missing() bool { return p.surface == nil && p.surfSeq == 0 }

func (p *TrimmedSurface) unlink(child *Entity) bool {
	found := false
	if p.surface == child {
		p.surface, found = nil, true
	}
	if p.outer == child {
		p.outer, found = nil, true
	}
	if n := len(p.inner); n > 0 {
		p.inner = slices.DeleteFunc(p.inner, func(c *Entity) bool { return c == child })
		found = found || len(p.inner) != n
	}
	return found
}

func (p *TrimmedSurface) Surface() *Entity { return p.surface }
func (p *TrimmedSurface) Outer() *Entity   { return p.outer }
func (p *TrimmedSurface) Inner() []*Entity { return slices.Clone(p.inner) }

func (p *TrimmedSurface) SetSurface(s *Entity) error {
	return p.setChild(&p.surface, s, surfaceRule)
}

// SetOuter sets the outer boundary; nil means the natural boundary of the
// surface.
func (p *TrimmedSurface) SetOuter(c *Entity) error {
	if c == nil {
		old := p.outer
		p.outer = nil
		p.release(old)
		return nil
	}
	return p.setChild(&p.outer, c, boundaryRule)
}

func (p *TrimmedSurface) AddInner(c *Entity) error {
	if err := p.link(c, boundaryRule); err != nil {
		return err
	}
	p.self.physicalChild(c)
	p.inner = append(p.inner, c)
	return nil
}

func nonNil(es ...*Entity) []*Entity {
	out := make([]*Entity, 0, len(es))
	for _, e := range es {
		if e != nil && !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}
