package iges

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"
)

// endpointer is implemented by curves whose ends are known without
// evaluation.
type endpointer interface {
	endpoints() (start, end Point)
}

// CircularArc is entity 100. The arc runs counterclockwise from Start to
// End around Center in the plane Z = ZT of its definition space.
type CircularArc struct {
	node
	ZT     float64
	Center Point
	Start  Point
	End    Point
}

func (p *CircularArc) readParams(r *paramReader) {
	p.ZT = r.real(0)
	p.Center = Point{X: r.real(0), Y: r.real(0), Z: p.ZT}
	p.Start = Point{X: r.real(0), Y: r.real(0), Z: p.ZT}
	p.End = Point{X: r.real(0), Y: r.real(0), Z: p.ZT}
}

func (p *CircularArc) writeParams(w *paramWriter) {
	w.real(p.ZT)
	for _, q := range []Point{p.Center, p.Start, p.End} {
		w.real(q.X)
		w.real(q.Y)
	}
}

func (p *CircularArc) endpoints() (Point, Point) {
	s, e := p.Start, p.End
	s.Z, e.Z = p.ZT, p.ZT
	return s, e
}

// Radius returns the distance from the center to the start point.
func (p *CircularArc) Radius() float64 {
	return math.Hypot(p.Start.X-p.Center.X, p.Start.Y-p.Center.Y)
}

// Line is entity 110.
type Line struct {
	node
	P1, P2 Point
}

func (p *Line) readParams(r *paramReader) {
	p.P1 = r.point(Point{})
	p.P2 = r.point(Point{})
}

func (p *Line) writeParams(w *paramWriter) {
	w.point(p.P1)
	w.point(p.P2)
}

func (p *Line) endpoints() (Point, Point) { return p.P1, p.P2 }

// PointEntity is entity 116. Symbol optionally references the Subfigure
// Definition used to display the point.
type PointEntity struct {
	node
	P         Point
	symbol    *Entity
	symbolSeq int
}

func (p *PointEntity) readParams(r *paramReader) {
	p.P = r.point(Point{})
	if r.more() {
		p.symbolSeq = r.ptr()
	}
}

func (p *PointEntity) writeParams(w *paramWriter) {
	w.point(p.P)
	w.ptr(p.symbol)
}

func (p *PointEntity) associate(a *associator) {
	p.symbol = a.resolve(p.symbolSeq, subfigureRule)
	p.symbolSeq = 0
}

func (p *PointEntity) children() []*Entity {
	if p.symbol == nil {
		return nil
	}
	return []*Entity{p.symbol}
}

func (p *PointEntity) unlink(child *Entity) bool {
	if p.symbol != child {
		return false
	}
	p.symbol = nil
	return true
}

func (p *PointEntity) Symbol() *Entity { return p.symbol }

func (p *PointEntity) SetSymbol(sub *Entity) error {
	if sub != nil {
		if err := p.link(sub, subfigureRule); err != nil {
			return err
		}
	}
	old := p.symbol
	p.symbol = sub
	p.release(old)
	return nil
}

func (p *PointEntity) endpoints() (Point, Point) { return p.P, p.P }

// CompositeCurve is entity 102: an ordered chain of curves.
type CompositeCurve struct {
	node
	curves []*Entity
	raw    []int
}

func (p *CompositeCurve) readParams(r *paramReader) {
	n := r.count()
	p.raw = make([]int, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		p.raw = append(p.raw, r.ptr())
	}
}

func (p *CompositeCurve) writeParams(w *paramWriter) {
	w.int(len(p.curves))
	for _, c := range p.curves {
		w.ptr(c)
	}
}

func (p *CompositeCurve) associate(a *associator) {
	for i, seq := range p.raw {
		c := a.required(seq, compositeMemberRule)
		if c == nil {
			return
		}
		if i > 0 && c.typ == TypePoint && p.curves[i-1].typ == TypePoint {
			a.err = fmt.Errorf("%w: consecutive Point entities in Composite Curve", ErrInvalidPointer)
			return
		}
		p.curves = append(p.curves, c)
		p.self.physicalChild(c)
	}
	p.raw = nil
	// The first member has no predecessor; only joints are checked.
	for i := 1; i < len(p.curves); i++ {
		_, end, ok := curveEnds(p.curves[i-1])
		start, _, ok2 := curveEnds(p.curves[i])
		if !ok || !ok2 {
			continue
		}
		if d := dist(end, start); d > a.tol {
			a.log.Info("composite curve members not contiguous",
				zap.Int("de", p.self.seq),
				zap.Int("member", i),
				zap.Float64("gap", d))
		}
	}
}

func (p *CompositeCurve) children() []*Entity { return slices.Clone(p.curves) }

func (p *CompositeCurve) missing() bool { return len(p.curves) == 0 && len(p.raw) == 0 }

// unlink removes a terminal member alone; removing an interior member would
// break the chain so every member is released.
func (p *CompositeCurve) unlink(child *Entity) bool {
	i := slices.Index(p.curves, child)
	if i < 0 {
		return false
	}
	if i == 0 || i == len(p.curves)-1 {
		p.curves = slices.Delete(p.curves, i, i+1)
		return true
	}
	old := p.curves
	p.curves = nil
	p.release(old...)
	return true
}

// Curves returns the members in order.
func (p *CompositeCurve) Curves() []*Entity { return slices.Clone(p.curves) }

// AddCurve appends c to the chain.
func (p *CompositeCurve) AddCurve(c *Entity) error {
	if c != nil && c.typ == TypePoint && len(p.curves) > 0 && p.curves[len(p.curves)-1].typ == TypePoint {
		return fmt.Errorf("%w: consecutive Point entities in Composite Curve", ErrInvalidPointer)
	}
	if err := p.link(c, compositeMemberRule); err != nil {
		return err
	}
	p.curves = append(p.curves, c)
	p.self.physicalChild(c)
	return nil
}

// NURBSCurve is entity 126, a rational B-spline curve. The number of
// control points is len(Control); K in the file is len(Control)-1.
type NURBSCurve struct {
	node
	Degree   int
	Planar   bool
	Closed   bool
	Periodic bool
	Knots    []float64
	Weights  []float64
	Control  []Point
	V0, V1   float64
	Normal   Point
}

func (p *NURBSCurve) readParams(r *paramReader) {
	k := r.int(0)
	p.Degree = r.int(0)
	p.Planar = r.bool()
	p.Closed = r.bool()
	r.bool() // polynomial flag; derived from the weights on write
	p.Periodic = r.bool()
	if r.err == nil && (k < 0 || p.Degree < 1) {
		r.err = fmt.Errorf("%w: bad B-spline upper index %d or degree %d", ErrCorrupt, k, p.Degree)
		return
	}
	p.Knots = r.reals(k + p.Degree + 2)
	p.Weights = r.reals(k + 1)
	p.Control = r.points(k + 1)
	p.V0 = r.real(0)
	p.V1 = r.real(1)
	if r.more() {
		p.Normal = r.point(Point{Z: 1})
	}
}

func (p *NURBSCurve) writeParams(w *paramWriter) {
	w.int(len(p.Control) - 1)
	w.int(p.Degree)
	w.bool(p.Planar)
	w.bool(p.Closed)
	w.bool(polynomial(p.Weights))
	w.bool(p.Periodic)
	for _, v := range p.Knots {
		w.real(v)
	}
	for _, v := range p.Weights {
		w.real(v)
	}
	for _, c := range p.Control {
		w.point(c)
	}
	w.real(p.V0)
	w.real(p.V1)
	w.point(p.Normal)
}

func (p *NURBSCurve) endpoints() (Point, Point) {
	if len(p.Control) == 0 {
		return Point{}, Point{}
	}
	return p.Control[0], p.Control[len(p.Control)-1]
}

// Validate checks the knot, weight and control point counts.
func (p *NURBSCurve) Validate() error {
	return validateSpline(p.Degree, p.Knots, len(p.Control), p.Weights, p.V0, p.V1)
}

func validateSpline(degree int, knots []float64, n int, weights []float64, v0, v1 float64) error {
	if degree < 1 {
		return fmt.Errorf("iges: B-spline degree %d < 1", degree)
	}
	if n < degree+1 {
		return fmt.Errorf("iges: %d control points for degree %d", n, degree)
	}
	if len(knots) != n+degree+1 {
		return fmt.Errorf("iges: %d knots, want %d", len(knots), n+degree+1)
	}
	if len(weights) != n {
		return fmt.Errorf("iges: %d weights, want %d", len(weights), n)
	}
	for i := 1; i < len(knots); i++ {
		if knots[i] < knots[i-1] {
			return fmt.Errorf("iges: knot vector decreases at %d", i)
		}
	}
	for i, w := range weights {
		if w <= 0 {
			return fmt.Errorf("iges: weight %d is not positive", i)
		}
	}
	if v0 >= v1 {
		return fmt.Errorf("iges: empty parameter range [%g, %g]", v0, v1)
	}
	return nil
}

func polynomial(weights []float64) bool {
	for _, w := range weights {
		if w != weights[0] {
			return false
		}
	}
	return true
}

// curveEnds returns the model space end points of a curve when they are
// known without evaluation.
func curveEnds(e *Entity) (start, end Point, ok bool) {
	ep, ok := e.data.(endpointer)
	if !ok {
		if cc, isCC := e.data.(*CompositeCurve); isCC && len(cc.curves) > 0 {
			s, _, ok1 := curveEnds(cc.curves[0])
			_, en, ok2 := curveEnds(cc.curves[len(cc.curves)-1])
			return applyTransform(e, s), applyTransform(e, en), ok1 && ok2
		}
		return Point{}, Point{}, false
	}
	start, end = ep.endpoints()
	return applyTransform(e, start), applyTransform(e, end), true
}

func dist(a, b Point) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y) + (a.Z-b.Z)*(a.Z-b.Z))
}
