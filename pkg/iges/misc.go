package iges

import (
	"fmt"
	"slices"
)

// Transformation is entity 124: P' = R*P + T.
type Transformation struct {
	node
	R [3][3]float64
	T Point
}

func newTransformation() *Transformation {
	return &Transformation{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

func (p *Transformation) readParams(r *paramReader) {
	t := [3]float64{}
	for i := 0; i < 3; i++ {
		p.R[i][0] = r.real(0)
		p.R[i][1] = r.real(0)
		p.R[i][2] = r.real(0)
		t[i] = r.real(0)
	}
	p.T = Point{X: t[0], Y: t[1], Z: t[2]}
}

func (p *Transformation) writeParams(w *paramWriter) {
	t := [3]float64{p.T.X, p.T.Y, p.T.Z}
	for i := 0; i < 3; i++ {
		w.real(p.R[i][0])
		w.real(p.R[i][1])
		w.real(p.R[i][2])
		w.real(t[i])
	}
}

// Apply maps q through the matrix.
func (p *Transformation) Apply(q Point) Point {
	return Point{
		X: p.R[0][0]*q.X + p.R[0][1]*q.Y + p.R[0][2]*q.Z + p.T.X,
		Y: p.R[1][0]*q.X + p.R[1][1]*q.Y + p.R[1][2]*q.Z + p.T.Y,
		Z: p.R[2][0]*q.X + p.R[2][1]*q.Y + p.R[2][2]*q.Z + p.T.Z,
	}
}

// applyTransform maps q from the definition space of e to model space.
func applyTransform(e *Entity, q Point) Point {
	for depth := 0; e != nil && depth < 32; depth++ {
		t := e.ptrs[FieldTransform]
		if t == nil {
			break
		}
		if tr, ok := t.data.(*Transformation); ok {
			q = tr.Apply(q)
		}
		e = t
	}
	return q
}

// BoolOp is a Boolean Tree operator.
type BoolOp int

const (
	BoolUnion        BoolOp = 1
	BoolIntersection BoolOp = 2
	BoolDifference   BoolOp = 3
)

// BoolItem is one post-order element of a Boolean Tree: either an operand
// or an operator.
type BoolItem struct {
	Op      BoolOp
	Operand *Entity
}

// BooleanTree is entity 180.
type BooleanTree struct {
	node
	items []BoolItem
	raw   []int
}

func (p *BooleanTree) readParams(r *paramReader) {
	n := r.count()
	for i := 0; i < n && r.err == nil; i++ {
		p.raw = append(p.raw, r.int(0))
	}
}

func (p *BooleanTree) writeParams(w *paramWriter) {
	w.int(len(p.items))
	for _, it := range p.items {
		if it.Operand != nil {
			w.int(-w.seqOf(it.Operand))
			continue
		}
		w.int(int(it.Op))
	}
}

func (p *BooleanTree) associate(a *associator) {
	items := make([]BoolItem, 0, len(p.raw))
	for _, v := range p.raw {
		if v < 0 {
			c := a.required(-v, operandRule)
			if c == nil {
				return
			}
			items = append(items, BoolItem{Operand: c})
			continue
		}
		items = append(items, BoolItem{Op: BoolOp(v)})
	}
	if err := checkPostOrder(items); err != nil {
		a.err = err
		return
	}
	p.items = items
	p.raw = nil
}

func (p *BooleanTree) children() []*Entity {
	var out []*Entity
	for _, it := range p.items {
		if it.Operand != nil {
			out = append(out, it.Operand)
		}
	}
	return out
}

func (p *BooleanTree) missing() bool { return len(p.items) == 0 && len(p.raw) == 0 }

// unlink releases every operand: a tree with a hole in it has no meaning.
func (p *BooleanTree) unlink(child *Entity) bool {
	old := p.children()
	if !slices.Contains(old, child) {
		return false
	}
	p.items = nil
	p.release(old...)
	return true
}

// Items returns the tree in post-order.
func (p *BooleanTree) Items() []BoolItem { return slices.Clone(p.items) }

// SetItems replaces the tree. items must be a valid post-order expression.
func (p *BooleanTree) SetItems(items []BoolItem) error {
	if err := checkPostOrder(items); err != nil {
		return err
	}
	var linked []*Entity
	for _, it := range items {
		if it.Operand == nil {
			continue
		}
		if err := p.link(it.Operand, operandRule); err != nil {
			p.release(linked...)
			return err
		}
		linked = append(linked, it.Operand)
	}
	old := p.children()
	p.items = slices.Clone(items)
	p.release(old...)
	return nil
}

func checkPostOrder(items []BoolItem) error {
	depth := 0
	for i, it := range items {
		if it.Operand != nil {
			depth++
			continue
		}
		if it.Op < BoolUnion || it.Op > BoolDifference {
			return fmt.Errorf("%w: boolean operator %d at %d", ErrInvalidPointer, it.Op, i)
		}
		if depth < 2 {
			return fmt.Errorf("%w: boolean operator at %d lacks operands", ErrInvalidPointer, i)
		}
		depth--
	}
	if depth != 1 {
		return fmt.Errorf("%w: boolean tree leaves %d results", ErrInvalidPointer, depth)
	}
	return nil
}

// SubfigureDefinition is entity 308.
type SubfigureDefinition struct {
	node
	Depth   int
	Name    string
	members []*Entity
	raw     []int
}

func (p *SubfigureDefinition) readParams(r *paramReader) {
	p.Depth = r.int(0)
	p.Name = r.str()
	n := r.count()
	for i := 0; i < n && r.err == nil; i++ {
		p.raw = append(p.raw, r.ptr())
	}
}

func (p *SubfigureDefinition) writeParams(w *paramWriter) {
	w.int(p.Depth)
	w.str(p.Name)
	w.int(len(p.members))
	for _, m := range p.members {
		w.ptr(m)
	}
}

func (p *SubfigureDefinition) associate(a *associator) {
	for _, seq := range p.raw {
		c := a.required(seq, memberRule)
		if c == nil {
			return
		}
		if err := p.checkDepth(c); err != nil {
			a.err = err
			return
		}
		p.members = append(p.members, c)
	}
	p.raw = nil
}

func (p *SubfigureDefinition) checkDepth(c *Entity) error {
	if sub, ok := c.data.(*SubfigureDefinition); ok && sub.Depth >= p.Depth {
		return fmt.Errorf("%w: nested subfigure depth %d not below %d", ErrInvalidPointer, sub.Depth, p.Depth)
	}
	return nil
}

func (p *SubfigureDefinition) children() []*Entity { return slices.Clone(p.members) }

func (p *SubfigureDefinition) unlink(child *Entity) bool {
	i := slices.Index(p.members, child)
	if i < 0 {
		return false
	}
	p.members = slices.Delete(p.members, i, i+1)
	return true
}

func (p *SubfigureDefinition) Members() []*Entity { return slices.Clone(p.members) }

func (p *SubfigureDefinition) AddMember(c *Entity) error {
	if c != nil {
		if err := p.checkDepth(c); err != nil {
			return err
		}
	}
	if err := p.link(c, memberRule); err != nil {
		return err
	}
	p.members = append(p.members, c)
	return nil
}

// ColorDefinition is entity 314. Components are percentages.
type ColorDefinition struct {
	node
	Red, Green, Blue float64
	Name             string
}

func (p *ColorDefinition) readParams(r *paramReader) {
	p.Red = r.real(0)
	p.Green = r.real(0)
	p.Blue = r.real(0)
	if r.more() {
		p.Name = r.str()
	}
}

func (p *ColorDefinition) writeParams(w *paramWriter) {
	w.real(p.Red)
	w.real(p.Green)
	w.real(p.Blue)
	w.str(p.Name)
}

// SetRGB sets the components; each must lie in 0..100.
func (p *ColorDefinition) SetRGB(r, g, b float64) error {
	for _, v := range []float64{r, g, b} {
		if v < 0 || v > 100 {
			return fmt.Errorf("iges: color component %g outside 0..100", v)
		}
	}
	p.Red, p.Green, p.Blue = r, g, b
	return nil
}

// SubfigureInstance is entity 408, a placement of a Subfigure Definition.
type SubfigureInstance struct {
	node
	Offset Point
	Scale  float64
	def    *Entity
	defSeq int
}

func (p *SubfigureInstance) readParams(r *paramReader) {
	p.defSeq = r.ptr()
	p.Offset = r.point(Point{})
	p.Scale = r.real(1)
}

func (p *SubfigureInstance) writeParams(w *paramWriter) {
	w.ptr(p.def)
	w.point(p.Offset)
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}
	w.real(scale)
}

func (p *SubfigureInstance) associate(a *associator) {
	p.def = a.required(p.defSeq, subfigureRule)
	p.defSeq = 0
}

func (p *SubfigureInstance) children() []*Entity {
	if p.def == nil {
		return nil
	}
	return []*Entity{p.def}
}

func (p *SubfigureInstance) missing() bool { return p.def == nil && p.defSeq == 0 }

func (p *SubfigureInstance) unlink(child *Entity) bool {
	if p.def != child {
		return false
	}
	p.def = nil
	return true
}

func (p *SubfigureInstance) Definition() *Entity { return p.def }

func (p *SubfigureInstance) SetDefinition(def *Entity) error {
	if err := p.link(def, subfigureRule); err != nil {
		return err
	}
	old := p.def
	p.def = def
	p.release(old)
	return nil
}
