package iges

import (
	"fmt"
	"maps"
	"slices"
)

// refTable counts how many times an owner uses each child. The owner's back
// reference in the child is registered on first use and released when the
// count drops to zero.
type refTable map[*Entity]int

func (t refTable) add(owner, child *Entity, r childRule) error {
	if t[child] == 0 {
		if err := r.check(owner, child); err != nil {
			return err
		}
		if _, err := child.AddReference(owner); err != nil {
			return err
		}
	}
	t[child]++
	return nil
}

// del decrements the use count of child, or drops every use when all is
// set. The owner must have removed child from its own lists first.
func (t refTable) del(owner, child *Entity, all bool) {
	n, ok := t[child]
	if !ok {
		return
	}
	if all || n <= 1 {
		delete(t, child)
		owner.drop(child)
		return
	}
	t[child] = n - 1
}

func (t refTable) clear(owner *Entity) {
	for _, c := range slices.Collect(maps.Keys(t)) {
		t.del(owner, c, true)
	}
}

// VertexList is entity 502.
type VertexList struct {
	node
	Vertices []Point
}

func (p *VertexList) readParams(r *paramReader) {
	p.Vertices = r.points(r.count())
}

func (p *VertexList) writeParams(w *paramWriter) {
	w.int(len(p.Vertices))
	for _, v := range p.Vertices {
		w.point(v)
	}
}

// Edge is one entry of an Edge List. Vertex indices are 1-based.
type Edge struct {
	Curve      *Entity
	Start      *Entity
	StartIndex int
	End        *Entity
	EndIndex   int
}

type rawEdge struct {
	curve, start, startIndex, end, endIndex int
}

// EdgeList is entity 504.
type EdgeList struct {
	node
	edges    []Edge
	raw      []rawEdge
	curves   refTable
	vertices refTable
}

func newEdgeList() *EdgeList {
	return &EdgeList{curves: refTable{}, vertices: refTable{}}
}

func (p *EdgeList) readParams(r *paramReader) {
	n := r.count()
	for i := 0; i < n && r.err == nil; i++ {
		p.raw = append(p.raw, rawEdge{r.ptr(), r.ptr(), r.int(0), r.ptr(), r.int(0)})
	}
}

func (p *EdgeList) writeParams(w *paramWriter) {
	w.int(len(p.edges))
	for _, e := range p.edges {
		w.ptr(e.Curve)
		w.ptr(e.Start)
		w.int(e.StartIndex)
		w.ptr(e.End)
		w.int(e.EndIndex)
	}
}

func (p *EdgeList) associate(a *associator) {
	for _, re := range p.raw {
		e := Edge{StartIndex: re.startIndex, EndIndex: re.endIndex}
		e.Curve = lookupChecked(a, re.curve, curveRule)
		e.Start = lookupChecked(a, re.start, vertexRule)
		e.End = lookupChecked(a, re.end, vertexRule)
		if a.err != nil {
			return
		}
		if err := p.AddEdge(e); err != nil {
			a.err = err
			return
		}
	}
	p.raw = nil
}

// lookupChecked resolves a mandatory pointer without registering a back
// reference; the caller's refTable does that.
func lookupChecked(a *associator, seq int, r childRule) *Entity {
	if a.err != nil {
		return nil
	}
	if seq == 0 {
		a.err = fmt.Errorf("%w: missing %s", ErrInvalidPointer, r.field)
		return nil
	}
	c, err := lookup(a.table, seq)
	if err == nil {
		err = r.check(a.owner, c)
	}
	if err != nil {
		a.err = fmt.Errorf("%s: %w", r.field, err)
		return nil
	}
	return c
}

func (p *EdgeList) children() []*Entity {
	var out []*Entity
	for _, e := range p.edges {
		out = append(out, e.Curve, e.Start, e.End)
	}
	return nonNil(out...)
}

// unlink releases every edge: loops address edges by index, so removing
// one would silently renumber the rest.
func (p *EdgeList) unlink(child *Entity) bool {
	if p.curves[child] == 0 && p.vertices[child] == 0 {
		return false
	}
	p.edges = nil
	p.curves.clear(p.self)
	p.vertices.clear(p.self)
	return true
}

func (p *EdgeList) Edges() []Edge { return slices.Clone(p.edges) }

// AddEdge appends e, validating its curve, vertex lists and indices.
func (p *EdgeList) AddEdge(e Edge) error {
	for _, v := range []struct {
		list *Entity
		idx  int
	}{{e.Start, e.StartIndex}, {e.End, e.EndIndex}} {
		if err := vertexRule.check(p.self, v.list); err != nil {
			return err
		}
		vl := v.list.data.(*VertexList)
		if v.idx < 1 || v.idx > len(vl.Vertices) {
			return fmt.Errorf("%w: vertex index %d outside 1..%d", ErrInvalidPointer, v.idx, len(vl.Vertices))
		}
	}
	if err := p.curves.add(p.self, e.Curve, curveRule); err != nil {
		return err
	}
	if err := p.vertices.add(p.self, e.Start, vertexRule); err != nil {
		p.curves.del(p.self, e.Curve, false)
		return err
	}
	if err := p.vertices.add(p.self, e.End, vertexRule); err != nil {
		p.vertices.del(p.self, e.Start, false)
		p.curves.del(p.self, e.Curve, false)
		return err
	}
	p.edges = append(p.edges, e)
	p.self.physicalChild(e.Curve)
	return nil
}

// PCurve is a parameter space curve attached to a loop edge.
type PCurve struct {
	Isoparametric bool
	Curve         *Entity
}

// LoopEdge is one entry of a Loop. Edge is an Edge List, or a Vertex List
// when Vertex is set; Index selects the entry (1-based).
type LoopEdge struct {
	Vertex  bool
	Edge    *Entity
	Index   int
	Forward bool
	PCurves []PCurve
}

type rawLoopEdge struct {
	vertex  bool
	edge    int
	index   int
	forward bool
	isop    []bool
	pcurves []int
}

// Loop is entity 508.
type Loop struct {
	node
	edges   []LoopEdge
	raw     []rawLoopEdge
	edgeRef refTable
	pcurves refTable
}

func newLoop() *Loop {
	return &Loop{edgeRef: refTable{}, pcurves: refTable{}}
}

func (p *Loop) readParams(r *paramReader) {
	n := r.count()
	for i := 0; i < n && r.err == nil; i++ {
		re := rawLoopEdge{vertex: r.int(0) == 1, edge: r.ptr(), index: r.int(0), forward: r.bool()}
		k := r.count()
		for j := 0; j < k && r.err == nil; j++ {
			re.isop = append(re.isop, r.bool())
			re.pcurves = append(re.pcurves, r.ptr())
		}
		p.raw = append(p.raw, re)
	}
}

func (p *Loop) writeParams(w *paramWriter) {
	w.int(len(p.edges))
	for _, e := range p.edges {
		w.bool(e.Vertex)
		w.ptr(e.Edge)
		w.int(e.Index)
		w.bool(e.Forward)
		w.int(len(e.PCurves))
		for _, pc := range e.PCurves {
			w.bool(pc.Isoparametric)
			w.ptr(pc.Curve)
		}
	}
}

func (p *Loop) associate(a *associator) {
	for _, re := range p.raw {
		le := LoopEdge{Vertex: re.vertex, Index: re.index, Forward: re.forward}
		le.Edge = lookupChecked(a, re.edge, edgeRule)
		for j, seq := range re.pcurves {
			le.PCurves = append(le.PCurves, PCurve{Isoparametric: re.isop[j], Curve: lookupChecked(a, seq, curveRule)})
		}
		if a.err != nil {
			return
		}
		if err := p.AddEdge(le); err != nil {
			a.err = err
			return
		}
	}
	p.raw = nil
}

func (p *Loop) children() []*Entity {
	var out []*Entity
	for _, e := range p.edges {
		out = append(out, e.Edge)
		for _, pc := range e.PCurves {
			out = append(out, pc.Curve)
		}
	}
	return nonNil(out...)
}

// unlink releases every edge; the loop would no longer be closed.
func (p *Loop) unlink(child *Entity) bool {
	if p.edgeRef[child] == 0 && p.pcurves[child] == 0 {
		return false
	}
	p.edges = nil
	p.edgeRef.clear(p.self)
	p.pcurves.clear(p.self)
	return true
}

func (p *Loop) Edges() []LoopEdge { return slices.Clone(p.edges) }

// AddEdge appends e after checking that it addresses an existing entry of
// its Edge or Vertex List.
func (p *Loop) AddEdge(e LoopEdge) error {
	want := vertexRule
	if !e.Vertex {
		want = rule("edge", TypeEdgeList)
	}
	if err := want.check(p.self, e.Edge); err != nil {
		return err
	}
	var n int
	switch d := e.Edge.data.(type) {
	case *EdgeList:
		n = len(d.edges)
	case *VertexList:
		n = len(d.Vertices)
	}
	if e.Index < 1 || e.Index > n {
		return fmt.Errorf("%w: loop index %d outside 1..%d", ErrInvalidPointer, e.Index, n)
	}
	if err := p.edgeRef.add(p.self, e.Edge, edgeRule); err != nil {
		return err
	}
	for i, pc := range e.PCurves {
		if err := p.pcurves.add(p.self, pc.Curve, curveRule); err != nil {
			for _, done := range e.PCurves[:i] {
				p.pcurves.del(p.self, done.Curve, false)
			}
			p.edgeRef.del(p.self, e.Edge, false)
			return err
		}
		pc.Curve.markParametric()
	}
	e.PCurves = slices.Clone(e.PCurves)
	p.edges = append(p.edges, e)
	return nil
}

// Face is entity 510. The first loop is the outer loop when OuterLoop is
// set.
type Face struct {
	node
	OuterLoop  bool
	surface    *Entity
	loops      []*Entity
	loopRef    refTable
	surfaceSeq int
	loopSeq    []int
}

func newFace() *Face { return &Face{loopRef: refTable{}} }

func (p *Face) readParams(r *paramReader) {
	p.surfaceSeq = r.ptr()
	n := r.count()
	p.OuterLoop = r.bool()
	for i := 0; i < n && r.err == nil; i++ {
		p.loopSeq = append(p.loopSeq, r.ptr())
	}
}

func (p *Face) writeParams(w *paramWriter) {
	w.ptr(p.surface)
	w.int(len(p.loops))
	w.bool(p.OuterLoop && len(p.loops) > 0)
	for _, l := range p.loops {
		w.ptr(l)
	}
}

func (p *Face) associate(a *associator) {
	p.surface = a.required(p.surfaceSeq, surfaceRule)
	for _, seq := range p.loopSeq {
		l := lookupChecked(a, seq, loopRule)
		if a.err != nil {
			return
		}
		if err := p.AddLoop(l); err != nil {
			a.err = err
			return
		}
	}
	p.surfaceSeq, p.loopSeq = 0, nil
}

func (p *Face) children() []*Entity { return nonNil(append([]*Entity{p.surface}, p.loops...)...) }

func (p *Face) missing() bool { return p.surface == nil && p.surfaceSeq == 0 }

func (p *Face) unlink(child *Entity) bool {
	found := false
	if p.surface == child {
		p.surface, found = nil, true
	}
	if i := slices.Index(p.loops, child); i >= 0 {
		if i == 0 {
			p.OuterLoop = false
		}
		p.loops = slices.DeleteFunc(p.loops, func(l *Entity) bool { return l == child })
		p.loopRef.del(p.self, child, true)
		found = true
	}
	return found
}

func (p *Face) Surface() *Entity { return p.surface }
func (p *Face) Loops() []*Entity { return slices.Clone(p.loops) }

func (p *Face) SetSurface(s *Entity) error {
	return p.setChild(&p.surface, s, surfaceRule)
}

func (p *Face) AddLoop(l *Entity) error {
	if err := p.loopRef.add(p.self, l, loopRule); err != nil {
		return err
	}
	p.loops = append(p.loops, l)
	return nil
}

// ShellFace is one face of a Shell; Forward is set when the face normal
// agrees with the shell's outward direction.
type ShellFace struct {
	Face    *Entity
	Forward bool
}

// Shell is entity 514. Form 1 is closed, form 2 open.
type Shell struct {
	node
	faces   []ShellFace
	faceRef refTable
	raw     []int
	rawDir  []bool
}

func newShell() *Shell { return &Shell{faceRef: refTable{}} }

func (p *Shell) readParams(r *paramReader) {
	n := r.count()
	for i := 0; i < n && r.err == nil; i++ {
		p.raw = append(p.raw, r.ptr())
		p.rawDir = append(p.rawDir, r.bool())
	}
}

func (p *Shell) writeParams(w *paramWriter) {
	w.int(len(p.faces))
	for _, f := range p.faces {
		w.ptr(f.Face)
		w.bool(f.Forward)
	}
}

func (p *Shell) associate(a *associator) {
	for i, seq := range p.raw {
		f := lookupChecked(a, seq, faceRule)
		if a.err != nil {
			return
		}
		if err := p.AddFace(f, p.rawDir[i]); err != nil {
			a.err = err
			return
		}
	}
	p.raw, p.rawDir = nil, nil
}

func (p *Shell) children() []*Entity {
	out := make([]*Entity, 0, len(p.faces))
	for _, f := range p.faces {
		out = append(out, f.Face)
	}
	return nonNil(out...)
}

func (p *Shell) unlink(child *Entity) bool {
	if p.faceRef[child] == 0 {
		return false
	}
	p.faces = slices.DeleteFunc(p.faces, func(f ShellFace) bool { return f.Face == child })
	p.faceRef.del(p.self, child, true)
	return true
}

func (p *Shell) Faces() []ShellFace { return slices.Clone(p.faces) }

func (p *Shell) AddFace(f *Entity, forward bool) error {
	if err := p.faceRef.add(p.self, f, faceRule); err != nil {
		return err
	}
	p.faces = append(p.faces, ShellFace{Face: f, Forward: forward})
	return nil
}
