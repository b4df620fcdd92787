package iges

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEntity(t *testing.T, m *Model, typ EntityType) *Entity {
	t.Helper()
	e, err := m.NewEntity(typ)
	require.NoError(t, err)
	return e
}

func TestAddReference(t *testing.T) {
	m := New()
	line := mustEntity(t, m, TypeLine)
	cc := mustEntity(t, m, TypeCompositeCurve)

	dup, err := line.AddReference(cc)
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = line.AddReference(cc)
	require.NoError(t, err)
	assert.True(t, dup, "second registration is reported as duplicate")
	assert.Len(t, line.Refs(), 1)

	_, err = line.AddReference(line)
	assert.ErrorIs(t, err, ErrCycle)

	_, err = line.AddReference(nil)
	assert.ErrorIs(t, err, ErrInvalidPointer)

	other := mustEntity(t, m, TypeCompositeCurve)
	_, err = cc.AddReference(other)
	assert.ErrorIs(t, err, ErrCycle, "composite curves may not nest")
}

func TestAddReferenceRejectsCycle(t *testing.T) {
	m := New()
	sub := mustEntity(t, m, TypeSubfigureDefinition)
	sd, _ := As[*SubfigureDefinition](sub)
	sd.Depth = 1
	line := mustEntity(t, m, TypeLine)
	require.NoError(t, sd.AddMember(line))

	// line may not become a parent of its own ancestor
	_, err := sub.AddReference(line)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Empty(t, sub.Refs())
}

func TestReferenceSymmetry(t *testing.T) {
	m := New()
	a := mustEntity(t, m, TypeCircularArc)
	l := mustEntity(t, m, TypeLine)
	cc := mustEntity(t, m, TypeCompositeCurve)
	comp, ok := As[*CompositeCurve](cc)
	require.True(t, ok)

	require.NoError(t, comp.AddCurve(a))
	require.NoError(t, comp.AddCurve(l))
	assertSymmetric(t, m)
	assert.Equal(t, []*Entity{cc}, a.Refs())
	assert.Equal(t, []*Entity{a, l}, cc.Children())
}

func TestCompositeRejectsConsecutivePoints(t *testing.T) {
	m := New()
	cc := mustEntity(t, m, TypeCompositeCurve)
	comp, _ := As[*CompositeCurve](cc)
	p1 := mustEntity(t, m, TypePoint)
	p2 := mustEntity(t, m, TypePoint)
	require.NoError(t, comp.AddCurve(p1))
	assert.ErrorIs(t, comp.AddCurve(p2), ErrInvalidPointer)
	assert.Empty(t, p2.Refs())
}

func TestCompositeRejectsIllegalMember(t *testing.T) {
	m := New()
	cc := mustEntity(t, m, TypeCompositeCurve)
	comp, _ := As[*CompositeCurve](cc)
	surf := mustEntity(t, m, TypeNURBSSurface)
	err := comp.AddCurve(surf)
	require.ErrorIs(t, err, ErrInvalidPointer)
	assert.Empty(t, surf.Refs())
}

func TestIsOrphaned(t *testing.T) {
	m := New()
	line := mustEntity(t, m, TypeLine)
	assert.False(t, line.IsOrphaned(), "independent entities are never orphans")

	require.NoError(t, line.SetDependency(PhysicallyDependent))
	assert.True(t, line.IsOrphaned())

	cc := mustEntity(t, m, TypeCompositeCurve)
	comp, _ := As[*CompositeCurve](cc)
	require.NoError(t, comp.AddCurve(line))
	assert.False(t, line.IsOrphaned())

	ts := mustEntity(t, m, TypeTrimmedSurface)
	shell := mustEntity(t, m, TypeSubfigureDefinition)
	sd, _ := As[*SubfigureDefinition](shell)
	require.NoError(t, sd.AddMember(ts))
	assert.NotEmpty(t, ts.Refs())
	assert.True(t, ts.IsOrphaned(), "a trimmed surface without a surface is always an orphan")
}

func TestUnlinkComposite(t *testing.T) {
	tests := []struct {
		name     string
		unlink   int
		wantLeft []int
	}{
		{"first", 0, []int{1, 2}},
		{"last", 2, []int{0, 1}},
		{"interior releases all", 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			cc := mustEntity(t, m, TypeCompositeCurve)
			comp, _ := As[*CompositeCurve](cc)
			var lines []*Entity
			for i := 0; i < 3; i++ {
				l := mustEntity(t, m, TypeLine)
				require.NoError(t, comp.AddCurve(l))
				lines = append(lines, l)
			}

			assert.True(t, cc.Unlink(lines[tt.unlink]))

			var want []*Entity
			for _, i := range tt.wantLeft {
				want = append(want, lines[i])
			}
			assert.Equal(t, want, comp.Curves())
			for _, l := range lines {
				assert.Equal(t, slices.Contains(want, l), slices.Contains(l.Refs(), cc))
			}
			assert.False(t, cc.Unlink(lines[tt.unlink]))
		})
	}
}

func TestSetFormUsesTypeTable(t *testing.T) {
	m := New()
	color := mustEntity(t, m, TypeColorDefinition)
	err := color.SetForm(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidForm))
	assert.Contains(t, err.Error(), "Color Definition Entity supports only Form 0")

	shell := mustEntity(t, m, TypeShell)
	assert.Equal(t, 1, shell.Form())
	require.NoError(t, shell.SetForm(2))
	assert.Error(t, shell.SetForm(3))
}

func TestStatusSetters(t *testing.T) {
	e := NewEntity(TypeLine)
	assert.Error(t, e.SetDependency(4))
	assert.Error(t, e.SetUse(7))
	assert.Error(t, e.SetHierarchy(3))
	require.NoError(t, e.SetUse(UseParametric2D))
	e.SetBlanked(true)
	assert.Equal(t, "01000500", e.Status().String())
	assert.Error(t, e.SetLabel("TOOLONGLABEL"))
	assert.Error(t, e.SetColorNumber(9))
}

func TestDirectoryPointers(t *testing.T) {
	m := New()
	line := mustEntity(t, m, TypeLine)
	arc := mustEntity(t, m, TypeCircularArc)
	tr := mustEntity(t, m, TypeTransformation)
	color := mustEntity(t, m, TypeColorDefinition)

	assert.ErrorIs(t, line.SetTransform(arc), ErrInvalidPointer)
	require.NoError(t, line.SetTransform(tr))
	require.NoError(t, arc.SetTransform(tr))
	require.NoError(t, line.SetColor(color))
	assert.ElementsMatch(t, []*Entity{line, arc}, tr.Refs())

	require.NoError(t, line.SetColorNumber(3))
	assert.Nil(t, line.Color())
	assert.Empty(t, color.Refs())

	assert.True(t, arc.Unlink(tr))
	assert.Equal(t, []*Entity{line}, tr.Refs())
	assertSymmetric(t, m)
}

func TestTransformAppliesToEndpoints(t *testing.T) {
	m := New()
	line := mustEntity(t, m, TypeLine)
	l, _ := As[*Line](line)
	l.P1 = Point{X: 1}
	l.P2 = Point{X: 2}
	tr := mustEntity(t, m, TypeTransformation)
	tp, _ := As[*Transformation](tr)
	tp.T = Point{Y: 5}
	require.NoError(t, line.SetTransform(tr))

	s, e, ok := curveEnds(line)
	require.True(t, ok)
	assert.Equal(t, Point{X: 1, Y: 5}, s)
	assert.Equal(t, Point{X: 2, Y: 5}, e)
}

func TestBooleanTree(t *testing.T) {
	m := New()
	a := mustEntity(t, m, TypeBooleanTree)
	b := NewEntity(EntityType(150))
	c := NewEntity(EntityType(154))
	require.NoError(t, m.Add(b))
	require.NoError(t, m.Add(c))
	bt, _ := As[*BooleanTree](a)

	assert.Error(t, bt.SetItems([]BoolItem{{Operand: b}, {Op: BoolUnion}}))
	require.NoError(t, bt.SetItems([]BoolItem{{Operand: b}, {Operand: c}, {Op: BoolDifference}}))
	assert.ElementsMatch(t, []*Entity{b, c}, a.Children())

	assert.True(t, a.Unlink(b))
	assert.Empty(t, bt.Items())
	assert.Empty(t, c.Refs(), "removing one operand releases the whole tree")
}

func TestEdgeListReferenceCounts(t *testing.T) {
	m := New()
	vl := mustEntity(t, m, TypeVertexList)
	v, _ := As[*VertexList](vl)
	v.Vertices = []Point{{X: 0}, {X: 1}, {X: 1, Y: 1}}
	el := mustEntity(t, m, TypeEdgeList)
	edges, _ := As[*EdgeList](el)

	var lines []*Entity
	for i := 0; i < 3; i++ {
		l := mustEntity(t, m, TypeLine)
		lines = append(lines, l)
		require.NoError(t, edges.AddEdge(Edge{Curve: l, Start: vl, StartIndex: i + 1, End: vl, EndIndex: (i+1)%3 + 1}))
	}
	assert.Equal(t, 6, edges.vertices[vl])
	assert.Equal(t, []*Entity{el}, vl.Refs())

	err := edges.AddEdge(Edge{Curve: lines[0], Start: vl, StartIndex: 4, End: vl, EndIndex: 1})
	assert.ErrorIs(t, err, ErrInvalidPointer)

	assert.True(t, el.Unlink(lines[1]))
	assert.Empty(t, edges.Edges())
	assert.Empty(t, vl.Refs())
	for _, l := range lines {
		assert.Empty(t, l.Refs())
	}
}

func TestLoopFaceShell(t *testing.T) {
	m := New()
	vl := mustEntity(t, m, TypeVertexList)
	v, _ := As[*VertexList](vl)
	v.Vertices = []Point{{}, {X: 1}}
	el := mustEntity(t, m, TypeEdgeList)
	edges, _ := As[*EdgeList](el)
	line := mustEntity(t, m, TypeLine)
	require.NoError(t, edges.AddEdge(Edge{Curve: line, Start: vl, StartIndex: 1, End: vl, EndIndex: 2}))

	lp := mustEntity(t, m, TypeLoop)
	loop, _ := As[*Loop](lp)
	pc := mustEntity(t, m, TypeNURBSCurve)
	require.NoError(t, loop.AddEdge(LoopEdge{Edge: el, Index: 1, Forward: true, PCurves: []PCurve{{Curve: pc}}}))
	require.NoError(t, loop.AddEdge(LoopEdge{Edge: el, Index: 1, Forward: false}))
	assert.Equal(t, 2, loop.edgeRef[el])
	assert.Equal(t, UseParametric2D, pc.Status().Use)
	assert.Error(t, loop.AddEdge(LoopEdge{Edge: el, Index: 2}))

	surf := mustEntity(t, m, TypeNURBSSurface)
	fc := mustEntity(t, m, TypeFace)
	face, _ := As[*Face](fc)
	require.NoError(t, face.SetSurface(surf))
	require.NoError(t, face.AddLoop(lp))
	face.OuterLoop = true

	sh := mustEntity(t, m, TypeShell)
	shell, _ := As[*Shell](sh)
	require.NoError(t, shell.AddFace(fc, true))
	assertSymmetric(t, m)

	require.NoError(t, m.DelEntity(lp))
	assert.Empty(t, face.Loops())
	assert.False(t, face.OuterLoop)
	assert.Empty(t, el.Refs())
	assertSymmetric(t, m)
}

// assertSymmetric checks that every link is recorded on both ends and stays
// inside the model.
func assertSymmetric(t *testing.T, m *Model) {
	t.Helper()
	for _, e := range m.entities {
		for _, c := range e.Children() {
			assert.Same(t, m, c.Model(), "%s points outside the model", e)
			assert.Contains(t, c.refs, e, "%s -> %s has no back reference", e, c)
		}
		for _, p := range e.refs {
			assert.Same(t, m, p.Model(), "%s is referenced from outside the model", e)
			assert.Contains(t, p.Children(), e, "%s lists %s as parent without a link", e, p)
			assert.Equal(t, 1, countOf(e.refs, p), "%s lists %s twice", e, p)
		}
	}
}

func countOf(list []*Entity, e *Entity) int {
	n := 0
	for _, x := range list {
		if x == e {
			n++
		}
	}
	return n
}
