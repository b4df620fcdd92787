package mcad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rect builds a closed rectangle, counterclockwise unless cw is set.
func rect(t *testing.T, x0, y0, x1, y1 float64, cw bool) *Outline {
	t.Helper()
	pts := []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
	if cw {
		pts = []Point{{x0, y0}, {x0, y1}, {x1, y1}, {x1, y0}}
	}
	o := NewOutline(0)
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		require.NoError(t, o.AddSegment(mustLine(t, p.X, p.Y, q.X, q.Y)))
	}
	require.True(t, o.IsClosed())
	return o
}

func circle(t *testing.T, x, y, r float64) *Outline {
	t.Helper()
	o, err := CircleOutline(Point{x, y}, r, 0)
	require.NoError(t, err)
	return o
}

func inside(t *testing.T, o *Outline, x, y float64) bool {
	t.Helper()
	in, err := o.IsInside(Point{x, y})
	require.NoError(t, err)
	return in
}

func TestAddSegmentClosure(t *testing.T) {
	o := rect(t, 0, 0, 10, 10, false)
	assert.True(t, o.IsContiguous())
	assert.InDelta(t, 100, o.Winding(), eps)

	before := o.Segments()
	err := o.AddSegment(mustLine(t, 0, 0, 5, 5))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, before, o.Segments(), "closed outline must not change")
	assert.Len(t, o.Errors(), 1)
}

func TestAddSegmentRejects(t *testing.T) {
	o := NewOutline(0)
	require.NoError(t, o.AddSegment(mustLine(t, 0, 0, 10, 0)))

	assert.ErrorIs(t, o.AddSegment(mustLine(t, 11, 0, 11, 5)), ErrDisconnected)
	assert.ErrorIs(t, o.AddSegment(mustLine(t, 10, 0, 10, 1e-7)), ErrDegenerate)
	assert.ErrorIs(t, o.AddSegment(nil), ErrDegenerate)
	assert.ErrorIs(t, o.AddSegment(mustCircle(t, 0, 0, 1)), ErrDisconnected)
	assert.False(t, o.IsClosed())
	assert.Len(t, o.Segments(), 1)
	assert.Len(t, o.Errors(), 4)

	_, err := o.IsInside(Point{1, 1})
	assert.ErrorIs(t, err, ErrNotClosed)

	o.ClearErrors()
	assert.Empty(t, o.Errors())
}

func TestClockwiseChainIsReversed(t *testing.T) {
	o := rect(t, 0, 0, 4, 2, true)
	assert.InDelta(t, 8, o.Winding(), eps)
	assert.True(t, o.IsContiguous())
	assert.True(t, inside(t, o, 1, 1))
}

func TestMixedChain(t *testing.T) {
	// a slot: two lines joined by half circles
	o := NewOutline(0)
	require.NoError(t, o.AddSegment(mustLine(t, 0, 0, 10, 0)))
	require.NoError(t, o.AddSegment(mustArc(t, Point{10, 1}, Point{10, 0}, Point{10, 2}, false)))
	require.NoError(t, o.AddSegment(mustLine(t, 10, 2, 0, 2)))
	require.NoError(t, o.AddSegment(mustArc(t, Point{0, 1}, Point{0, 2}, Point{0, 0}, false)))
	require.True(t, o.IsClosed())
	assert.InDelta(t, 20+math.Pi, o.Winding(), 1e-9)

	b := o.Bounds()
	assert.InDelta(t, -1, b.Min.X, eps)
	assert.InDelta(t, 11, b.Max.X, eps)

	assert.True(t, inside(t, o, 10.9, 1))
	assert.True(t, inside(t, o, -0.9, 1))
	assert.False(t, inside(t, o, 10.9, 0.1))
	assert.False(t, inside(t, o, 5, 2.5))
}

func TestIsInsideMajorArc(t *testing.T) {
	// three quarters of the unit disc closed by a chord
	o := NewOutline(0)
	require.NoError(t, o.AddSegment(mustArc(t, Point{}, Point{0, -1}, Point{-1, 0}, false)))
	require.NoError(t, o.AddSegment(mustLine(t, -1, 0, 0, -1)))
	require.True(t, o.IsClosed())

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{0.5, 0.5}, true},
		{Point{0, 0}, true},
		{Point{-0.3, -0.3}, true},
		{Point{-0.6, -0.6}, false},
		{Point{1.2, 0}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inside(t, o, tt.p.X, tt.p.Y), "%v", tt.p)
	}

	_, err := o.IsInside(Point{1, 0})
	assert.ErrorIs(t, err, ErrOnBoundary)
}

func TestDisjointCircles(t *testing.T) {
	a := circle(t, 0, 0, 5)
	b := circle(t, 20, 0, 2)

	err := a.AddOutline(b)
	assert.ErrorIs(t, err, ErrDisjoint)
	assert.NotEmpty(t, a.Errors())
	assert.True(t, b.IsValid(), "a failed union leaves the operand alone")

	require.NoError(t, a.AddCutout(b, false))
	assert.Len(t, a.Cutouts(), 1)
	assert.False(t, b.IsValid())
	assert.False(t, inside(t, a, 20, 0))
	assert.True(t, inside(t, a, 0, 0))
}

func TestLensUnion(t *testing.T) {
	a := circle(t, 0, 0, 2)
	b := circle(t, 2, 0, 2)

	require.NoError(t, a.AddOutline(b))
	assert.True(t, a.IsClosed())
	assert.True(t, a.IsContiguous())
	assert.Greater(t, a.Winding(), 0.0)
	assert.Len(t, a.Segments(), 2)
	assert.False(t, b.IsValid())

	// two discs of area 4π overlapping in a lens of area 8π/3 - 2√3
	lens := 8*math.Pi/3 - 2*math.Sqrt(3)
	assert.InDelta(t, 8*math.Pi-lens, a.Winding(), 1e-9)

	for _, p := range []Point{{-1.5, 0}, {1, 0}, {3.5, 0}} {
		assert.True(t, inside(t, a, p.X, p.Y), "%v", p)
	}
	assert.False(t, inside(t, a, 1, 2))
}

func TestRectUnion(t *testing.T) {
	a := rect(t, 0, 0, 10, 10, false)
	require.NoError(t, a.AddOutline(rect(t, 5, 2, 15, 8, false)))
	assert.True(t, a.IsContiguous())
	assert.InDelta(t, 130, a.Winding(), 1e-9)
	assert.Len(t, a.Segments(), 8)
	assert.True(t, inside(t, a, 14, 5))
	assert.False(t, inside(t, a, 14, 9))
}

func TestUnionContainment(t *testing.T) {
	big := rect(t, 0, 0, 10, 10, false)
	err := big.AddOutline(circle(t, 5, 5, 1))
	assert.ErrorIs(t, err, ErrContained)

	small := circle(t, 5, 5, 1)
	require.NoError(t, small.AddOutline(big))
	assert.InDelta(t, 100, small.Winding(), eps)
	assert.Len(t, small.Segments(), 4)
}

func crossBar(t *testing.T) (*Outline, *Outline) {
	return rect(t, 0, 0, 10, 10, false), rect(t, -2, 4, 12, 6, false)
}

func TestFourCrossingsRejected(t *testing.T) {
	for _, op := range []string{"add", "sub"} {
		t.Run(op, func(t *testing.T) {
			square, bar := crossBar(t)
			before := square.Segments()
			area := square.Winding()

			var err error
			if op == "add" {
				err = square.AddOutline(bar)
			} else {
				err = square.SubOutline(bar)
			}
			assert.ErrorIs(t, err, ErrIntersections)
			assert.Len(t, square.Errors(), 1)
			assert.Equal(t, before, square.Segments())
			assert.Equal(t, area, square.Winding())
			assert.True(t, bar.IsValid())
		})
	}
}

func TestSubOutlineNotch(t *testing.T) {
	o := rect(t, 0, 0, 10, 10, false)
	require.NoError(t, o.SubCircle(mustCircle(t, 10, 5, 2)))
	assert.True(t, o.IsClosed())
	assert.True(t, o.IsContiguous())
	assert.InDelta(t, 100-2*math.Pi, o.Winding(), 1e-9)
	assert.False(t, inside(t, o, 9.5, 5))
	assert.True(t, inside(t, o, 7, 5))
	assert.Empty(t, o.Cutouts())
}

func TestSubOutlineCases(t *testing.T) {
	t.Run("contained becomes cutout", func(t *testing.T) {
		o := rect(t, 0, 0, 10, 10, false)
		c := circle(t, 5, 5, 1)
		require.NoError(t, o.SubOutline(c))
		assert.Len(t, o.Cutouts(), 1)
		assert.Len(t, o.Segments(), 4)
		assert.False(t, c.IsValid())
		assert.False(t, inside(t, o, 5, 5))
		assert.True(t, inside(t, o, 1, 1))
	})
	t.Run("disjoint is a no-op", func(t *testing.T) {
		o := rect(t, 0, 0, 10, 10, false)
		c := circle(t, 50, 5, 1)
		require.NoError(t, o.SubOutline(c))
		assert.Empty(t, o.Cutouts())
		assert.InDelta(t, 100, o.Winding(), eps)
		assert.True(t, c.IsValid())
	})
	t.Run("enclosing is an error", func(t *testing.T) {
		o := circle(t, 5, 5, 1)
		err := o.SubOutline(rect(t, 0, 0, 10, 10, false))
		assert.ErrorIs(t, err, ErrContained)
		assert.Len(t, o.Segments(), 1)
	})
	t.Run("contained cutout must not overlap", func(t *testing.T) {
		o := rect(t, 0, 0, 10, 10, false)
		require.NoError(t, o.SubOutline(circle(t, 5, 5, 1)))
		err := o.SubOutline(circle(t, 5.5, 5, 1))
		assert.ErrorIs(t, err, ErrOverlap)
		assert.Len(t, o.Cutouts(), 1)
	})
}

func TestSpliceRollsBackOnHoleConflict(t *testing.T) {
	o := rect(t, 0, 0, 10, 10, false)
	require.NoError(t, o.AddCutout(circle(t, 8, 5, 1), true))
	before := o.Segments()

	err := o.SubCircle(mustCircle(t, 10, 5, 2.5))
	assert.ErrorIs(t, err, ErrOverlap)
	assert.Equal(t, before, o.Segments())
	assert.Len(t, o.Cutouts(), 1)
}

func TestOverlappingCutouts(t *testing.T) {
	o := rect(t, 0, 0, 20, 20, false)
	require.NoError(t, o.AddCutout(circle(t, 5, 5, 2), true))

	err := o.AddCutout(circle(t, 7, 5, 2), true)
	assert.ErrorIs(t, err, ErrOverlap)
	assert.Len(t, o.Cutouts(), 1)

	nested := circle(t, 5, 5, 1)
	assert.ErrorIs(t, o.AddCutout(nested, true), ErrOverlap)
	assert.True(t, nested.IsValid())

	require.NoError(t, o.AddCutout(circle(t, 15, 15, 2), true))
	assert.Len(t, o.Cutouts(), 2)

	// a cutout may not cross the boundary
	assert.ErrorIs(t, o.AddCutout(circle(t, 20, 10, 1), false), ErrOverlap)
	assert.Len(t, o.Errors(), 3)
}

func TestDrillHoles(t *testing.T) {
	o := rect(t, 0, 0, 20, 20, false)
	require.NoError(t, o.AddCutout(rect(t, 10, 10, 15, 15, false), true))

	require.NoError(t, o.AddDrillHole(mustCircle(t, 3, 3, 0.5), true))
	require.NoError(t, o.AddDrillHole(mustCircle(t, 6, 3, 0.5).Reverse(), true))
	assert.False(t, o.DrillHoles()[1].IsCW(), "holes are stored counterclockwise")

	assert.ErrorIs(t, o.AddDrillHole(mustCircle(t, 3.5, 3, 0.5), true), ErrOverlap)
	assert.ErrorIs(t, o.AddDrillHole(mustCircle(t, 12, 12, 0.5), true), ErrOverlap)
	assert.ErrorIs(t, o.AddDrillHole(mustLine(t, 1, 1, 2, 2), true), ErrDegenerate)
	require.NoError(t, o.AddDrillHole(mustCircle(t, 3.5, 3, 0.5), false))
	assert.Len(t, o.DrillHoles(), 3)

	assert.False(t, inside(t, o, 3, 3))
	assert.True(t, inside(t, o, 3, 5))
	_, err := o.IsInside(Point{3.5, 3})
	assert.ErrorIs(t, err, ErrOnBoundary)
}

func TestUnionTakesOperandHoles(t *testing.T) {
	a := rect(t, 0, 0, 10, 10, false)
	b := rect(t, 5, 0, 20, 10, false)
	require.NoError(t, b.AddDrillHole(mustCircle(t, 15, 5, 1), true))

	// b shares the bottom and top edges with a
	err := a.AddOutline(b)
	assert.ErrorIs(t, err, ErrOverlap)

	b2 := rect(t, 5, 2, 20, 8, false)
	require.NoError(t, b2.AddDrillHole(mustCircle(t, 15, 5, 1), true))
	require.NoError(t, a.AddOutline(b2))
	assert.Len(t, a.DrillHoles(), 1)
	assert.False(t, inside(t, a, 15, 5))
}

func TestUnionKeepsReceiverHolesClear(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		err  error
	}{
		{"covered", 8, 5, ErrOverlap},
		{"straddling", 6, 5, ErrOverlap},
		{"clear", 2, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := rect(t, 0, 0, 10, 10, false)
			require.NoError(t, a.AddCutout(circle(t, tt.x, tt.y, 1), true))
			before := a.Segments()
			b := rect(t, 6, 2, 20, 8, false)

			err := a.AddOutline(b)
			assert.Len(t, a.Cutouts(), 1)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Equal(t, before, a.Segments())
				assert.True(t, b.IsValid())
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, 160, a.Winding(), 1e-9)
			assert.False(t, inside(t, a, tt.x, tt.y))
			assert.True(t, inside(t, a, 15, 5))
		})
	}

	t.Run("drill hole under enclosing operand", func(t *testing.T) {
		a := rect(t, 0, 0, 10, 10, false)
		require.NoError(t, a.AddDrillHole(mustCircle(t, 5, 5, 1), true))
		err := a.AddOutline(rect(t, -5, -5, 15, 15, false))
		assert.ErrorIs(t, err, ErrOverlap)
		assert.InDelta(t, 100, a.Winding(), 1e-9)
		assert.Len(t, a.DrillHoles(), 1)
	})
}

func TestSubtractOperandHoles(t *testing.T) {
	t.Run("cutout inside the receiver", func(t *testing.T) {
		a := rect(t, 0, 0, 10, 10, false)
		b := rect(t, 6, 2, 20, 8, false)
		require.NoError(t, b.AddCutout(circle(t, 8, 5, 1), true))
		err := a.SubOutline(b)
		assert.ErrorIs(t, err, ErrOverlap)
		assert.InDelta(t, 100, a.Winding(), 1e-9)
		assert.Empty(t, a.Cutouts())
		assert.True(t, b.IsValid())
	})
	t.Run("hole in a contained operand", func(t *testing.T) {
		a := rect(t, 0, 0, 10, 10, false)
		c := circle(t, 5, 5, 2)
		require.NoError(t, c.AddDrillHole(mustCircle(t, 5, 5, 0.5), true))
		assert.ErrorIs(t, a.SubOutline(c), ErrOverlap)
		assert.Empty(t, a.Cutouts())
	})
	t.Run("hole outside the receiver is dropped", func(t *testing.T) {
		a := rect(t, 0, 0, 10, 10, false)
		b := rect(t, 6, 2, 20, 8, false)
		require.NoError(t, b.AddDrillHole(mustCircle(t, 15, 5, 1), true))
		require.NoError(t, a.SubOutline(b))
		assert.InDelta(t, 76, a.Winding(), 1e-9)
		assert.Empty(t, a.DrillHoles())
		assert.False(t, b.IsValid())
	})
}

func TestInvalidOperands(t *testing.T) {
	o := rect(t, 0, 0, 10, 10, false)
	assert.ErrorIs(t, o.AddOutline(o), ErrInvalid)
	assert.ErrorIs(t, o.AddOutline(nil), ErrInvalid)

	open := NewOutline(0)
	require.NoError(t, open.AddSegment(mustLine(t, 0, 0, 1, 0)))
	assert.ErrorIs(t, o.AddOutline(open), ErrNotClosed)

	used := circle(t, 5, 5, 1)
	require.NoError(t, o.AddCutout(used, true))
	assert.ErrorIs(t, o.AddCutout(used, true), ErrInvalid)
	assert.ErrorIs(t, used.AddSegment(mustLine(t, 0, 0, 1, 0)), ErrInvalid)
}
