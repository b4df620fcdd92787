package board

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/iges"
	"github.com/OpenTraceLab/OpenTraceIGES/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceIGES/pkg/mcad"
)

func loadBracket(t *testing.T) *pcb.Board {
	t.Helper()
	b, err := pcb.ParseFile("../../testdata/boards/bracket.kicad_pcb")
	require.NoError(t, err)
	return b
}

func line(x0, y0, x1, y1 float64) pcb.Graphic {
	return pcb.Graphic{Kind: pcb.ShapeLine, Layer: pcb.EdgeLayer, Start: pcb.Point{X: x0, Y: y0}, End: pcb.Point{X: x1, Y: y1}}
}

func TestFromKiCad(t *testing.T) {
	b, err := FromKiCad(loadBracket(t), Options{MinDrill: 0.5, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, 1.2, b.Thickness)
	assert.Len(t, b.Outline.Segments(), 5)
	assert.Len(t, b.Outline.Cutouts(), 3)
	assert.Equal(t, 3, b.Drills)
	assert.Equal(t, 1, b.Small, "the via is below the drill limit")
	assert.Zero(t, b.Rejected)
	assert.Positive(t, b.Outline.Winding())

	bb := b.Outline.Bounds()
	assert.InDelta(t, 0, bb.Min.X, 1e-9)
	assert.InDelta(t, -30, bb.Min.Y, 1e-9)
	assert.InDelta(t, 40, bb.Max.X, 1e-9)
	assert.InDelta(t, 0, bb.Max.Y, 1e-9)

	want := 1175 + 6.25*math.Pi - 9*math.Pi - 58 - 3.06*math.Pi
	assert.InDelta(t, want, b.Area(), 1e-6)

	in, err := b.Outline.IsInside(mcad.Point{X: 10, Y: -15})
	require.NoError(t, err)
	assert.False(t, in, "centre of the round cutout")
	in, err = b.Outline.IsInside(mcad.Point{X: 38, Y: -5})
	require.NoError(t, err)
	assert.True(t, in)
}

func TestEmit(t *testing.T) {
	b, err := FromKiCad(loadBracket(t), Options{MinDrill: 0.5, Thickness: 1.6})
	require.NoError(t, err)
	assert.Equal(t, 1.6, b.Thickness)

	m := iges.New()
	out, err := b.Emit(m)
	require.NoError(t, err)
	// walls: edge 5, round cutout 1, rect 4, slot 4, drills 3; then two faces
	assert.Len(t, out, 17+2)
	assert.Empty(t, m.Orphans())
	assert.Equal(t, 19, m.Stats()[iges.TypeTrimmedSurface])

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))
	assert.Contains(t, buf.String(), "S      1")
}

func TestRejectedDrill(t *testing.T) {
	pb := &pcb.Board{
		General: pcb.General{Thickness: 1},
		Graphics: []pcb.Graphic{
			line(0, 0, 10, 0), line(10, 0, 10, 10), line(10, 10, 0, 10), line(0, 10, 0, 0),
		},
		Vias: []pcb.Via{
			{At: pcb.Point{X: 5, Y: 5}, Drill: 1},
			{At: pcb.Point{X: 5.5, Y: 5}, Drill: 1},
			{At: pcb.Point{X: 0, Y: 5}, Drill: 1},
		},
	}
	b, err := FromKiCad(pb, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Drills)
	assert.Equal(t, 2, b.Rejected, "one overlaps, one crosses the edge")
	assert.Empty(t, b.Outline.Errors())
}

func TestChainReversesPieces(t *testing.T) {
	pb := &pcb.Board{Graphics: []pcb.Graphic{
		line(0, 0, 4, 0), line(4, 3, 4, 0), line(0, 3, 4, 3), line(0, 0, 0, 3),
	}}
	b, err := FromKiCad(pb, Options{})
	require.NoError(t, err)
	assert.Len(t, b.Outline.Segments(), 4)
	assert.InDelta(t, 12, b.Area(), 1e-9)
}

func TestFromKiCadErrors(t *testing.T) {
	square := []pcb.Graphic{line(0, 0, 10, 0), line(10, 0, 10, 10), line(10, 10, 0, 10), line(0, 10, 0, 0)}
	outside := pcb.Graphic{Kind: pcb.ShapeCircle, Layer: pcb.EdgeLayer, Start: pcb.Point{X: 20, Y: 5}, End: pcb.Point{X: 21, Y: 5}}
	silk := line(0, 0, 10, 10)
	silk.Layer = "F.SilkS"

	tests := []struct {
		name     string
		graphics []pcb.Graphic
		want     error
	}{
		{"no edges", []pcb.Graphic{silk}, ErrNoOutline},
		{"open outline", square[:3], ErrOpen},
		{"loop outside", append(square[:4:4], outside), ErrOutside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromKiCad(&pcb.Board{Graphics: tt.graphics}, Options{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSegmentOfArc(t *testing.T) {
	// clockwise on screen with Y down, counterclockwise once flipped
	g := pcb.Graphic{
		Kind:  pcb.ShapeArc,
		Start: pcb.Point{X: 1, Y: 0},
		Mid:   pcb.Point{X: 0, Y: -1},
		End:   pcb.Point{X: -1, Y: 0},
	}
	s, err := segmentOf(g)
	require.NoError(t, err)
	assert.False(t, s.IsCW())
	assert.InDelta(t, math.Pi, s.Sweep(), 1e-9)
	assert.InDelta(t, 1, s.Midpoint().Y, 1e-9)
}
