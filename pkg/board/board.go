// Package board builds the mechanical outline of a printed circuit board
// from a KiCad layout and emits it as an IGES solid.
package board

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/iges"
	"github.com/OpenTraceLab/OpenTraceIGES/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceIGES/pkg/mcad"
)

// DefaultMinDrill is the smallest drill diameter modelled by default.
const DefaultMinDrill = 0.1

var (
	ErrNoOutline = errors.New("no closed Edge.Cuts outline")
	ErrOpen      = errors.New("Edge.Cuts outline is not closed")
	ErrOutside   = errors.New("Edge.Cuts loop lies outside the board edge")
)

type Options struct {
	// MinResolution is the endpoint matching tolerance in mm. Zero uses
	// mcad.DefaultMinResolution.
	MinResolution float64
	// MinDrill drops drills with a smaller diameter. Zero uses
	// DefaultMinDrill; a negative value keeps every drill.
	MinDrill float64
	// Thickness overrides the board thickness from the file when positive.
	Thickness float64
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MinResolution <= 0 {
		o.MinResolution = mcad.DefaultMinResolution
	}
	if o.MinDrill == 0 {
		o.MinDrill = DefaultMinDrill
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Board is a board outline with its cutouts and drills, in an MCAD frame
// with Y pointing up.
type Board struct {
	Outline   *mcad.Outline
	Thickness float64
	Drills    int // drill holes placed
	Small     int // drills below MinDrill
	Rejected  int // drills that collided with other features
}

// FromKiCad chains the Edge.Cuts graphics of b into closed loops. The
// loop with the largest bounding box becomes the board edge and the rest
// become cutouts. Drills of at least opts.MinDrill become drill holes;
// a drill that crosses or overlaps another feature is logged and left out.
func FromKiCad(b *pcb.Board, opts Options) (*Board, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	var segs []*mcad.Segment
	for _, g := range b.EdgeCuts() {
		for _, e := range g.Edges() {
			s, err := segmentOf(e)
			if err != nil {
				return nil, err
			}
			segs = append(segs, s)
		}
	}
	loops, err := chain(segs, opts.MinResolution)
	if err != nil {
		return nil, err
	}

	outlines := make([]*mcad.Outline, 0, len(loops))
	edge := -1
	for i, loop := range loops {
		o := mcad.NewOutline(opts.MinResolution)
		o.SetLogger(log)
		for _, s := range loop {
			if err := o.AddSegment(s); err != nil {
				return nil, fmt.Errorf("edge loop %d: %w", i, err)
			}
		}
		if !o.IsClosed() {
			return nil, fmt.Errorf("edge loop %d: %w", i, ErrOpen)
		}
		outlines = append(outlines, o)
		if edge < 0 || o.Bounds().Area() > outlines[edge].Bounds().Area() {
			edge = i
		}
	}
	if edge < 0 {
		return nil, ErrNoOutline
	}

	out := &Board{Outline: outlines[edge], Thickness: b.General.Thickness}
	if opts.Thickness > 0 {
		out.Thickness = opts.Thickness
	}
	for i, o := range outlines {
		if i == edge {
			continue
		}
		in, err := out.Outline.IsInside(o.Segments()[0].Midpoint())
		if err != nil || !in {
			return nil, fmt.Errorf("edge loop %d: %w", i, ErrOutside)
		}
		if err := out.Outline.AddCutout(o, true); err != nil {
			return nil, fmt.Errorf("edge loop %d: %w", i, err)
		}
	}

	for _, h := range b.Holes() {
		if h.Diameter < opts.MinDrill {
			out.Small++
			continue
		}
		c, err := mcad.NewCircle(flip(h.Center), h.Diameter/2)
		if err == nil {
			err = out.Outline.AddDrillHole(c, true)
		}
		if err != nil {
			log.Warn("drill skipped",
				zap.String("ref", h.Ref),
				zap.Float64("x", h.Center.X),
				zap.Float64("y", h.Center.Y),
				zap.Float64("diameter", h.Diameter),
				zap.Error(err))
			out.Rejected++
			continue
		}
		out.Drills++
	}
	out.Outline.ClearErrors()

	log.Info("board outline built",
		zap.Int("loops", len(loops)),
		zap.Int("cutouts", len(out.Outline.Cutouts())),
		zap.Int("drills", out.Drills),
		zap.Int("small_drills", out.Small),
		zap.Int("rejected_drills", out.Rejected),
		zap.Float64("thickness", out.Thickness))
	return out, nil
}

// Emit writes the board as a solid from z=0 to z=Thickness.
func (b *Board) Emit(m *iges.Model) ([]*iges.Entity, error) {
	return b.Outline.GetSolid(m, b.Thickness, 0)
}

func flip(p pcb.Point) mcad.Point {
	return mcad.Point{X: p.X, Y: -p.Y}
}

// segmentOf converts a line, arc or circle. Y is flipped, which turns
// KiCad's clockwise-on-screen arcs into counterclockwise ones.
func segmentOf(g pcb.Graphic) (*mcad.Segment, error) {
	switch g.Kind {
	case pcb.ShapeLine:
		return mcad.NewLine(flip(g.Start), flip(g.End))
	case pcb.ShapeCircle:
		return mcad.NewCircle(flip(g.Start), g.Radius())
	case pcb.ShapeArc:
		c, ok := g.Center()
		if !ok {
			return nil, fmt.Errorf("%w: arc through %v %v %v", mcad.ErrDegenerate, g.Start, g.Mid, g.End)
		}
		s, m, e := flip(g.Start), flip(g.Mid), flip(g.End)
		cw := m.Sub(s).Cross(e.Sub(m)) < 0
		return mcad.NewArc(flip(c), s, e, cw)
	}
	return nil, fmt.Errorf("unsupported edge shape %v", g.Kind)
}

// chain links segments end to end into closed loops, reversing pieces
// as needed. Circles form loops on their own.
func chain(segs []*mcad.Segment, tol float64) ([][]*mcad.Segment, error) {
	used := make([]bool, len(segs))
	var loops [][]*mcad.Segment
	for i, s := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		loop := []*mcad.Segment{s}
		if s.Type() == mcad.SegCircle {
			loops = append(loops, loop)
			continue
		}
		start, end := s.Start(), s.End()
		for !end.Near(start, tol) {
			next := -1
			for j, t := range segs {
				if used[j] || t.Type() == mcad.SegCircle {
					continue
				}
				if t.Start().Near(end, tol) {
					next = j
					break
				}
				if t.End().Near(end, tol) {
					segs[j] = t.Reverse()
					next = j
					break
				}
			}
			if next < 0 {
				return nil, fmt.Errorf("%w: open end at (%.4f, %.4f)", ErrOpen, end.X, -end.Y)
			}
			used[next] = true
			loop = append(loop, segs[next])
			end = segs[next].End()
		}
		loops = append(loops, loop)
	}
	return loops, nil
}

// Area returns the area of one board face in mm².
func (b *Board) Area() float64 {
	a := math.Abs(b.Outline.Winding())
	for _, c := range b.Outline.Cutouts() {
		a -= math.Abs(c.Winding())
	}
	for _, h := range b.Outline.DrillHoles() {
		a -= math.Pi * h.Radius() * h.Radius()
	}
	return a
}
