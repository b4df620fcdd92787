package pcb

import "strings"

// Board is the mechanical content of a KiCad PCB file.
type Board struct {
	Version    int
	Generator  string
	General    General
	Layers     []Layer
	Graphics   []Graphic
	Footprints []Footprint
	Vias       []Via
}

type General struct {
	Thickness float64 // mm
}

type Layer struct {
	Number int
	Name   string
	Type   string
}

// Footprint is a placed component. Graphics and pad positions are kept
// in footprint-local coordinates.
type Footprint struct {
	Library   string
	Name      string
	Layer     string
	At        Point
	Angle     float64 // degrees
	Reference string
	Value     string
	Pads      []Pad
	Graphics  []Graphic
}

// Pad is a footprint pad. Drill is zero for pads without a hole.
type Pad struct {
	Number    string
	Type      string // thru_hole, np_thru_hole, smd, connect
	Shape     string
	At        Point
	Width     float64
	Height    float64
	Drill     float64
	DrillOval bool
	Layers    []string
}

type Via struct {
	At     Point
	Size   float64
	Drill  float64
	Layers []string
}

// Hole is a round drill in board coordinates.
type Hole struct {
	Center   Point
	Diameter float64
	Plated   bool
	Ref      string // owning footprint reference, empty for vias
}

// Place maps a footprint-local point to board coordinates.
func (fp *Footprint) Place(p Point) Point {
	return p.rotate(fp.Angle).Add(fp.At)
}

// EdgeCuts returns every graphic on the Edge.Cuts layer, including the
// footprint ones, in board coordinates.
func (b *Board) EdgeCuts() []Graphic {
	var out []Graphic
	for _, g := range b.Graphics {
		if g.Layer == EdgeLayer {
			out = append(out, g)
		}
	}
	for i := range b.Footprints {
		fp := &b.Footprints[i]
		for _, g := range fp.Graphics {
			if g.Layer == EdgeLayer {
				out = append(out, g.transform(fp.At, fp.Angle))
			}
		}
	}
	return out
}

// Holes returns the round drills of all pads and vias. Oval slots are
// skipped.
func (b *Board) Holes() []Hole {
	var out []Hole
	for i := range b.Footprints {
		fp := &b.Footprints[i]
		for _, p := range fp.Pads {
			if p.Drill <= 0 || p.DrillOval {
				continue
			}
			out = append(out, Hole{
				Center:   fp.Place(p.At),
				Diameter: p.Drill,
				Plated:   p.Type != "np_thru_hole",
				Ref:      fp.Reference,
			})
		}
	}
	for _, v := range b.Vias {
		if v.Drill > 0 {
			out = append(out, Hole{Center: v.At, Diameter: v.Drill, Plated: true})
		}
	}
	return out
}

// Layer returns the layer definition with the given name.
func (b *Board) Layer(name string) (Layer, bool) {
	for _, l := range b.Layers {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return Layer{}, false
}
