package pcb

import (
	"math"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/kicad/sexp"
)

const testBoard = "../../../testdata/boards/bracket.kicad_pcb"

func mustList(t *testing.T, s string) *sexp.List {
	t.Helper()
	l, err := sexp.ParseList(s)
	if err != nil {
		t.Fatalf("Failed to parse s-expression: %v", err)
	}
	return l
}

func near(a, b Point) bool {
	return a.Dist(b) < 1e-6
}

// Test parseHeader function
func TestParseHeader(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantGen     string
		wantErr     bool
	}{
		{
			name:        "valid KiCad 6.0 with generator",
			input:       "(kicad_pcb (version 20211014) (generator pcbnew))",
			wantVersion: 20211014,
			wantGen:     "pcbnew",
		},
		{
			name:        "valid KiCad 6.0 with host",
			input:       "(kicad_pcb (version 20221018) (host pcbnew \"(6.0.10)\"))",
			wantVersion: 20221018,
			wantGen:     "pcbnew",
		},
		{
			name:        "quoted generator",
			input:       "(kicad_pcb (version 20240108) (generator \"pcbnew\") (generator_version \"8.0\"))",
			wantVersion: 20240108,
			wantGen:     "pcbnew",
		},
		{
			name:    "missing version",
			input:   "(kicad_pcb (generator pcbnew))",
			wantErr: true,
		},
		{
			name:    "old version (KiCad 5)",
			input:   "(kicad_pcb (version 20171130))",
			wantErr: true,
		},
		{
			name:        "no generator (should default to unknown)",
			input:       "(kicad_pcb (version 20211014))",
			wantVersion: 20211014,
			wantGen:     "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, gen, err := parseHeader(mustList(t, tt.input))

			if tt.wantErr {
				if err == nil {
					t.Errorf("parseHeader() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHeader() unexpected error: %v", err)
			}
			if version != tt.wantVersion {
				t.Errorf("parseHeader() version = %d, want %d", version, tt.wantVersion)
			}
			if gen != tt.wantGen {
				t.Errorf("parseHeader() generator = %q, want %q", gen, tt.wantGen)
			}
		})
	}
}

func TestParseGeneral(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantThickness float64
		wantErr       bool
	}{
		{"explicit thickness", "(general (thickness 0.8) (legacy_teardrops no))", 0.8, false},
		{"default thickness", "(general)", DefaultThickness, false},
		{"zero thickness", "(general (thickness 0))", 0, true},
		{"bad number", "(general (thickness thick))", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := parseGeneral(mustList(t, tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseGeneral() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseGeneral() unexpected error: %v", err)
			}
			if g.Thickness != tt.wantThickness {
				t.Errorf("Thickness = %v, want %v", g.Thickness, tt.wantThickness)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not a board", "(kicad_sch (version 20211123))"},
		{"unbalanced", "(kicad_pcb (version 20211014)"},
		{"bad line", "(kicad_pcb (version 20211014) (gr_line (start 0 0) (layer \"Edge.Cuts\")))"},
		{"collinear arc", "(kicad_pcb (version 20211014) (gr_arc (start 0 0) (mid 1 0) (end 2 0)))"},
		{"footprint without at", "(kicad_pcb (version 20211014) (footprint \"x\" (layer \"F.Cu\")))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Parse() expected error, got nil")
			}
		})
	}
}

func TestParseLayers(t *testing.T) {
	layers, err := parseLayers(mustList(t, `(layers (0 "F.Cu" signal) (44 "Edge.Cuts" user) (49 "F.Fab"))`))
	if err != nil {
		t.Fatalf("parseLayers() unexpected error: %v", err)
	}
	if len(layers) != 3 {
		t.Fatalf("layers count = %d, want 3", len(layers))
	}
	if layers[1].Number != 44 || layers[1].Name != EdgeLayer {
		t.Errorf("layers[1] = %+v", layers[1])
	}
	if layers[2].Type != "user" {
		t.Errorf("missing layer type = %q, want user", layers[2].Type)
	}

	if _, err := parseLayers(mustList(t, "(layers)")); err == nil {
		t.Errorf("parseLayers() accepted an empty table")
	}
}

func TestParseGraphics(t *testing.T) {
	root := mustList(t, `(kicad_pcb
		(gr_line (start 0 0) (end 10 0) (stroke (width 0.2) (type solid)) (layer "Edge.Cuts"))
		(gr_text "x" (at 1 1) (layer "F.SilkS"))
		(gr_arc (start 10 0) (mid 12 2) (end 10 4) (width 0.1) (layer "Edge.Cuts"))
		(gr_circle (center 5 5) (end 6 5) (layer "Edge.Cuts"))
		(gr_poly (pts (xy 0 10) (xy 4 10) (arc (start 4 10) (mid 5 11) (end 4 12)) (xy 0 12)) (layer "Edge.Cuts"))
		(fp_line (start 0 0) (end 1 1) (layer "Edge.Cuts")))`)

	graphics, err := parseGraphics(root, "gr_")
	if err != nil {
		t.Fatalf("parseGraphics() unexpected error: %v", err)
	}
	wantKinds := []Shape{ShapeLine, ShapeArc, ShapeCircle, ShapePoly}
	if len(graphics) != len(wantKinds) {
		t.Fatalf("graphics count = %d, want %d", len(graphics), len(wantKinds))
	}
	for i, k := range wantKinds {
		if graphics[i].Kind != k {
			t.Errorf("graphics[%d].Kind = %v, want %v", i, graphics[i].Kind, k)
		}
		if graphics[i].Layer != EdgeLayer {
			t.Errorf("graphics[%d].Layer = %q", i, graphics[i].Layer)
		}
	}
	if graphics[0].Width != 0.2 || graphics[1].Width != 0.1 {
		t.Errorf("stroke widths = %v, %v", graphics[0].Width, graphics[1].Width)
	}

	arc := graphics[1]
	if c, ok := arc.Center(); !ok || !near(c, Point{10, 2}) {
		t.Errorf("arc centre = %v, %v", c, ok)
	}
	if r := arc.Radius(); math.Abs(r-2) > 1e-9 {
		t.Errorf("arc radius = %v, want 2", r)
	}
	if r := graphics[2].Radius(); r != 1 {
		t.Errorf("circle radius = %v, want 1", r)
	}

	// line, arc, line, closing line
	path := graphics[3].Edges()
	if len(path) != 4 {
		t.Fatalf("poly edges = %d, want 4", len(path))
	}
	if path[1].Kind != ShapeArc || !near(path[0].End, path[1].Start) || !near(path[3].End, path[0].Start) {
		t.Errorf("poly path is not a closed chain: %+v", path)
	}
}

func TestRectEdges(t *testing.T) {
	g := Graphic{Kind: ShapeRect, Start: Point{0, 0}, End: Point{4, 2}}
	edges := g.Edges()
	if len(edges) != 4 {
		t.Fatalf("rect edges = %d, want 4", len(edges))
	}
	for i, e := range edges {
		next := edges[(i+1)%4]
		if !near(e.End, next.Start) {
			t.Errorf("edge %d does not meet edge %d", i, i+1)
		}
	}
}

func TestFootprintPlace(t *testing.T) {
	fp := Footprint{At: Point{10, 20}, Angle: 90}
	tests := []struct {
		local, want Point
	}{
		{Point{0, 0}, Point{10, 20}},
		// +90 turns +X toward screen up, which is -Y in board coordinates
		{Point{1, 0}, Point{10, 19}},
		{Point{0, 1}, Point{11, 20}},
	}
	for _, tt := range tests {
		if got := fp.Place(tt.local); !near(got, tt.want) {
			t.Errorf("Place(%v) = %v, want %v", tt.local, got, tt.want)
		}
	}
}

func TestParseFile(t *testing.T) {
	board, err := ParseFile(testBoard)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if board.Version != 20221018 || board.Generator != "pcbnew" {
		t.Errorf("header = %d %q", board.Version, board.Generator)
	}
	if board.General.Thickness != 1.2 {
		t.Errorf("Thickness = %v, want 1.2", board.General.Thickness)
	}
	if l, ok := board.Layer("edge.cuts"); !ok || l.Number != 44 {
		t.Errorf("Layer(edge.cuts) = %+v, %v", l, ok)
	}
	if len(board.Footprints) != 3 {
		t.Fatalf("Footprints count = %d, want 3", len(board.Footprints))
	}

	fp := board.Footprints[0]
	if fp.Library != "MountingHole" || fp.Reference != "H1" || fp.Value != "MountingHole" {
		t.Errorf("footprint 0 = %s:%s %s %s", fp.Library, fp.Name, fp.Reference, fp.Value)
	}
	if board.Footprints[1].Reference != "J1" || len(board.Footprints[1].Pads) != 4 {
		t.Errorf("footprint 1 = %s with %d pads", board.Footprints[1].Reference, len(board.Footprints[1].Pads))
	}
	if board.Footprints[2].Angle != 90 {
		t.Errorf("footprint 2 angle = %v, want 90", board.Footprints[2].Angle)
	}

	edges := board.EdgeCuts()
	if len(edges) != 8 {
		t.Fatalf("EdgeCuts count = %d, want 8", len(edges))
	}
	slot := edges[7]
	if slot.Kind != ShapePoly || len(slot.Path) != 4 {
		t.Fatalf("rotated slot = %v with %d edges", slot.Kind, len(slot.Path))
	}
	sb := slot.Bounds()
	if !near(sb.Min, Point{29, 20}) || !near(sb.Max, Point{31, 24}) {
		t.Errorf("slot bounds = %+v", sb)
	}

	eb := board.EdgeBounds()
	if !near(eb.Min, Point{0, 0}) || !near(eb.Max, Point{40, 30}) {
		t.Errorf("EdgeBounds = %+v", eb)
	}

	holes := board.Holes()
	if len(holes) != 4 {
		t.Fatalf("Holes count = %d, want 4", len(holes))
	}
	if h := holes[0]; h.Plated || h.Diameter != 3.2 || !near(h.Center, Point{30, 10}) || h.Ref != "H1" {
		t.Errorf("mounting hole = %+v", h)
	}
	if h := holes[2]; !near(h.Center, Point{7.54, 25}) || !h.Plated {
		t.Errorf("pin 2 hole = %+v", h)
	}
	if h := holes[3]; h.Diameter != 0.3 || h.Ref != "" {
		t.Errorf("via hole = %+v", h)
	}
}
