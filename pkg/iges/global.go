package iges

import (
	"fmt"
	"strings"
	"time"
)

// Units is the model units flag of the global section.
type Units int

const (
	UnitsInch       Units = 1
	UnitsMillimeter Units = 2
	UnitsNamed      Units = 3
	UnitsFoot       Units = 4
	UnitsMile       Units = 5
	UnitsMeter      Units = 6
	UnitsKilometer  Units = 7
	UnitsMil        Units = 8
	UnitsMicron     Units = 9
	UnitsCentimeter Units = 10
	UnitsMicroinch  Units = 11
)

var unitNames = map[Units]string{
	UnitsInch:       "INCH",
	UnitsMillimeter: "MM",
	UnitsFoot:       "FT",
	UnitsMile:       "MI",
	UnitsMeter:      "M",
	UnitsKilometer:  "KM",
	UnitsMil:        "MIL",
	UnitsMicron:     "UM",
	UnitsCentimeter: "CM",
	UnitsMicroinch:  "UIN",
}

func (u Units) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("units(%d)", int(u))
}

// ParseUnits maps a unit name such as "MM" or "IN" to its flag.
func ParseUnits(name string) (Units, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "IN" {
		return UnitsInch, nil
	}
	for u, s := range unitNames {
		if s == n {
			return u, nil
		}
	}
	return 0, fmt.Errorf("iges: unknown units %q", name)
}

// Versions of the specification recorded in global parameter 23.
const (
	Version53 = 11
	Version60 = 12
)

// Global holds the 26 parameters of the global section.
type Global struct {
	ParamDelim      byte
	RecordDelim     byte
	SenderID        string
	FileName        string
	NativeSystem    string
	Preprocessor    string
	IntegerBits     int
	SingleMagnitude int
	SinglePrecision int
	DoubleMagnitude int
	DoublePrecision int
	ReceiverID      string
	ModelScale      float64
	Units           Units
	UnitsName       string
	LineWeights     int
	MaxLineWeight   float64
	FileDate        string
	MinResolution   float64
	MaxCoordinate   float64
	Author          string
	Organization    string
	Version         int
	DraftStandard   int
	ModelDate       string
	Protocol        string
}

// DefaultGlobal returns the global section used for new models.
func DefaultGlobal() Global {
	return Global{
		ParamDelim:      ',',
		RecordDelim:     ';',
		NativeSystem:    "OpenTraceIGES",
		Preprocessor:    "OpenTraceIGES",
		IntegerBits:     32,
		SingleMagnitude: 38,
		SinglePrecision: 6,
		DoubleMagnitude: 308,
		DoublePrecision: 15,
		ModelScale:      1,
		Units:           UnitsMillimeter,
		UnitsName:       "MM",
		LineWeights:     1,
		MaxLineWeight:   0.01,
		MinResolution:   1e-6,
		Version:         Version53,
	}
}

const iges8601 = "20060102.150405"

// params renders the global section parameters, delimiters first.
func (g *Global) params(now time.Time) *paramWriter {
	w := &paramWriter{}
	w.str(string(g.ParamDelim))
	w.str(string(g.RecordDelim))
	w.str(g.SenderID)
	w.str(g.FileName)
	w.str(g.NativeSystem)
	w.str(g.Preprocessor)
	w.int(g.IntegerBits)
	w.int(g.SingleMagnitude)
	w.int(g.SinglePrecision)
	w.int(g.DoubleMagnitude)
	w.int(g.DoublePrecision)
	w.str(g.ReceiverID)
	w.real(g.ModelScale)
	w.int(int(g.Units))
	w.str(g.UnitsName)
	w.int(g.LineWeights)
	w.real(g.MaxLineWeight)
	fileDate := g.FileDate
	if fileDate == "" {
		fileDate = now.UTC().Format(iges8601)
	}
	w.str(fileDate)
	w.real(g.MinResolution)
	w.real(g.MaxCoordinate)
	w.str(g.Author)
	w.str(g.Organization)
	w.int(g.Version)
	w.int(g.DraftStandard)
	w.str(g.ModelDate)
	w.str(g.Protocol)
	return w
}

// readGlobal fills g from parsed global parameters. Missing trailing
// parameters keep their defaults.
func readGlobal(params []Param) (Global, error) {
	g := DefaultGlobal()
	r := &paramReader{params: params}
	opt := func(read func()) {
		if r.more() {
			read()
		}
	}
	// Delimiters were consumed by the lexer setup but are still present.
	opt(func() { r.str() })
	opt(func() { r.str() })
	opt(func() { g.SenderID = r.str() })
	opt(func() { g.FileName = r.str() })
	opt(func() { g.NativeSystem = r.str() })
	opt(func() { g.Preprocessor = r.str() })
	opt(func() { g.IntegerBits = r.int(g.IntegerBits) })
	opt(func() { g.SingleMagnitude = r.int(g.SingleMagnitude) })
	opt(func() { g.SinglePrecision = r.int(g.SinglePrecision) })
	opt(func() { g.DoubleMagnitude = r.int(g.DoubleMagnitude) })
	opt(func() { g.DoublePrecision = r.int(g.DoublePrecision) })
	opt(func() { g.ReceiverID = r.str() })
	opt(func() { g.ModelScale = r.real(g.ModelScale) })
	opt(func() { g.Units = Units(r.int(int(g.Units))) })
	opt(func() { g.UnitsName = r.str() })
	opt(func() { g.LineWeights = r.int(g.LineWeights) })
	opt(func() { g.MaxLineWeight = r.real(g.MaxLineWeight) })
	opt(func() { g.FileDate = r.str() })
	opt(func() { g.MinResolution = r.real(g.MinResolution) })
	opt(func() { g.MaxCoordinate = r.real(g.MaxCoordinate) })
	opt(func() { g.Author = r.str() })
	opt(func() { g.Organization = r.str() })
	opt(func() { g.Version = r.int(g.Version) })
	opt(func() { g.DraftStandard = r.int(g.DraftStandard) })
	opt(func() { g.ModelDate = r.str() })
	opt(func() { g.Protocol = r.str() })
	if r.err != nil {
		return g, fmt.Errorf("global section: %w", r.err)
	}
	if g.Units == UnitsNamed {
		if u, err := ParseUnits(g.UnitsName); err == nil {
			g.Units = u
		}
	}
	if g.MinResolution <= 0 {
		g.MinResolution = DefaultGlobal().MinResolution
	}
	return g, nil
}
