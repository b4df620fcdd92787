package iges

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParamKind classifies one parameter data field.
type ParamKind int

const (
	ParamDefault ParamKind = iota
	ParamInteger
	ParamReal
	ParamString
)

// Param is one parameter as it appeared in the file. Text holds the
// decoded string for ParamString and the literal otherwise.
type Param struct {
	Kind ParamKind
	Text string
}

func (p Param) String() string {
	switch p.Kind {
	case ParamString:
		return hollerith(p.Text)
	case ParamDefault:
		return ""
	}
	return p.Text
}

func hollerith(s string) string {
	return strconv.Itoa(len(s)) + "H" + s
}

// paramReader walks a parameter list. The first failure sticks and later
// calls return zero values.
type paramReader struct {
	params []Param
	pos    int
	err    error
}

func (r *paramReader) more() bool { return r.err == nil && r.pos < len(r.params) }

func (r *paramReader) next() (Param, bool) {
	if r.err != nil {
		return Param{}, false
	}
	if r.pos >= len(r.params) {
		r.err = fmt.Errorf("%w: parameter %d missing", ErrCorrupt, r.pos+1)
		return Param{}, false
	}
	p := r.params[r.pos]
	r.pos++
	return p, true
}

func (r *paramReader) fail(p Param, want string) {
	r.err = fmt.Errorf("%w: parameter %d: want %s, got %q", ErrCorrupt, r.pos, want, p.Text)
}

func (r *paramReader) int(def int) int {
	p, ok := r.next()
	if !ok {
		return def
	}
	switch p.Kind {
	case ParamDefault:
		return def
	case ParamInteger:
		v, err := strconv.Atoi(strings.TrimPrefix(p.Text, "+"))
		if err != nil {
			r.fail(p, "integer")
		}
		return v
	case ParamReal:
		// Some writers emit integers as "2." or "2.0".
		f, err := parseReal(p.Text)
		if err != nil || f != math.Trunc(f) {
			r.fail(p, "integer")
			return def
		}
		return int(f)
	}
	r.fail(p, "integer")
	return def
}

func (r *paramReader) real(def float64) float64 {
	p, ok := r.next()
	if !ok {
		return def
	}
	switch p.Kind {
	case ParamDefault:
		return def
	case ParamInteger, ParamReal:
		v, err := parseReal(p.Text)
		if err != nil {
			r.fail(p, "real")
		}
		return v
	}
	r.fail(p, "real")
	return def
}

func (r *paramReader) point(def Point) Point {
	return Point{X: r.real(def.X), Y: r.real(def.Y), Z: r.real(def.Z)}
}

func (r *paramReader) str() string {
	p, ok := r.next()
	if !ok || p.Kind == ParamDefault {
		return ""
	}
	if p.Kind != ParamString {
		r.fail(p, "string")
	}
	return p.Text
}

// ptr reads a DE pointer; the sign is preserved for fields that use it.
func (r *paramReader) ptr() int { return r.int(0) }

func (r *paramReader) bool() bool { return r.int(0) != 0 }

// count reads a list length and rejects negative or absurd values.
func (r *paramReader) count() int {
	n := r.int(0)
	if r.err == nil && (n < 0 || n > len(r.params)*4+4) {
		r.err = fmt.Errorf("%w: parameter %d: bad count %d", ErrCorrupt, r.pos, n)
		return 0
	}
	return n
}

func (r *paramReader) rest() []Param {
	if r.pos >= len(r.params) {
		return nil
	}
	out := r.params[r.pos:]
	r.pos = len(r.params)
	return out
}

func parseReal(s string) (float64, error) {
	s = strings.Map(func(c rune) rune {
		if c == 'D' || c == 'd' {
			return 'E'
		}
		return c
	}, s)
	return strconv.ParseFloat(s, 64)
}

// paramWriter collects formatted parameters for one entity.
type paramWriter struct {
	params []string
	seqOf  func(*Entity) int
}

func (w *paramWriter) int(v int) { w.params = append(w.params, strconv.Itoa(v)) }

func (w *paramWriter) real(v float64) { w.params = append(w.params, formatReal(v)) }

func (w *paramWriter) point(p Point) {
	w.real(p.X)
	w.real(p.Y)
	w.real(p.Z)
}

func (w *paramWriter) str(s string) {
	if s == "" {
		w.params = append(w.params, "")
		return
	}
	w.params = append(w.params, hollerith(s))
}

func (w *paramWriter) bool(b bool) {
	if b {
		w.int(1)
	} else {
		w.int(0)
	}
}

func (w *paramWriter) ptr(e *Entity) {
	if e == nil || w.seqOf == nil {
		w.int(0)
		return
	}
	w.int(w.seqOf(e))
}

func (w *paramWriter) raw(p Param) { w.params = append(w.params, p.String()) }

// formatReal writes v in exact shortest decimal form, falling back to a
// D exponent for magnitudes that would need very long digit strings.
func formatReal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	a := math.Abs(v)
	if v == 0 || (a >= 1e-9 && a < 1e15) {
		s := decimal.NewFromFloat(v).String()
		if !strings.Contains(s, ".") {
			s += "."
		}
		return s
	}
	s := strconv.FormatFloat(v, 'E', -1, 64)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += "."
	}
	return mant + "D" + exp
}

// reals reads n reals, refusing counts larger than what is left.
func (r *paramReader) reals(n int) []float64 {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.params)-r.pos {
		r.err = fmt.Errorf("%w: parameter %d: %d values requested, %d left", ErrCorrupt, r.pos, n, len(r.params)-r.pos)
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = r.real(0)
	}
	return out
}

func (r *paramReader) points(n int) []Point {
	v := r.reals(3 * n)
	if v == nil {
		return nil
	}
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{X: v[3*i], Y: v[3*i+1], Z: v[3*i+2]}
	}
	return out
}
