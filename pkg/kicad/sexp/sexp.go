// Package sexp reads the s-expression dialect used by KiCad board files.
package sexp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Sexp is either an *Atom or a *List.
type Sexp interface {
	IsLeaf() bool
	String() string
}

// Atom is a bare symbol or a quoted string.
type Atom struct {
	Value  string
	Quoted bool
}

func (a *Atom) IsLeaf() bool { return true }

func (a *Atom) String() string {
	if a.Quoted {
		return strconv.Quote(a.Value)
	}
	return a.Value
}

// List is a parenthesized expression. By KiCad convention the first item
// is the symbol naming the node.
type List struct {
	Items []Sexp
	Line  int
}

func (l *List) IsLeaf() bool { return false }

func (l *List) String() string {
	parts := make([]string, len(l.Items))
	for i, it := range l.Items {
		parts[i] = it.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Name returns the leading symbol, or "" when the list does not start
// with a bare symbol.
func (l *List) Name() string {
	if len(l.Items) == 0 {
		return ""
	}
	if a, ok := l.Items[0].(*Atom); ok && !a.Quoted {
		return a.Value
	}
	return ""
}

// Find returns the first child list named key.
func (l *List) Find(key string) (*List, bool) {
	for _, it := range l.Items {
		if c, ok := it.(*List); ok && c.Name() == key {
			return c, true
		}
	}
	return nil, false
}

// FindAll returns every child list named key, in file order.
func (l *List) FindAll(key string) []*List {
	var out []*List
	for _, it := range l.Items {
		if c, ok := it.(*List); ok && c.Name() == key {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether a bare symbol equal to sym appears among the items.
func (l *List) Has(sym string) bool {
	for _, it := range l.Items[min(1, len(l.Items)):] {
		if a, ok := it.(*Atom); ok && !a.Quoted && a.Value == sym {
			return true
		}
	}
	return false
}

// Str returns the atom at index i, quoted or not.
func (l *List) Str(i int) (string, error) {
	if i < 0 || i >= len(l.Items) {
		return "", fmt.Errorf("line %d: (%s) has no item %d", l.Line, l.Name(), i)
	}
	a, ok := l.Items[i].(*Atom)
	if !ok {
		return "", fmt.Errorf("line %d: (%s) item %d is a list", l.Line, l.Name(), i)
	}
	return a.Value, nil
}

func (l *List) Float(i int) (float64, error) {
	s, err := l.Str(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: (%s): %w", l.Line, l.Name(), err)
	}
	return v, nil
}

func (l *List) Int(i int) (int, error) {
	s, err := l.Str(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("line %d: (%s): %w", l.Line, l.Name(), err)
	}
	return v, nil
}

// XY reads the two numbers following the name, as in (start 1.5 -2).
func (l *List) XY() (x, y float64, err error) {
	if x, err = l.Float(1); err != nil {
		return 0, 0, err
	}
	if y, err = l.Float(2); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// ChildXY looks up the child named key and reads its coordinates.
func (l *List) ChildXY(key string) (x, y float64, err error) {
	c, ok := l.Find(key)
	if !ok {
		return 0, 0, fmt.Errorf("line %d: (%s) missing (%s)", l.Line, l.Name(), key)
	}
	return c.XY()
}

// Parse reads every top-level expression from r.
func Parse(r io.Reader) ([]Sexp, error) {
	p := &parser{lex: newLexer(r)}
	var out []Sexp
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if tok.typ == tokEOF {
			return out, nil
		}
		e, err := p.expr(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}

// ParseList parses s and returns its single top-level list.
func ParseList(s string) (*List, error) {
	exprs, err := ParseString(s)
	if err != nil {
		return nil, err
	}
	if len(exprs) != 1 {
		return nil, fmt.Errorf("want one expression, got %d", len(exprs))
	}
	l, ok := exprs[0].(*List)
	if !ok {
		return nil, fmt.Errorf("want a list, got %s", exprs[0])
	}
	return l, nil
}

type parser struct {
	lex *lexer
}

func (p *parser) expr(tok token) (Sexp, error) {
	switch tok.typ {
	case tokOpen:
		return p.list(tok.line)
	case tokSymbol:
		return &Atom{Value: tok.val}, nil
	case tokString:
		return &Atom{Value: tok.val, Quoted: true}, nil
	case tokClose:
		return nil, fmt.Errorf("line %d: unexpected ')'", tok.line)
	default:
		return nil, fmt.Errorf("line %d: unexpected end of input", tok.line)
	}
}

func (p *parser) list(line int) (*List, error) {
	l := &List{Line: line}
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.typ {
		case tokClose:
			return l, nil
		case tokEOF:
			return nil, fmt.Errorf("line %d: list opened here is never closed", line)
		}
		e, err := p.expr(tok)
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, e)
	}
}
