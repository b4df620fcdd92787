package iges

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
)

const (
	tokHollerith lexer.TokenType = lexer.EOF - 1 - iota
	tokNumber
	tokDefault
	tokDelim
	tokEnd
)

// paramLexerDef tokenizes one parameter record. Hollerith strings may
// contain either delimiter, so a regular expression lexer cannot be used.
// An empty field between delimiters is reported as a Default token.
type paramLexerDef struct {
	delim byte
	end   byte
}

var _ lexer.StringDefinition = paramLexerDef{}

func (d paramLexerDef) Symbols() map[string]lexer.TokenType {
	return map[string]lexer.TokenType{
		"EOF":       lexer.EOF,
		"Hollerith": tokHollerith,
		"Number":    tokNumber,
		"Default":   tokDefault,
		"Delim":     tokDelim,
		"End":       tokEnd,
	}
}

func (d paramLexerDef) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return d.LexString(filename, string(b))
}

func (d paramLexerDef) LexString(filename string, s string) (lexer.Lexer, error) {
	return &paramLexer{def: d, src: s, filename: filename, expect: true}, nil
}

type paramLexer struct {
	def      paramLexerDef
	src      string
	filename string
	off      int
	expect   bool // a parameter may start here
	done     bool
}

func (l *paramLexer) pos(off int) lexer.Position {
	return lexer.Position{Filename: l.filename, Offset: off, Line: 1, Column: off + 1}
}

func (l *paramLexer) token(t lexer.TokenType, value string, off int) lexer.Token {
	return lexer.Token{Type: t, Value: value, Pos: l.pos(off)}
}

func (l *paramLexer) Next() (lexer.Token, error) {
	if l.done {
		return l.token(lexer.EOF, "", l.off), nil
	}
	for l.off < len(l.src) && (l.src[l.off] == ' ' || l.src[l.off] == '\n' || l.src[l.off] == '\r' || l.src[l.off] == '\t') {
		l.off++
	}
	if l.off >= len(l.src) {
		return lexer.Token{}, fmt.Errorf("offset %d: missing record delimiter %q", l.off, l.def.end)
	}
	start := l.off
	c := l.src[start]
	if c == l.def.delim || c == l.def.end {
		if l.expect {
			l.expect = false
			return l.token(tokDefault, "", start), nil
		}
		l.off++
		if c == l.def.end {
			l.done = true
			return l.token(tokEnd, string(c), start), nil
		}
		l.expect = true
		return l.token(tokDelim, string(c), start), nil
	}
	if !l.expect {
		return lexer.Token{}, fmt.Errorf("offset %d: expected delimiter, found %q", start, c)
	}
	l.expect = false

	j := start
	for j < len(l.src) && l.src[j] >= '0' && l.src[j] <= '9' {
		j++
	}
	if j > start && j < len(l.src) && (l.src[j] == 'H' || l.src[j] == 'h') {
		n, err := strconv.Atoi(l.src[start:j])
		if err != nil {
			return lexer.Token{}, fmt.Errorf("offset %d: bad Hollerith count: %w", start, err)
		}
		body := j + 1
		if body+n > len(l.src) {
			return lexer.Token{}, fmt.Errorf("offset %d: Hollerith string of %d characters runs past the record", start, n)
		}
		l.off = body + n
		return l.token(tokHollerith, l.src[body:l.off], start), nil
	}
	for j < len(l.src) && isNumberChar(l.src[j]) {
		j++
	}
	if j == start {
		return lexer.Token{}, fmt.Errorf("offset %d: unexpected character %q", start, c)
	}
	l.off = j
	return l.token(tokNumber, l.src[start:j], start), nil
}

func isNumberChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == '+', c == '-', c == '.', c == 'E', c == 'e', c == 'D', c == 'd':
		return true
	}
	return false
}
