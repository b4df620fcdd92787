package sexp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokOpen
	tokClose
	tokSymbol
	tokString
)

type token struct {
	typ  tokenType
	val  string
	line int
}

// lexer tokenizes KiCad s-expressions. Quoted strings accept both
// backslash escapes and doubled quotes.
type lexer struct {
	r      *bufio.Reader
	line   int
	peeked rune
	ok     bool
}

func newLexer(r io.Reader) *lexer {
	return &lexer{r: bufio.NewReader(r), line: 1}
}

func (l *lexer) peek() (rune, error) {
	if l.ok {
		return l.peeked, nil
	}
	ch, _, err := l.r.ReadRune()
	if err != nil {
		return 0, err
	}
	l.peeked, l.ok = ch, true
	return ch, nil
}

func (l *lexer) read() (rune, error) {
	ch, err := l.peek()
	if err != nil {
		return 0, err
	}
	l.ok = false
	if ch == '\n' {
		l.line++
	}
	return ch, nil
}

func (l *lexer) next() (token, error) {
	for {
		ch, err := l.peek()
		if errors.Is(err, io.EOF) {
			return token{typ: tokEOF, line: l.line}, nil
		}
		if err != nil {
			return token{}, err
		}
		switch {
		case unicode.IsSpace(ch):
			l.read()
		case ch == '#':
			for {
				c, err := l.read()
				if err != nil || c == '\n' {
					break
				}
			}
		case ch == '(':
			l.read()
			return token{typ: tokOpen, line: l.line}, nil
		case ch == ')':
			l.read()
			return token{typ: tokClose, line: l.line}, nil
		case ch == '"':
			return l.quoted()
		default:
			return l.symbol()
		}
	}
}

func (l *lexer) quoted() (token, error) {
	line := l.line
	l.read()

	var sb strings.Builder
	for {
		ch, err := l.read()
		if err != nil {
			return token{}, fmt.Errorf("line %d: unterminated string", line)
		}
		switch ch {
		case '"':
			if next, err := l.peek(); err == nil && next == '"' {
				l.read()
				sb.WriteRune('"')
				continue
			}
			return token{typ: tokString, val: sb.String(), line: line}, nil
		case '\\':
			esc, err := l.read()
			if err != nil {
				return token{}, fmt.Errorf("line %d: unterminated escape", line)
			}
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(ch)
		}
	}
}

func (l *lexer) symbol() (token, error) {
	var sb strings.Builder
	for {
		ch, err := l.peek()
		if err != nil && !errors.Is(err, io.EOF) {
			return token{}, err
		}
		if err != nil || unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' {
			break
		}
		l.read()
		sb.WriteRune(ch)
	}
	return token{typ: tokSymbol, val: sb.String(), line: l.line}, nil
}
