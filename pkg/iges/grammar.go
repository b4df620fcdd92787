package iges

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// paramRecord is the grammar of a parameter record:
//
//	record := value ( Delim value )* End
type paramRecord struct {
	First *paramValue   `@@`
	Rest  []*paramValue `( Delim @@ )*`
	Term  *recordEnd    `@@`
}

type paramValue struct {
	Hollerith *string `  @Hollerith`
	Number    *string `| @Number`
	Default   bool    `| @Default`
}

type recordEnd struct {
	Pos lexer.Position
	End string `@End`
}

type delimiters struct{ param, record byte }

var paramParsers sync.Map // delimiters -> *participle.Parser[paramRecord]

// paramParser returns the parser for a delimiter pair, building it on
// first use.
func paramParser(d delimiters) (*participle.Parser[paramRecord], error) {
	if p, ok := paramParsers.Load(d); ok {
		return p.(*participle.Parser[paramRecord]), nil
	}
	p, err := participle.Build[paramRecord](
		participle.Lexer(paramLexerDef{delim: d.param, end: d.record}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parameter parser: %w", err)
	}
	actual, _ := paramParsers.LoadOrStore(d, p)
	return actual.(*participle.Parser[paramRecord]), nil
}

// parseParams splits one record into parameters. trailing is whatever
// follows the record delimiter.
func parseParams(text string, d delimiters) (params []Param, trailing string, err error) {
	p, err := paramParser(d)
	if err != nil {
		return nil, "", err
	}
	rec, err := p.ParseString("", text)
	if err != nil {
		return nil, "", fmt.Errorf("%w: parse error: %w", ErrCorrupt, err)
	}
	values := append([]*paramValue{rec.First}, rec.Rest...)
	params = make([]Param, 0, len(values))
	for _, v := range values {
		params = append(params, v.param())
	}
	if end := rec.Term.Pos.Offset + 1; end < len(text) {
		trailing = text[end:]
	}
	return params, trailing, nil
}

func (v *paramValue) param() Param {
	switch {
	case v.Hollerith != nil:
		return Param{Kind: ParamString, Text: *v.Hollerith}
	case v.Number != nil:
		if strings.ContainsAny(*v.Number, ".EeDd") {
			return Param{Kind: ParamReal, Text: *v.Number}
		}
		return Param{Kind: ParamInteger, Text: *v.Number}
	}
	return Param{Kind: ParamDefault}
}
