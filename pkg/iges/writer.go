package iges

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Write renumbers the entities in table order and writes the model.
func (m *Model) Write(w io.Writer) error {
	if m.pending {
		return ErrNotAssociated
	}
	g := m.Global
	if g.ParamDelim == 0 {
		g.ParamDelim = ','
	}
	if g.RecordDelim == 0 {
		g.RecordDelim = ';'
	}
	if g.ParamDelim == g.RecordDelim {
		return fmt.Errorf("iges: parameter and record delimiters are both %q", g.ParamDelim)
	}
	for i, e := range m.entities {
		e.seq = 2*i + 1
	}
	seqOf := func(e *Entity) int {
		if e.model != m {
			m.log.Warn("pointer to entity outside the model written as 0", zap.Stringer("entity", e))
			return 0
		}
		return e.seq
	}

	bw := bufio.NewWriter(w)
	start := m.Start
	if len(start) == 0 {
		start = []string{""}
	}
	var nStart int
	for _, s := range start {
		for _, chunk := range chunks(s, dataWidth) {
			nStart++
			fmt.Fprintf(bw, "%-72sS%7d\n", chunk, nStart)
		}
	}

	gl := formatRecord(g.params(time.Now()).params, g.ParamDelim, g.RecordDelim, dataWidth)
	for i, l := range gl {
		fmt.Fprintf(bw, "%-72sG%7d\n", l, i+1)
	}

	pd := make([][]string, len(m.entities))
	for i, e := range m.entities {
		pw := &paramWriter{seqOf: seqOf}
		pw.int(int(e.typ))
		e.data.writeParams(pw)
		if len(e.extras) > 0 {
			pw.int(len(e.extras))
			for _, x := range e.extras {
				pw.ptr(x)
			}
		}
		lines := formatRecord(pw.params, g.ParamDelim, g.RecordDelim, pdWidth)
		for _, c := range e.comments {
			lines = append(lines, chunks(c, pdWidth)...)
		}
		pd[i] = lines
	}

	next := 1
	for i, e := range m.entities {
		ptr := func(f DEField) int {
			if p := e.ptrs[f]; p != nil {
				if deFieldNegated[f] {
					return -seqOf(p)
				}
				return seqOf(p)
			}
			return e.values[f]
		}
		fmt.Fprintf(bw, "%8d%8d%8d%8d%8d%8d%8d%8d%8sD%7d\n",
			e.typ, next, ptr(FieldStructure), ptr(FieldLineFont), ptr(FieldLevel),
			ptr(FieldView), ptr(FieldTransform), ptr(FieldLabelDisplay), e.status, e.seq)
		fmt.Fprintf(bw, "%8d%8d%8d%8d%8d%8s%8s%8s%8dD%7d\n",
			e.typ, e.lineWeight, ptr(FieldColor), len(pd[i]), e.form, "", "", e.label, e.subscript, e.seq+1)
		next += len(pd[i])
	}

	n := 0
	for i, lines := range pd {
		for _, l := range lines {
			n++
			fmt.Fprintf(bw, "%-64s %7dP%7d\n", l, m.entities[i].seq, n)
		}
	}

	fmt.Fprintf(bw, "S%7dG%7dD%7dP%7d%40sT%7d\n", nStart, len(gl), 2*len(m.entities), n, "", 1)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("iges: write: %w", err)
	}
	return nil
}

// formatRecord lays parameters out on lines of at most width columns. A
// parameter never straddles a line unless it is longer than a whole line,
// in which case it fills lines completely so that joining the data columns
// restores it.
func formatRecord(params []string, delim, end byte, width int) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
	}
	for i, p := range params {
		tok := p + string(delim)
		if i == len(params)-1 {
			tok = p + string(end)
		}
		if cur.Len()+len(tok) <= width {
			cur.WriteString(tok)
			continue
		}
		if len(tok) <= width {
			flush()
			cur.WriteString(tok)
			continue
		}
		for len(tok) > 0 {
			room := width - cur.Len()
			if room == 0 {
				flush()
				room = width
			}
			n := min(room, len(tok))
			cur.WriteString(tok[:n])
			tok = tok[n:]
		}
	}
	if cur.Len() > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

func chunks(s string, width int) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	for len(s) > width {
		out = append(out, s[:width])
		s = s[width:]
	}
	return append(out, s)
}
