package iges

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	lineWidth = 80
	dataWidth = 72 // start and global sections
	pdWidth   = 64 // parameter data section
)

type sections struct {
	start, global, de, pd []string
	term                  string
}

// Read loads the model from r. The entity graph is not linked until
// Associate runs; ReadFile does both.
func (m *Model) Read(r io.Reader) error {
	if len(m.entities) > 0 || m.pending || m.associated {
		return errors.New("iges: read into non-empty model")
	}
	sec, err := m.split(r)
	if err != nil {
		return err
	}
	if len(sec.global) == 0 {
		return corruptf("missing global section")
	}
	g, d, err := parseGlobal(joinData(sec.global, dataWidth))
	if err != nil {
		return err
	}
	g.ParamDelim, g.RecordDelim = d.param, d.record
	if len(sec.de)%2 != 0 {
		return corruptf("odd number of directory entry lines (%d)", len(sec.de))
	}
	entities := make([]*Entity, 0, len(sec.de)/2)
	for i := 0; i+1 < len(sec.de); i += 2 {
		e, err := m.readEntity(sec.de[i], sec.de[i+1], i+1, sec.pd, d)
		if err != nil {
			return err
		}
		entities = append(entities, e)
	}
	m.Global = g
	for _, s := range sec.start {
		m.Start = append(m.Start, strings.TrimRight(s[:dataWidth], " "))
	}
	for _, e := range entities {
		e.model = m
		m.attach(e)
	}
	m.entities = entities
	m.pending = true
	m.checkTerminate(sec)
	m.log.Debug("read model",
		zap.String("file", g.FileName),
		zap.Int("entities", len(entities)),
		zap.Stringer("units", g.Units))
	return nil
}

// split sorts lines into sections by the letter in column 73.
func (m *Model) split(r io.Reader) (*sections, error) {
	sec := &sections{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r\n\x1a")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < dataWidth+1 {
			return nil, corruptf("line %d: %d columns, want %d", n, len(line), lineWidth)
		}
		if len(line) < lineWidth {
			line += strings.Repeat(" ", lineWidth-len(line))
		}
		switch line[dataWidth] {
		case 'S':
			sec.start = append(sec.start, line)
		case 'G':
			sec.global = append(sec.global, line)
		case 'D':
			sec.de = append(sec.de, line)
		case 'P':
			sec.pd = append(sec.pd, line)
		case 'T':
			sec.term = line
		case 'C':
			return nil, fmt.Errorf("iges: compressed ASCII form is not supported")
		case 'B':
			return nil, fmt.Errorf("iges: binary form is not supported")
		default:
			return nil, corruptf("line %d: unknown section %q", n, line[dataWidth])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("iges: read: %w", err)
	}
	return sec, nil
}

func joinData(lines []string, width int) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l[:width])
	}
	return b.String()
}

// parseGlobal finds the delimiters (parameters 1 and 2 of the section,
// defaulted to comma and semicolon) and parses the rest with them.
func parseGlobal(text string) (Global, delimiters, error) {
	d := delimiters{param: ',', record: ';'}
	rest := strings.TrimLeft(text, " ")
	if strings.HasPrefix(rest, "1H") && len(rest) > 2 {
		d.param = rest[2]
		rest = rest[3:]
	}
	rest = strings.TrimLeft(rest, " ")
	if len(rest) > 0 && rest[0] == d.param {
		rest = strings.TrimLeft(rest[1:], " ")
		if strings.HasPrefix(rest, "1H") && len(rest) > 2 {
			d.record = rest[2]
		}
	}
	if d.param == d.record {
		return Global{}, d, corruptf("parameter and record delimiters are both %q", d.param)
	}
	params, _, err := parseParams(text, d)
	if err != nil {
		return Global{}, d, fmt.Errorf("global section: %w", err)
	}
	g, err := readGlobal(params)
	return g, d, err
}

// deField returns the 8 column field k of a DE line as an integer; blank
// fields are zero.
func deField(line string, k int) (int, error) {
	s := strings.TrimSpace(line[8*k : 8*k+8])
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (m *Model) readEntity(l1, l2 string, seq int, pd []string, d delimiters) (*Entity, error) {
	var f1, f2 [9]int
	for k := 0; k < 8; k++ {
		var err error
		if f1[k], err = deField(l1, k); err != nil {
			return nil, &Error{Seq: seq, Op: "read", Err: corruptf("DE field %d: %v", k+1, err)}
		}
		if k == 7 {
			continue // label text
		}
		if f2[k], err = deField(l2, k); err != nil {
			return nil, &Error{Seq: seq, Op: "read", Err: corruptf("DE field %d: %v", k+11, err)}
		}
	}
	typ := EntityType(f1[0])
	if f2[0] != f1[0] {
		return nil, &Error{Seq: seq, Type: typ, Op: "read", Err: corruptf("entity type differs between DE lines (%d, %d)", f1[0], f2[0])}
	}
	e := NewEntity(typ)
	e.seq = seq
	e.raw = &rawDE{}
	e.raw.ptrs[FieldStructure] = f1[2]
	e.raw.ptrs[FieldLineFont] = f1[3]
	e.raw.ptrs[FieldLevel] = f1[4]
	e.raw.ptrs[FieldView] = f1[5]
	e.raw.ptrs[FieldTransform] = f1[6]
	e.raw.ptrs[FieldLabelDisplay] = f1[7]
	e.raw.ptrs[FieldColor] = f2[2]
	e.lineWeight = f2[1]
	e.form = f2[4]
	if err := checkForm(typ, e.form); err != nil {
		return nil, &Error{Seq: seq, Type: typ, Op: "read", Err: err}
	}
	st, err := parseStatus(l1[64:72])
	if err != nil {
		return nil, &Error{Seq: seq, Type: typ, Op: "read", Err: err}
	}
	e.status = st
	e.label = strings.TrimSpace(l2[56:64])
	if s := strings.TrimSpace(l2[64:72]); s != "" {
		if e.subscript, err = strconv.Atoi(s); err != nil {
			return nil, &Error{Seq: seq, Type: typ, Op: "read", Err: corruptf("subscript %q", s)}
		}
	}

	first, count := f1[1], f2[3]
	if first < 1 || count < 1 || first-1+count > len(pd) {
		return nil, &Error{Seq: seq, Type: typ, Op: "read", Err: corruptf("parameter data lines %d+%d outside section of %d", first, count, len(pd))}
	}
	lines := pd[first-1 : first-1+count]
	for _, l := range lines {
		if back, err := strconv.Atoi(strings.TrimSpace(l[65:72])); err != nil || back != seq {
			m.log.Warn("parameter data back pointer mismatch", zap.Int("de", seq), zap.String("back", strings.TrimSpace(l[65:72])))
			break
		}
	}
	text := joinData(lines, pdWidth)
	params, trailing, err := parseParams(text, d)
	if err != nil {
		return nil, &Error{Seq: seq, Type: typ, Op: "read", Err: err}
	}
	if len(params) == 0 || params[0].Kind != ParamInteger || params[0].Text != strconv.Itoa(int(typ)) {
		return nil, &Error{Seq: seq, Type: typ, Op: "read", Err: corruptf("parameter data does not start with entity type")}
	}
	r := &paramReader{params: params[1:]}
	e.data.readParams(r)
	if r.more() {
		for n := r.count(); n > 0 && r.err == nil; n-- {
			e.raw.extras = append(e.raw.extras, r.ptr())
		}
	}
	if r.more() {
		for n := r.count(); n > 0 && r.err == nil; n-- {
			e.raw.extras = append(e.raw.extras, r.ptr())
		}
	}
	if r.err != nil {
		return nil, &Error{Seq: seq, Type: typ, Op: "read", Err: r.err}
	}
	if r.more() {
		m.log.Info("ignoring trailing parameters", zap.Int("de", seq), zap.Int("count", len(r.params)-r.pos))
	}
	// Comments follow the record delimiter; keep one per physical line.
	for end := len(text) - len(trailing); end < len(text); {
		next := (end/pdWidth + 1) * pdWidth
		if c := strings.TrimSpace(text[end:next]); c != "" {
			e.comments = append(e.comments, c)
		}
		end = next
	}
	return e, nil
}

func parseStatus(s string) (Status, error) {
	s = strings.ReplaceAll(s, " ", "0")
	var v [4]int
	for i := range v {
		n, err := strconv.Atoi(s[2*i : 2*i+2])
		if err != nil {
			return Status{}, corruptf("status number %q", s)
		}
		v[i] = n
	}
	st := Status{
		Blanked:    v[0] == 1,
		Dependency: Dependency(v[1]),
		Use:        Use(v[2]),
		Hierarchy:  Hierarchy(v[3]),
	}
	if st.Dependency > BothDependent || st.Use > UseConstruction || st.Hierarchy > HierarchyUseProperty {
		return Status{}, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// checkTerminate compares the section counts in the terminate line with
// what was read.
func (m *Model) checkTerminate(sec *sections) {
	if sec.term == "" {
		m.log.Warn("missing terminate section")
		return
	}
	want := []int{len(sec.start), len(sec.global), len(sec.de), len(sec.pd)}
	for i, letter := range "SGDP" {
		field := sec.term[8*i : 8*i+8]
		if field[0] != byte(letter) {
			m.log.Warn("malformed terminate section", zap.String("line", sec.term))
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(field[1:]))
		if err != nil || n != want[i] {
			m.log.Warn("terminate count mismatch", zap.String("section", string(letter)), zap.Int("recorded", n), zap.Int("actual", want[i]))
		}
	}
}
