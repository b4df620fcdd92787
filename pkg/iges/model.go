package iges

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Model is an IGES file in memory.
type Model struct {
	Global Global
	Start  []string

	entities []*Entity
	slots    []slot
	free     []int
	log      *zap.Logger

	pending    bool // read but not yet associated
	associated bool
}

type slot struct {
	e   *Entity
	gen uint32
}

// Handle refers to an entity of a model. A handle outlives its entity:
// after deletion Resolve reports false instead of returning a stale entity.
type Handle struct {
	slot int
	gen  uint32
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used for structural diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithGlobal replaces the default global section.
func WithGlobal(g Global) Option {
	return func(m *Model) { m.Global = g }
}

// New creates an empty model.
func New(opts ...Option) *Model {
	m := &Model{Global: DefaultGlobal(), log: zap.NewNop()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Logger returns the model's logger.
func (m *Model) Logger() *zap.Logger { return m.log }

// Entities returns the entity table in DE order.
func (m *Model) Entities() []*Entity { return slices.Clone(m.entities) }

func (m *Model) Len() int { return len(m.entities) }

// NewEntity creates an entity of type t and adds it to the model.
func (m *Model) NewEntity(t EntityType) (*Entity, error) {
	if _, raw := newPayload(t).(*Raw); raw {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, int(t))
	}
	e := NewEntity(t)
	if err := m.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Add appends a detached entity to the table.
func (m *Model) Add(e *Entity) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity", ErrInvalidPointer)
	}
	if e.model != nil {
		if e.model == m {
			return nil
		}
		return ErrForeignEntity
	}
	e.model = m
	m.attach(e)
	m.entities = append(m.entities, e)
	return nil
}

func (m *Model) attach(e *Entity) {
	if n := len(m.free); n > 0 {
		e.slot = m.free[n-1]
		m.free = m.free[:n-1]
		m.slots[e.slot].e = e
		return
	}
	e.slot = len(m.slots)
	m.slots = append(m.slots, slot{e: e, gen: 1})
}

func (m *Model) detach(e *Entity) {
	if e.slot >= 0 && e.slot < len(m.slots) {
		s := &m.slots[e.slot]
		s.e = nil
		s.gen++
		m.free = append(m.free, e.slot)
	}
	e.slot = -1
	e.model = nil
}

// Handle returns a generation-checked handle for e.
func (m *Model) Handle(e *Entity) Handle {
	if e == nil || e.model != m {
		return Handle{slot: -1}
	}
	return Handle{slot: e.slot, gen: m.slots[e.slot].gen}
}

// Resolve returns the entity behind h if it still exists.
func (m *Model) Resolve(h Handle) (*Entity, bool) {
	if h.slot < 0 || h.slot >= len(m.slots) {
		return nil, false
	}
	s := m.slots[h.slot]
	if s.gen != h.gen || s.e == nil {
		return nil, false
	}
	return s.e, true
}

// DelEntity removes e: every parent is unlinked from it and e releases its
// own children. No entity left in the model points to e afterwards.
func (m *Model) DelEntity(e *Entity) error {
	if e == nil || e.model != m {
		return ErrForeignEntity
	}
	m.unhook(e)
	m.entities = slices.DeleteFunc(m.entities, func(x *Entity) bool { return x == e })
	return nil
}

func (m *Model) unhook(e *Entity) {
	for _, p := range e.Refs() {
		if !p.Unlink(e) {
			m.log.Warn("parent held no link to deleted entity",
				zap.Stringer("parent", p), zap.Stringer("entity", e))
		}
	}
	e.refs = nil
	for _, c := range e.Children() {
		_ = c.DelReference(e)
	}
	m.detach(e)
}

// Orphans returns the entities Cull would delete in its first round.
func (m *Model) Orphans() []*Entity {
	var out []*Entity
	for _, e := range m.entities {
		if e.IsOrphaned() {
			out = append(out, e)
		}
	}
	return out
}

// Cull deletes orphaned entities until none remain and returns how many
// were removed. Deleting an orphan may orphan its children, hence the loop.
func (m *Model) Cull() int {
	total := 0
	for {
		orphans := m.Orphans()
		if len(orphans) == 0 {
			return total
		}
		for _, e := range orphans {
			m.log.Debug("culling orphan", zap.Stringer("entity", e))
			m.unhook(e)
		}
		m.entities = slices.DeleteFunc(m.entities, func(x *Entity) bool { return x.model != m })
		total += len(orphans)
	}
}

// Import moves every entity of src into m. A src loaded by Read must have
// been associated successfully, and both models must use the same units;
// src is empty afterwards.
func (m *Model) Import(src *Model) error {
	if src == nil || src == m {
		return fmt.Errorf("iges: invalid import source")
	}
	if src.pending {
		return ErrNotAssociated
	}
	if src.Global.Units != m.Global.Units {
		return fmt.Errorf("%w: %s into %s", ErrUnitsMismatch, src.Global.Units, m.Global.Units)
	}
	for _, e := range src.entities {
		src.detach(e)
		e.model = m
		m.attach(e)
		m.entities = append(m.entities, e)
	}
	src.entities = nil
	m.log.Debug("imported model", zap.String("file", src.Global.FileName), zap.Int("entities", len(m.entities)))
	return nil
}

// Associate resolves the DE pointers recorded by Read. It runs once per
// load; any invalid pointer fails the whole pass.
func (m *Model) Associate() error {
	if m.associated {
		return ErrAlreadyAssociated
	}
	m.associated = true
	if !m.pending {
		return nil
	}
	tol := m.Global.MinResolution
	if tol <= 0 {
		tol = DefaultGlobal().MinResolution
	}
	for _, e := range m.entities {
		if e.raw == nil {
			continue
		}
		a := &associator{table: m.entities, owner: e, tol: tol, log: m.log}
		for f := DEField(0); f < numDEFields; f++ {
			e.associateField(a, f)
		}
		for _, seq := range e.raw.extras {
			if x := a.resolve(seq, extraRule); x != nil {
				e.extras = append(e.extras, x)
			}
		}
		e.data.associate(a)
		if a.err != nil {
			return &Error{Seq: e.seq, Type: e.typ, Op: "associate", Err: a.err}
		}
		e.raw = nil
	}
	m.pending = false
	return nil
}

func (e *Entity) associateField(a *associator, f DEField) {
	v := e.raw.ptrs[f]
	switch {
	case v == 0:
		return
	case deFieldNegated[f] && v > 0:
		e.values[f] = v
		return
	case !deFieldNegated[f] && v < 0:
		a.err = fmt.Errorf("%w: negative %s pointer %d", ErrInvalidPointer, deFieldRules[f].field, v)
		return
	}
	if v < 0 {
		v = -v
	}
	e.ptrs[f] = a.resolve(v, deFieldRules[f])
}

// Stats counts entities per type.
func (m *Model) Stats() map[EntityType]int {
	out := make(map[EntityType]int)
	for _, e := range m.entities {
		out[e.typ]++
	}
	return out
}
