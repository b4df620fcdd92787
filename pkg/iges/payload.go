package iges

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Payload is the parameter data of an entity. The concrete type depends on
// the entity type; use As to access it.
type Payload interface {
	bind(e *Entity)
	readParams(r *paramReader)
	writeParams(w *paramWriter)
	associate(a *associator)
	children() []*Entity
	unlink(child *Entity) bool
	missing() bool
}

// node is embedded by every payload; it supplies the owner and no-op
// defaults for leaf entities.
type node struct {
	self *Entity
}

func (n *node) bind(e *Entity)        { n.self = e }
func (n *node) associate(*associator) {}
func (n *node) children() []*Entity   { return nil }
func (n *node) unlink(*Entity) bool   { return false }
func (n *node) missing() bool         { return false }
func (n *node) Entity() *Entity       { return n.self }

// link validates child against r and registers the back reference.
func (n *node) link(child *Entity, r childRule) error {
	if err := r.check(n.self, child); err != nil {
		return err
	}
	_, err := child.AddReference(n.self)
	return err
}

// release drops the back reference of every entity in old that the owner no
// longer points to.
func (n *node) release(old ...*Entity) {
	for _, c := range old {
		n.self.drop(c)
	}
}

func newPayload(t EntityType) Payload {
	switch t {
	case TypeCircularArc:
		return &CircularArc{}
	case TypeCompositeCurve:
		return &CompositeCurve{}
	case TypeLine:
		return &Line{}
	case TypePoint:
		return &PointEntity{}
	case TypeSurfaceOfRevolution:
		return &SurfaceOfRevolution{}
	case TypeTabulatedCylinder:
		return &TabulatedCylinder{}
	case TypeTransformation:
		return newTransformation()
	case TypeNURBSCurve:
		return &NURBSCurve{}
	case TypeNURBSSurface:
		return &NURBSSurface{}
	case TypeCurveOnSurface:
		return &CurveOnSurface{}
	case TypeTrimmedSurface:
		return &TrimmedSurface{}
	case TypeBooleanTree:
		return &BooleanTree{}
	case TypeSubfigureDefinition:
		return &SubfigureDefinition{}
	case TypeColorDefinition:
		return &ColorDefinition{}
	case TypeSingularSubfigureInstance:
		return &SubfigureInstance{}
	case TypeVertexList:
		return &VertexList{}
	case TypeEdgeList:
		return newEdgeList()
	case TypeLoop:
		return newLoop()
	case TypeFace:
		return newFace()
	case TypeShell:
		return newShell()
	}
	return &Raw{}
}

// Raw keeps the parameters of an entity type this package does not
// interpret. Pointers inside a Raw payload are not resolved.
type Raw struct {
	node
	Params []Param
}

func (p *Raw) readParams(r *paramReader) { p.Params = slices.Clone(r.rest()) }

func (p *Raw) writeParams(w *paramWriter) {
	for _, v := range p.Params {
		w.raw(v)
	}
}

// associator resolves the raw DE pointers of one entity against the table.
type associator struct {
	table []*Entity
	owner *Entity
	tol   float64
	log   *zap.Logger
	err   error
}

// resolve turns a DE sequence number into an entity, checks it against r
// and registers the back reference. Zero yields nil.
func (a *associator) resolve(seq int, r childRule) *Entity {
	if a.err != nil || seq == 0 {
		return nil
	}
	child, err := lookup(a.table, seq)
	if err == nil {
		err = r.check(a.owner, child)
	}
	if err == nil {
		_, err = child.AddReference(a.owner)
	}
	if err != nil {
		a.err = fmt.Errorf("%s: %w", r.field, err)
		return nil
	}
	return child
}

// required is resolve for fields that must not be empty.
func (a *associator) required(seq int, r childRule) *Entity {
	if a.err == nil && seq == 0 {
		a.err = fmt.Errorf("%w: missing %s", ErrInvalidPointer, r.field)
		return nil
	}
	return a.resolve(seq, r)
}

// lookup maps a DE sequence number to its table entry.
func lookup(table []*Entity, seq int) (*Entity, error) {
	if seq < 0 {
		seq = -seq
	}
	if seq&1 == 0 {
		return nil, fmt.Errorf("%w: even DE sequence number %d", ErrInvalidPointer, seq)
	}
	i := seq >> 1
	if i >= len(table) {
		return nil, fmt.Errorf("%w: DE sequence number %d out of range (%d entities)", ErrInvalidPointer, seq, len(table))
	}
	return table[i], nil
}
