package iges

import (
	"fmt"
	"slices"
)

// DEField names the pointer fields of a directory entry.
type DEField int

const (
	FieldStructure DEField = iota
	FieldLineFont
	FieldLevel
	FieldView
	FieldTransform
	FieldLabelDisplay
	FieldColor
	numDEFields
)

var deFieldRules = [numDEFields]childRule{
	structureRule, lineFontRule, levelRule, viewRule, transformRule, labelRule, colorRule,
}

// deFieldNegated marks fields where a pointer is written as a negated DE
// sequence number and a positive value is a plain number.
var deFieldNegated = [numDEFields]bool{true, true, true, false, false, false, true}

// Entity is one IGES entity: its directory entry and its parameter data.
type Entity struct {
	typ  EntityType
	form int

	ptrs   [numDEFields]*Entity
	values [numDEFields]int // line font pattern, level and color numbers

	lineWeight int
	status     Status
	label      string
	subscript  int
	comments   []string
	extras     []*Entity

	refs []*Entity
	data Payload

	model *Model
	slot  int
	seq   int
	raw   *rawDE
}

// rawDE holds unresolved pointers between Read and Associate.
type rawDE struct {
	ptrs   [numDEFields]int
	extras []int
}

// NewEntity creates a detached entity of type t with default directory
// values. Types without a dedicated payload carry a Raw payload.
func NewEntity(t EntityType) *Entity {
	e := &Entity{typ: t, slot: -1}
	if r, ok := typeRules[t]; ok && len(r.forms) > 0 {
		e.form = r.forms[0]
		if slices.Contains(r.forms, 0) {
			e.form = 0
		}
	}
	e.data = newPayload(t)
	e.data.bind(e)
	return e
}

// Type returns the entity type number.
func (e *Entity) Type() EntityType { return e.typ }

// Form returns the form number.
func (e *Entity) Form() int { return e.form }

// SetForm sets the form number if the entity type supports it.
func (e *Entity) SetForm(form int) error {
	if err := checkForm(e.typ, form); err != nil {
		return err
	}
	e.form = form
	return nil
}

// Model returns the owning model or nil for a detached entity.
func (e *Entity) Model() *Model { return e.model }

// Seq returns the DE sequence number assigned by the last read or write.
func (e *Entity) Seq() int { return e.seq }

// Data returns the typed parameter data payload.
func (e *Entity) Data() Payload { return e.data }

// As returns the payload of e as T.
func As[T Payload](e *Entity) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	p, ok := e.data.(T)
	return p, ok
}

func (e *Entity) Status() Status { return e.status }

func (e *Entity) SetBlanked(b bool) { e.status.Blanked = b }

func (e *Entity) SetDependency(d Dependency) error {
	if d < Independent || d > BothDependent {
		return fmt.Errorf("%w: dependency %d", ErrInvalidStatus, d)
	}
	e.status.Dependency = d
	return nil
}

func (e *Entity) SetUse(u Use) error {
	if u < UseGeometry || u > UseConstruction {
		return fmt.Errorf("%w: use %d", ErrInvalidStatus, u)
	}
	e.status.Use = u
	return nil
}

func (e *Entity) SetHierarchy(h Hierarchy) error {
	if h < HierarchyGlobalTopDown || h > HierarchyUseProperty {
		return fmt.Errorf("%w: hierarchy %d", ErrInvalidStatus, h)
	}
	e.status.Hierarchy = h
	return nil
}

func (e *Entity) LineWeight() int { return e.lineWeight }

func (e *Entity) SetLineWeight(w int) error {
	if w < 0 {
		return fmt.Errorf("iges: negative line weight %d", w)
	}
	e.lineWeight = w
	return nil
}

func (e *Entity) Label() string { return e.label }

// SetLabel sets the entity label; IGES allows up to eight characters.
func (e *Entity) SetLabel(s string) error {
	if len(s) > 8 {
		return fmt.Errorf("iges: label %q longer than 8 characters", s)
	}
	e.label = s
	return nil
}

func (e *Entity) Subscript() int { return e.subscript }

func (e *Entity) SetSubscript(n int) error {
	if n < 0 || n > 99999999 {
		return fmt.Errorf("iges: subscript %d out of range", n)
	}
	e.subscript = n
	return nil
}

// Comments returns the free text following the parameter data.
func (e *Entity) Comments() []string { return slices.Clone(e.comments) }

func (e *Entity) AddComment(s string) { e.comments = append(e.comments, s) }

// Pointer returns the entity referenced by a directory field.
func (e *Entity) Pointer(f DEField) *Entity { return e.ptrs[f] }

// SetPointer points a directory field at child, or clears it when child is
// nil. The previous target is released.
func (e *Entity) SetPointer(f DEField, child *Entity) error {
	old := e.ptrs[f]
	if child != nil {
		if err := deFieldRules[f].check(e, child); err != nil {
			return err
		}
		if _, err := child.AddReference(e); err != nil {
			return err
		}
		e.values[f] = 0
	}
	e.ptrs[f] = child
	if old != child {
		e.drop(old)
	}
	return nil
}

func (e *Entity) Transform() *Entity { return e.ptrs[FieldTransform] }

func (e *Entity) SetTransform(t *Entity) error { return e.SetPointer(FieldTransform, t) }

func (e *Entity) Color() *Entity { return e.ptrs[FieldColor] }

func (e *Entity) SetColor(c *Entity) error { return e.SetPointer(FieldColor, c) }

// ColorNumber returns the predefined color number (0 when a Color
// Definition is referenced instead).
func (e *Entity) ColorNumber() int { return e.values[FieldColor] }

// SetColorNumber selects one of the predefined IGES colors 0..8 and clears
// any Color Definition pointer.
func (e *Entity) SetColorNumber(n int) error {
	if n < 0 || n > 8 {
		return fmt.Errorf("iges: color number %d out of range", n)
	}
	if err := e.SetPointer(FieldColor, nil); err != nil {
		return err
	}
	e.values[FieldColor] = n
	return nil
}

// LevelNumber returns the level the entity resides on.
func (e *Entity) LevelNumber() int { return e.values[FieldLevel] }

func (e *Entity) SetLevelNumber(n int) error {
	if n < 0 {
		return fmt.Errorf("iges: negative level %d", n)
	}
	if err := e.SetPointer(FieldLevel, nil); err != nil {
		return err
	}
	e.values[FieldLevel] = n
	return nil
}

func (e *Entity) LineFontPattern() int { return e.values[FieldLineFont] }

// Extras returns associativity and property entities attached after the
// parameter data.
func (e *Entity) Extras() []*Entity { return slices.Clone(e.extras) }

func (e *Entity) AddExtra(x *Entity) error {
	if x == nil {
		return fmt.Errorf("%w: nil extra", ErrInvalidPointer)
	}
	dup, err := x.AddReference(e)
	if err != nil {
		return err
	}
	if !dup || !slices.Contains(e.extras, x) {
		e.extras = append(e.extras, x)
	}
	return nil
}

// Refs returns the parents that hold a reference to e.
func (e *Entity) Refs() []*Entity { return slices.Clone(e.refs) }

// Children returns every entity e points to, directory pointers first.
func (e *Entity) Children() []*Entity {
	var out []*Entity
	add := func(c *Entity) {
		if c != nil && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	for _, p := range e.ptrs {
		add(p)
	}
	for _, x := range e.extras {
		add(x)
	}
	for _, c := range e.data.children() {
		add(c)
	}
	return out
}

// AddReference registers parent as holding a reference to e. duplicate is
// true when parent was already registered.
func (e *Entity) AddReference(parent *Entity) (duplicate bool, err error) {
	switch {
	case parent == nil:
		return false, fmt.Errorf("%w: nil parent", ErrInvalidPointer)
	case parent == e:
		return false, fmt.Errorf("%w: %s may not reference itself", ErrCycle, e.typ)
	case e.typ == TypeCompositeCurve && parent.typ == TypeCompositeCurve:
		return false, fmt.Errorf("%w: a Composite Curve may not contain a Composite Curve", ErrCycle)
	case e.model != nil && parent.model != nil && e.model != parent.model:
		return false, ErrForeignEntity
	}
	if slices.Contains(e.refs, parent) {
		return true, nil
	}
	if e.reaches(parent) {
		return false, fmt.Errorf("%w: %s is already a descendant of %s", ErrCycle, parent.typ, e.typ)
	}
	e.refs = append(e.refs, parent)
	return false, nil
}

// DelReference removes parent from the reference list. Removing a parent
// that is not registered is not an error.
func (e *Entity) DelReference(parent *Entity) error {
	if parent == nil {
		return fmt.Errorf("%w: nil parent", ErrInvalidPointer)
	}
	if i := slices.Index(e.refs, parent); i >= 0 {
		e.refs = slices.Delete(e.refs, i, i+1)
	}
	return nil
}

// IsOrphaned reports whether e can be culled: it is dependent and nothing
// references it, or a mandatory child is missing.
func (e *Entity) IsOrphaned() bool {
	if e.data.missing() {
		return true
	}
	return len(e.refs) == 0 && e.status.Dependency != Independent
}

// Unlink severs every link from e to child without destroying child. It
// returns false when e held no link to child.
func (e *Entity) Unlink(child *Entity) bool {
	if child == nil {
		return false
	}
	found := false
	for f := range e.ptrs {
		if e.ptrs[f] == child {
			e.ptrs[f] = nil
			found = true
		}
	}
	if n := len(e.extras); n > 0 {
		e.extras = slices.DeleteFunc(e.extras, func(x *Entity) bool { return x == child })
		found = found || len(e.extras) != n
	}
	if e.data.unlink(child) {
		found = true
	}
	if found {
		e.drop(child)
	}
	return found
}

// drop releases e's back reference in child once e no longer points to it.
func (e *Entity) drop(child *Entity) {
	if child == nil || slices.Contains(e.Children(), child) {
		return
	}
	_ = child.DelReference(e)
}

// reaches reports whether target is a descendant of e.
func (e *Entity) reaches(target *Entity) bool {
	seen := map[*Entity]bool{e: true}
	stack := e.Children()
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c == target {
			return true
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		stack = append(stack, c.Children()...)
	}
	return false
}

// physicalChild marks child as physically dependent on its parent when it
// was left independent.
func (e *Entity) physicalChild(child *Entity) {
	if child != nil && child.status.Dependency == Independent {
		child.status.Dependency = PhysicallyDependent
	}
}

func (e *Entity) String() string {
	if e.seq > 0 {
		return fmt.Sprintf("%s (DE %d)", e.typ, e.seq)
	}
	return e.typ.String()
}
