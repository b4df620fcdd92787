package iges

import (
	"fmt"
	"slices"
)

// typeRule holds the per-type facts consulted by the setters and by
// Associate. A nil forms list accepts any form.
type typeRule struct {
	name  string
	forms []int
}

var typeRules = map[EntityType]typeRule{
	TypeNull:                      {"Null", nil},
	TypeCircularArc:               {"Circular Arc", []int{0}},
	TypeCompositeCurve:            {"Composite Curve", []int{0}},
	TypeConicArc:                  {"Conic Arc", []int{0, 1, 2, 3}},
	TypeCopiousData:               {"Copious Data", []int{1, 2, 3, 11, 12, 13, 20, 21, 31, 32, 33, 34, 35, 36, 37, 38, 40, 63}},
	TypePlane:                     {"Plane", []int{-1, 0, 1}},
	TypeLine:                      {"Line", []int{0, 1, 2}},
	TypeParamSplineCurve:          {"Parametric Spline Curve", []int{0}},
	TypeParamSplineSurface:        {"Parametric Spline Surface", []int{0}},
	TypePoint:                     {"Point", []int{0}},
	TypeRuledSurface:              {"Ruled Surface", []int{0, 1}},
	TypeSurfaceOfRevolution:       {"Surface of Revolution", []int{0}},
	TypeTabulatedCylinder:         {"Tabulated Cylinder", []int{0}},
	TypeTransformation:            {"Transformation Matrix", []int{0, 1, 10, 11, 12}},
	TypeNURBSCurve:                {"Rational B-Spline Curve", []int{0, 1, 2, 3, 4, 5}},
	TypeNURBSSurface:              {"Rational B-Spline Surface", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
	TypeConnectPoint:              {"Connect Point", []int{0}},
	TypeOffsetSurface:             {"Offset Surface", []int{0}},
	TypeBoundary:                  {"Boundary", []int{0}},
	TypeCurveOnSurface:            {"Curve on a Parametric Surface", []int{0}},
	TypeBoundedSurface:            {"Bounded Surface", []int{0}},
	TypeTrimmedSurface:            {"Trimmed Parametric Surface", []int{0}},
	TypeBooleanTree:               {"Boolean Tree", []int{0, 1}},
	TypeLineFontDefinition:        {"Line Font Definition", nil},
	TypeSubfigureDefinition:       {"Subfigure Definition", []int{0}},
	TypeColorDefinition:           {"Color Definition", []int{0}},
	TypeAssociativityInstance:     {"Associativity Instance", nil},
	TypeProperty:                  {"Property", nil},
	TypeSingularSubfigureInstance: {"Singular Subfigure Instance", []int{0}},
	TypeView:                      {"View", []int{0, 1}},
	TypeSolidInstance:             {"Solid Instance", []int{0}},
	TypeVertexList:                {"Vertex List", []int{1}},
	TypeEdgeList:                  {"Edge List", []int{1}},
	TypeLoop:                      {"Loop", []int{0, 1}},
	TypeFace:                      {"Face", []int{1}},
	TypeShell:                     {"Shell", []int{1, 2}},
}

// checkForm reports whether form is legal for t.
func checkForm(t EntityType, form int) error {
	r, ok := typeRules[t]
	if !ok || r.forms == nil || slices.Contains(r.forms, form) {
		return nil
	}
	if len(r.forms) == 1 {
		return fmt.Errorf("%w: %s Entity supports only Form %d", ErrInvalidForm, r.name, r.forms[0])
	}
	return fmt.Errorf("%w: %s Entity does not support Form %d", ErrInvalidForm, r.name, form)
}

// childRule is the set of entity types (and optionally forms) a pointer
// field may refer to.
type childRule struct {
	field string
	types map[EntityType][]int
	any   bool
}

func rule(field string, types ...EntityType) childRule {
	r := childRule{field: field, types: make(map[EntityType][]int, len(types))}
	for _, t := range types {
		r.types[t] = nil
	}
	return r
}

// withForms restricts t to the given forms.
func (r childRule) withForms(t EntityType, forms ...int) childRule {
	m := make(map[EntityType][]int, len(r.types)+1)
	for k, v := range r.types {
		m[k] = v
	}
	m[t] = forms
	r.types = m
	return r
}

func (r childRule) without(t EntityType) childRule {
	m := make(map[EntityType][]int, len(r.types))
	for k, v := range r.types {
		if k != t {
			m[k] = v
		}
	}
	r.types = m
	return r
}

func (r childRule) named(field string) childRule {
	r.field = field
	return r
}

func (r childRule) check(owner, child *Entity) error {
	if child == nil {
		return fmt.Errorf("%w: nil %s", ErrInvalidPointer, r.field)
	}
	if r.any {
		return nil
	}
	forms, ok := r.types[child.typ]
	if !ok {
		return fmt.Errorf("%w: %s may not reference %s as %s", ErrInvalidPointer, owner.typ, child.typ, r.field)
	}
	if forms != nil && !slices.Contains(forms, child.form) {
		return fmt.Errorf("%w: %s may not reference %s form %d as %s", ErrInvalidPointer, owner.typ, child.typ, child.form, r.field)
	}
	return nil
}

var (
	curveRule = rule("curve",
		TypeCircularArc, TypeCompositeCurve, TypeConicArc, TypeCopiousData,
		TypeLine, TypeParamSplineCurve, TypePoint, TypeNURBSCurve, TypeConnectPoint,
	).withForms(TypeCopiousData, 11, 12, 63)

	compositeMemberRule = curveRule.without(TypeCompositeCurve).named("composite member")

	surfaceRule = rule("surface",
		TypePlane, TypeParamSplineSurface, TypeRuledSurface, TypeSurfaceOfRevolution,
		TypeTabulatedCylinder, TypeNURBSSurface, TypeOffsetSurface, TypeBoundedSurface,
		190, 192, 194, 196, 198,
	)

	axisRule       = rule("axis", TypeLine)
	generatrixRule = curveRule.without(TypePoint).named("generatrix")
	directrixRule  = curveRule.without(TypePoint).named("directrix")
	boundaryRule   = rule("boundary", TypeCurveOnSurface)
	vertexRule     = rule("vertex list", TypeVertexList)
	edgeRule       = rule("edge", TypeEdgeList, TypeVertexList)
	loopRule       = rule("loop", TypeLoop)
	faceRule       = rule("face", TypeFace)
	subfigureRule  = rule("subfigure", TypeSubfigureDefinition)
	transformRule  = rule("transform", TypeTransformation)
	colorRule      = rule("color", TypeColorDefinition)
	lineFontRule   = rule("line font", TypeLineFontDefinition)
	levelRule      = rule("level", TypeProperty)
	viewRule       = rule("view", TypeView, TypeAssociativityInstance)
	labelRule      = rule("label display", TypeAssociativityInstance)
	extraRule      = childRule{field: "extra", any: true}
	structureRule  = childRule{field: "structure", any: true}
	memberRule     = childRule{field: "member", any: true}
	operandRule    = rule("operand",
		TypeBooleanTree, TypeSolidInstance, 150, 152, 154, 156, 158, 160, 162, 164, 168, 186,
	)
)
