package iges

import "fmt"

// EntityType is the IGES entity type number.
type EntityType int

const (
	TypeNull                      EntityType = 0
	TypeCircularArc               EntityType = 100
	TypeCompositeCurve            EntityType = 102
	TypeConicArc                  EntityType = 104
	TypeCopiousData               EntityType = 106
	TypePlane                     EntityType = 108
	TypeLine                      EntityType = 110
	TypeParamSplineCurve          EntityType = 112
	TypeParamSplineSurface        EntityType = 114
	TypePoint                     EntityType = 116
	TypeRuledSurface              EntityType = 118
	TypeSurfaceOfRevolution       EntityType = 120
	TypeTabulatedCylinder         EntityType = 122
	TypeTransformation            EntityType = 124
	TypeNURBSCurve                EntityType = 126
	TypeNURBSSurface              EntityType = 128
	TypeConnectPoint              EntityType = 132
	TypeOffsetSurface             EntityType = 140
	TypeBoundary                  EntityType = 141
	TypeCurveOnSurface            EntityType = 142
	TypeBoundedSurface            EntityType = 143
	TypeTrimmedSurface            EntityType = 144
	TypeBooleanTree               EntityType = 180
	TypeLineFontDefinition        EntityType = 304
	TypeSubfigureDefinition       EntityType = 308
	TypeColorDefinition           EntityType = 314
	TypeAssociativityInstance     EntityType = 402
	TypeProperty                  EntityType = 406
	TypeSingularSubfigureInstance EntityType = 408
	TypeView                      EntityType = 410
	TypeSolidInstance             EntityType = 430
	TypeVertexList                EntityType = 502
	TypeEdgeList                  EntityType = 504
	TypeLoop                      EntityType = 508
	TypeFace                      EntityType = 510
	TypeShell                     EntityType = 514
)

// String returns the IGES name of the entity type.
func (t EntityType) String() string {
	if r, ok := typeRules[t]; ok {
		return r.name
	}
	return fmt.Sprintf("Entity %d", int(t))
}

// Dependency is the subordinate entity switch of the status number.
type Dependency int

const (
	Independent Dependency = iota
	PhysicallyDependent
	LogicallyDependent
	BothDependent
)

// Use is the entity use flag of the status number.
type Use int

const (
	UseGeometry Use = iota
	UseAnnotation
	UseDefinition
	UseOther
	UseLogicalPositional
	UseParametric2D
	UseConstruction
)

// Hierarchy is the hierarchy flag of the status number.
type Hierarchy int

const (
	HierarchyGlobalTopDown Hierarchy = iota
	HierarchyGlobalDefer
	HierarchyUseProperty
)

// Status is the decoded DE status number.
type Status struct {
	Blanked    bool
	Dependency Dependency
	Use        Use
	Hierarchy  Hierarchy
}

// String returns the eight digit encoding written to field 9 of the DE.
func (s Status) String() string {
	b := 0
	if s.Blanked {
		b = 1
	}
	return fmt.Sprintf("%02d%02d%02d%02d", b, int(s.Dependency), int(s.Use), int(s.Hierarchy))
}

// Point is a model or parameter space coordinate.
type Point struct {
	X, Y, Z float64
}
