// Package iges reads, edits and writes IGES (Initial Graphics Exchange
// Specification) models.
//
// A Model owns a flat table of entities. Every entity carries its directory
// entry attributes (form, status, pointers to transforms and colors, label)
// and a typed payload holding the parameter data of its entity type.
//
// # Overview
//
// The package provides:
//   - Entity: one directory entry plus its parameter data payload
//   - Model: the entity table, the global section and the start section
//   - Reader/Writer: the fixed 80 column file format, plain or compressed
//   - Associate: the second loading pass that turns DE sequence numbers into
//     live entity pointers and registers back references
//
// # References
//
// Links between entities are bidirectional. When an entity points to a
// child, the child records the parent in its reference list:
//
//	line, _ := m.NewEntity(iges.TypeLine)
//	cc, _ := m.NewEntity(iges.TypeCompositeCurve)
//	comp, _ := iges.As[*iges.CompositeCurve](cc)
//	err := comp.AddCurve(line) // line.Refs() now contains cc
//
// Deleting an entity from the model unlinks it from every parent and
// releases its own children. Entities which are dependent on a parent and
// lose every parent are orphans and are removed by Model.Cull.
//
// # Loading
//
// Reading is two-pass. The first pass creates entities with raw DE
// sequence numbers; Associate then resolves each number n to the entity at
// table index n>>1 and validates the target type against the field:
//
//	m := iges.New(iges.WithLogger(log))
//	if err := m.ReadFile("board.igs"); err != nil {
//		return err
//	}
//
// ReadFile runs Associate itself. Models built in memory never need it.
package iges
