// Package mcad builds 2D board outlines from lines, arcs and circles and
// turns them into IGES trimmed surfaces.
//
// # Outlines
//
// An [Outline] is a closed chain of [Segment] values stored in
// counterclockwise order, plus a set of cutouts (inner outlines) and drill
// holes (circles). Outlines are built with [Outline.AddSegment] and closed
// implicitly once the chain end returns to its start.
//
// Closed outlines can be combined:
//
//   - [Outline.AddOutline] merges another outline into the boundary.
//   - [Outline.SubOutline] removes another outline from the boundary, or
//     carves it as a cutout when it lies fully inside.
//   - [Outline.AddCutout] and [Outline.AddDrillHole] register holes.
//
// Boundaries may meet at exactly two points or not at all. Anything else
// is rejected and the outline is left unchanged. Every failure is also
// recorded in the outline's error queue ([Outline.Errors]).
//
// # Surfaces
//
// [Outline.GetVerticalSurface] emits one trimmed surface (IGES 144) per
// boundary, cutout and drill hole segment. [Outline.GetSolid] adds the top
// and bottom faces.
package mcad
