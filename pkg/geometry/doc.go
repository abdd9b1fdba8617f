// Package geometry provides the vector math and link-handle generation used to
// attach edges to node shapes.
//
// # Link Handles
//
// A [LinkHandle] is a candidate attachment point on a node outline, given
// relative to the node center and carrying an outward unit normal. Handles are
// generated per shape:
//
//	geometry.HandlesForRectangle(-50, -30, 100, 60, geometry.HandlesEdges) // 4 midpoints
//	geometry.HandlesForCircle(20, geometry.HandlesAll)                    // 8 points
//	geometry.HandlesForPolygon(points, geometry.HandlesCorners)           // vertices
//
// Handle ids are reassigned 0..n-1 in generation order.
//
// # Degenerate Input
//
// All functions produce definite output for degenerate input. A zero vector
// normalizes to the zero vector and has angle 0; a handle at the node center
// gets a zero normal.
//
// # Paths
//
// [BasisPath] builds the uniform cubic B-spline used to draw edges and
// supports length and point/tangent queries for marker placement.
package geometry
