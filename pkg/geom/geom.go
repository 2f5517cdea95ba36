// Package geom defines the vertex and segment primitives shared by every
// stage of the drawing-to-structure pipeline.
package geom

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vertex is an immutable point in drawing space. Two vertices are identical
// only when all three coordinates are exactly equal; tolerance matching is
// the registry's job.
type Vertex struct {
	X, Y, Z float64
}

// V is shorthand for constructing a Vertex.
func V(x, y, z float64) Vertex {
	return Vertex{X: x, Y: y, Z: z}
}

// Vec returns the vertex as an sdfx vector.
func (v Vertex) Vec() v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// FromVec converts an sdfx vector back into a Vertex.
func FromVec(p v3.Vec) Vertex {
	return Vertex{X: p.X, Y: p.Y, Z: p.Z}
}

// Sub returns the vector from o to v.
func (v Vertex) Sub(o Vertex) v3.Vec {
	return v.Vec().Sub(o.Vec())
}

// Distance returns the Euclidean distance between v and o.
func (v Vertex) Distance(o Vertex) float64 {
	return v.Sub(o).Length()
}

// Less orders vertices lexicographically by X, then Y, then Z.
func (v Vertex) Less(o Vertex) bool {
	if v.X != o.X {
		return v.X < o.X
	}
	if v.Y != o.Y {
		return v.Y < o.Y
	}
	return v.Z < o.Z
}

// IsFlat reports whether the vertex lies in the z = 0 plane.
func (v Vertex) IsFlat() bool {
	return v.Z == 0
}

func (v Vertex) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// ---------------------------------------------------------------------------
// Segment
// ---------------------------------------------------------------------------

// Segment is an unordered pair of vertices. NewSegment stores the pair in
// canonical order so NewSegment(a, b) == NewSegment(b, a) and segments can
// be used directly as map keys.
type Segment struct {
	A, B Vertex // A is never greater than B
}

// NewSegment builds the canonical segment between p and q.
func NewSegment(p, q Vertex) Segment {
	if q.Less(p) {
		return Segment{A: q, B: p}
	}
	return Segment{A: p, B: q}
}

// Endpoints returns the two ends in canonical order.
func (s Segment) Endpoints() (Vertex, Vertex) {
	return s.A, s.B
}

// HasEndpoint reports whether v is exactly one of the segment's ends.
func (s Segment) HasEndpoint(v Vertex) bool {
	return v == s.A || v == s.B
}

// Length returns the Euclidean length.
func (s Segment) Length() float64 {
	return s.B.Sub(s.A).Length()
}

// IsDegenerate reports whether both ends coincide.
func (s Segment) IsDegenerate() bool {
	return s.A == s.B
}

// Midpoint returns the point halfway between the ends.
func (s Segment) Midpoint() Vertex {
	return FromVec(s.A.Vec().Add(s.B.Sub(s.A).MulScalar(0.5)))
}

// IsFlat reports whether both ends lie in the z = 0 plane.
func (s Segment) IsFlat() bool {
	return s.A.IsFlat() && s.B.IsFlat()
}

// Contains reports whether c lies on the closed segment. The collinearity
// test compares the magnitude of AB x AC against tol, and the betweenness
// test requires 0 <= AB.AC <= AB.AB. Degenerate segments contain nothing.
func (s Segment) Contains(c Vertex, tol float64) bool {
	if s.IsDegenerate() {
		return false
	}
	ab := s.B.Sub(s.A)
	ac := c.Sub(s.A)

	cross := ab.Cross(ac).Length()
	dot := ab.Dot(ac)

	return math.Abs(cross) <= tol && dot >= 0 && dot <= ab.Dot(ab)
}

// ContainsInterior is Contains excluding the two endpoints themselves.
func (s Segment) ContainsInterior(c Vertex, tol float64) bool {
	return !s.HasEndpoint(c) && s.Contains(c, tol)
}

func (s Segment) String() string {
	return fmt.Sprintf("Segment(%s, %s)", s.A, s.B)
}
