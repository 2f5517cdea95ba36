package graph

import (
	"fmt"
	"iter"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/topology"
)

// ---------------------------------------------------------------------------
// Members and materials
// ---------------------------------------------------------------------------

// Member is the property attached to an element segment before compilation.
type Member struct {
	Color int `json:"color"` // material key
}

// Material holds derived stiffness values.
type Material struct {
	EA float64 `json:"ea"` // axial stiffness, E*A
	EI float64 `json:"ei"` // bending stiffness, E*I
}

// ---------------------------------------------------------------------------
// Supports
// ---------------------------------------------------------------------------

// SupportKind enumerates support conditions.
type SupportKind int

const (
	SupportFixed  SupportKind = iota // translation and rotation restrained
	SupportHinged                    // translation restrained
	SupportRoll                      // one translation restrained, along Angle
)

func (k SupportKind) String() string {
	switch k {
	case SupportFixed:
		return "fixed"
	case SupportHinged:
		return "hinged"
	case SupportRoll:
		return "roll"
	default:
		return fmt.Sprintf("SupportKind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k SupportKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Support is a boundary condition at a canonical vertex.
type Support struct {
	At    geom.Vertex
	Kind  SupportKind
	Angle float64 // degrees; used by SupportRoll
}

// SupportKey identifies a support in Collections. One vertex may carry one
// support of each kind.
type SupportKey struct {
	Kind SupportKind
	At   geom.Vertex
}

// Key returns the collection key of s.
func (s Support) Key() SupportKey {
	return SupportKey{Kind: s.Kind, At: s.At}
}

// ---------------------------------------------------------------------------
// Loads
// ---------------------------------------------------------------------------

// Force is a magnitude with a direction angle in degrees.
type Force struct {
	Magnitude float64
	Angle     float64
}

// Load is a load collected from the drawing. The implementations are
// PointForce, DistributedForce and Moment.
type Load interface {
	load() // marker method restricting implementations to this package
}

// PointForce is a force applied at a vertex.
type PointForce struct {
	At geom.Vertex
	Force
}

// DistributedForce is a force per unit length applied along a span
// (a q-force).
type DistributedForce struct {
	Span geom.Segment
	Force
}

// Moment is a signed moment applied at a vertex.
type Moment struct {
	At        geom.Vertex
	Magnitude float64
}

func (PointForce) load()       {}
func (DistributedForce) load() {}
func (Moment) load()           {}

// ---------------------------------------------------------------------------
// Collections
// ---------------------------------------------------------------------------

// Collections is the pre-identity model gathered by one extraction pass.
// Every collection keeps insertion order; a repeated key overwrites the
// earlier value in place.
type Collections struct {
	Members   *topology.Spans[Member]
	Supports  *topology.Collection[SupportKey, Support]
	Forces    *topology.Collection[geom.Vertex, Force]
	QForces   *topology.Spans[Force]
	Moments   *topology.Collection[geom.Vertex, float64]
	Materials *topology.Collection[int, Material] // keyed by color
}

// NewCollections returns empty collections.
func NewCollections() *Collections {
	return &Collections{
		Members:   topology.NewSpans[Member](),
		Supports:  topology.NewCollection[SupportKey, Support](),
		Forces:    topology.NewCollection[geom.Vertex, Force](),
		QForces:   topology.NewSpans[Force](),
		Moments:   topology.NewCollection[geom.Vertex, float64](),
		Materials: topology.NewCollection[int, Material](),
	}
}

// AddSupport stores s under its key.
func (c *Collections) AddSupport(s Support) {
	c.Supports.Put(s.Key(), s)
}

// Loads iterates every load: point forces, then q-forces, then moments,
// each in insertion order.
func (c *Collections) Loads() iter.Seq[Load] {
	return func(yield func(Load) bool) {
		for at, f := range c.Forces.All() {
			if !yield(PointForce{At: at, Force: f}) {
				return
			}
		}
		for span, f := range c.QForces.All() {
			if !yield(DistributedForce{Span: span, Force: f}) {
				return
			}
		}
		for at, m := range c.Moments.All() {
			if !yield(Moment{At: at, Magnitude: m}) {
				return
			}
		}
	}
}
