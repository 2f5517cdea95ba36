// Package registry deduplicates drawing points within a fixed tolerance.
//
// Clustering is incremental and first-seen-wins: the first point registered
// in a neighbourhood becomes the canonical vertex and never moves. Later
// points within tolerance of it map onto it, even when a later point would
// have made a tighter cluster around a different representative. Matching
// is not transitive, so a chain of near-duplicates can merge into one
// canonical vertex while its two ends are farther apart than tolerance.
package registry

import (
	"github.com/chazu/truss/pkg/geom"
	"github.com/dhconnelly/rtreego"
)

// DefaultTolerance is the distance, in drawing units, below which two
// points are treated as the same location.
const DefaultTolerance = 1e-6

// Registry maps every point it sees to a canonical vertex, and canonical
// vertices to lazily assigned node identities. A Registry belongs to one
// extraction pass and is not safe for concurrent use.
type Registry struct {
	tol      float64
	vertices []geom.Vertex       // canonical vertices in first-seen order
	index    map[geom.Vertex]int // canonical vertex -> position in vertices
	nodeIDs  map[geom.Vertex]int // canonical vertex -> node identity (absent = unassigned)
	nextID   int
	tree     *rtreego.Rtree // nil unless WithSpatialIndex
}

// Option configures a Registry.
type Option func(*Registry)

// WithSpatialIndex backs candidate lookup with an R-tree instead of a
// linear scan. Results are identical; only the cost changes.
func WithSpatialIndex() Option {
	return func(r *Registry) {
		r.tree = rtreego.NewTree(3, 8, 32)
	}
}

// New creates an empty registry with the given tolerance.
func New(tol float64, opts ...Option) *Registry {
	r := &Registry{
		tol:     tol,
		index:   make(map[geom.Vertex]int),
		nodeIDs: make(map[geom.Vertex]int),
		nextID:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tolerance returns the matching distance.
func (r *Registry) Tolerance() float64 {
	return r.tol
}

// Canonicalize returns the earliest registered vertex within tolerance of
// p. If there is none, p is registered and returned as a new canonical
// vertex.
func (r *Registry) Canonicalize(p geom.Vertex) geom.Vertex {
	if _, ok := r.index[p]; ok {
		return p
	}

	var (
		match geom.Vertex
		found bool
	)
	if r.tree != nil {
		match, found = r.searchTree(p)
	} else {
		match, found = r.scan(p)
	}
	if found {
		return match
	}

	r.index[p] = len(r.vertices)
	r.vertices = append(r.vertices, p)
	if r.tree != nil {
		r.tree.Insert(&entry{v: p, seq: r.index[p], bounds: toPoint(p).ToRect(r.tol)})
	}
	return p
}

// scan walks canonical vertices in registration order.
func (r *Registry) scan(p geom.Vertex) (geom.Vertex, bool) {
	for _, c := range r.vertices {
		if p.Distance(c) <= r.tol {
			return c, true
		}
	}
	return geom.Vertex{}, false
}

// searchTree narrows candidates with a box query, then applies the same
// distance test as scan and keeps the earliest registered match.
func (r *Registry) searchTree(p geom.Vertex) (geom.Vertex, bool) {
	best := -1
	var match geom.Vertex
	for _, s := range r.tree.SearchIntersect(toPoint(p).ToRect(r.tol)) {
		e := s.(*entry)
		if p.Distance(e.v) > r.tol {
			continue
		}
		if best < 0 || e.seq < best {
			best = e.seq
			match = e.v
		}
	}
	return match, best >= 0
}

// Contains reports whether v is a canonical vertex.
func (r *Registry) Contains(v geom.Vertex) bool {
	_, ok := r.index[v]
	return ok
}

// Len returns the number of canonical vertices.
func (r *Registry) Len() int {
	return len(r.vertices)
}

// Vertices returns the canonical vertices in first-seen order.
func (r *Registry) Vertices() []geom.Vertex {
	out := make([]geom.Vertex, len(r.vertices))
	copy(out, r.vertices)
	return out
}

// NodeID returns the identity assigned to v, if any.
func (r *Registry) NodeID(v geom.Vertex) (int, bool) {
	id, ok := r.nodeIDs[v]
	return id, ok
}

// AssignNodeID returns v's node identity, assigning the next unused one
// (starting at 1) on first use. Identities are never reassigned.
func (r *Registry) AssignNodeID(v geom.Vertex) int {
	if id, ok := r.nodeIDs[v]; ok {
		return id
	}
	id := r.nextID
	r.nextID++
	r.nodeIDs[v] = id
	return id
}

// ---------------------------------------------------------------------------
// R-tree plumbing
// ---------------------------------------------------------------------------

// entry is a canonical vertex stored in the R-tree. Each entry's box has
// half-width tol, so boxes of two points within tol always overlap.
type entry struct {
	v      geom.Vertex
	seq    int
	bounds rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect {
	return e.bounds
}

func toPoint(v geom.Vertex) rtreego.Point {
	return rtreego.Point{v.X, v.Y, v.Z}
}
