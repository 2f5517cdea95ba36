// Package topology repairs segment-keyed collections so that every
// canonical vertex lying inside a segment becomes a shared endpoint.
//
// Typical case: a support or a load is drawn in the middle of a beam that
// was drawn as one line. Splitting the beam there gives the support a node
// to attach to.
package topology

import "github.com/chazu/truss/pkg/geom"

// Spans is a collection keyed by segment, such as structural members or
// distributed-load spans.
type Spans[V any] struct {
	Collection[geom.Segment, V]
}

// NewSpans returns an empty segment-keyed collection.
func NewSpans[V any]() *Spans[V] {
	return &Spans[V]{Collection: Collection[geom.Segment, V]{values: make(map[geom.Segment]V)}}
}

// SplitIfInterior looks for the first segment in s (in insertion order)
// that contains v strictly between its endpoints. That segment is replaced
// by the two halves meeting at v, both carrying the original value
// unchanged. For load spans this means the magnitude is duplicated onto
// both halves, not prorated. Returns false and leaves s untouched when no
// segment contains v.
func (s *Spans[V]) SplitIfInterior(v geom.Vertex, tol float64) bool {
	var (
		found geom.Segment
		ok    bool
	)
	for seg := range s.All() {
		if seg.ContainsInterior(v, tol) {
			found, ok = seg, true
			break
		}
	}
	if !ok {
		return false
	}

	props, _ := s.Get(found)
	start, end := found.Endpoints()
	s.Delete(found)
	s.Put(geom.NewSegment(start, v), props)
	s.Put(geom.NewSegment(v, end), props)
	return true
}

// Splitter is implemented by *Spans of any value type.
type Splitter interface {
	SplitIfInterior(v geom.Vertex, tol float64) bool
}

// Repair runs SplitIfInterior for every vertex, in order, against each
// collection in turn, and returns the total number of splits.
func Repair(vertices []geom.Vertex, tol float64, collections ...Splitter) int {
	splits := 0
	for _, v := range vertices {
		for _, c := range collections {
			if c.SplitIfInterior(v, tol) {
				splits++
			}
		}
	}
	return splits
}
