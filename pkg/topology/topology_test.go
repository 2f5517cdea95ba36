package topology

import (
	"testing"

	"github.com/chazu/truss/pkg/geom"
	"github.com/google/go-cmp/cmp"
)

const tol = 1e-6

type member struct{ color int }

type lineLoad struct {
	magnitude float64
	angle     float64
}

func seg(x1, y1, x2, y2 float64) geom.Segment {
	return geom.NewSegment(geom.V(x1, y1, 0), geom.V(x2, y2, 0))
}

func TestSplitPreservesProperties(t *testing.T) {
	s := NewSpans[member]()
	s.Put(seg(0, 0, 10, 0), member{color: 3})

	if !s.SplitIfInterior(geom.V(5, 0, 0), tol) {
		t.Fatal("expected split at interior point")
	}

	want := []geom.Segment{seg(0, 0, 5, 0), seg(5, 0, 10, 0)}
	if diff := cmp.Diff(want, s.Keys()); diff != "" {
		t.Errorf("segments after split (-want +got):\n%s", diff)
	}
	for _, k := range want {
		if m, _ := s.Get(k); m.color != 3 {
			t.Errorf("%v color = %d, want 3", k, m.color)
		}
	}
	if s.Has(seg(0, 0, 10, 0)) {
		t.Error("original segment should be removed")
	}
}

func TestSplitAtEndpointIsNoop(t *testing.T) {
	s := NewSpans[member]()
	s.Put(seg(0, 0, 10, 0), member{color: 1})

	for _, p := range []geom.Vertex{geom.V(0, 0, 0), geom.V(10, 0, 0)} {
		if s.SplitIfInterior(p, tol) {
			t.Errorf("endpoint %v must not split", p)
		}
	}
	if s.Len() != 1 || !s.Has(seg(0, 0, 10, 0)) {
		t.Errorf("collection changed: %v", s.Keys())
	}
}

func TestSplitOffSegmentIsNoop(t *testing.T) {
	s := NewSpans[member]()
	s.Put(seg(0, 0, 10, 0), member{})

	if s.SplitIfInterior(geom.V(5, 1, 0), tol) {
		t.Error("point off the line must not split")
	}
	if s.SplitIfInterior(geom.V(11, 0, 0), tol) {
		t.Error("point beyond the end must not split")
	}
}

func TestSplitDuplicatesLoadMagnitude(t *testing.T) {
	s := NewSpans[lineLoad]()
	s.Put(seg(0, 0, 0, 8), lineLoad{magnitude: 4, angle: 270})

	s.SplitIfInterior(geom.V(0, 2, 0), tol)

	for k, v := range s.All() {
		if v.magnitude != 4 || v.angle != 270 {
			t.Errorf("%v = %+v, want magnitude 4 angle 270 on both halves", k, v)
		}
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

// Only the first containing segment (in insertion order) is split.
func TestSplitStopsAtFirstMatch(t *testing.T) {
	s := NewSpans[member]()
	s.Put(seg(0, 0, 10, 0), member{color: 1})
	s.Put(seg(2, 0, 8, 0), member{color: 2}) // overlaps the first

	s.SplitIfInterior(geom.V(5, 0, 0), tol)

	want := []geom.Segment{seg(2, 0, 8, 0), seg(0, 0, 5, 0), seg(5, 0, 10, 0)}
	if diff := cmp.Diff(want, s.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

// A half that coincides with an existing segment overwrites its value and
// keeps its position.
func TestSplitOverwritesExistingHalf(t *testing.T) {
	s := NewSpans[member]()
	s.Put(seg(0, 0, 5, 0), member{color: 7})
	s.Put(seg(0, 0, 10, 0), member{color: 1})

	// (0,0)-(5,0) does not contain (5,0) in its interior; the long one does.
	s.SplitIfInterior(geom.V(5, 0, 0), tol)

	want := []geom.Segment{seg(0, 0, 5, 0), seg(5, 0, 10, 0)}
	if diff := cmp.Diff(want, s.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if m, _ := s.Get(seg(0, 0, 5, 0)); m.color != 1 {
		t.Errorf("overlapping half color = %d, want 1 (overwritten)", m.color)
	}
}

func TestRepairAcrossCollections(t *testing.T) {
	members := NewSpans[member]()
	members.Put(seg(0, 0, 10, 0), member{color: 1})
	loads := NewSpans[lineLoad]()
	loads.Put(seg(0, 0, 10, 0), lineLoad{magnitude: 2})

	vertices := []geom.Vertex{
		geom.V(0, 0, 0), geom.V(10, 0, 0), geom.V(4, 0, 0), geom.V(7, 0, 0),
	}
	n := Repair(vertices, tol, members, loads)

	if n != 4 {
		t.Errorf("splits = %d, want 4", n)
	}
	want := []geom.Segment{seg(0, 0, 4, 0), seg(4, 0, 7, 0), seg(7, 0, 10, 0)}
	wantSet := map[geom.Segment]bool{}
	for _, k := range want {
		wantSet[k] = true
	}
	for _, c := range [][]geom.Segment{members.Keys(), loads.Keys()} {
		if len(c) != 3 {
			t.Errorf("got %d segments, want 3: %v", len(c), c)
		}
		for _, k := range c {
			if !wantSet[k] {
				t.Errorf("unexpected segment %v", k)
			}
		}
	}
}

func TestCollectionOrderAndDelete(t *testing.T) {
	c := NewCollection[string, int]()
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Put("a", 10) // in place
	c.Delete("b")
	c.Delete("missing")
	c.Put("b", 20) // moves to the end

	if diff := cmp.Diff([]string{"a", "c", "b"}, c.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("a = %d, want 10", v)
	}
}
