// Package solver hands a finished structural graph to a finite-element
// solver. The Solver interface mirrors the calls of a frame-analysis
// library; assembling and solving the model is the implementation's job.
package solver

import (
	"fmt"

	"github.com/chazu/truss/pkg/graph"
)

// Point is a 2-D location.
type Point struct{ X, Y float64 }

// Solver is the model-building surface of a frame-analysis library.
// Implementations must number nodes in order of first use by AddElement,
// starting at 1, which is how graph.Structure numbers them.
type Solver interface {
	// AddElement adds a member and returns the solver's element ID.
	AddElement(start, end Point, ea, ei float64) (int, error)

	// Supports
	SupportFixed(node int) error
	SupportHinged(node int) error
	SupportRoll(node int, angle float64) error

	// Loads
	PointLoad(node int, fx, rotation float64) error
	QLoad(element int, q, rotation float64) error
	MomentLoad(node int, ty float64) error
}

// Submit adds the elements, supports and loads of s to sv in that order.
// Element IDs returned by the solver are used for distributed loads.
func Submit(s *graph.Structure, sv Solver) error {
	nodes := make(map[int]graph.Node, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes[n.ID] = n
	}
	point := func(id int) (Point, error) {
		n, ok := nodes[id]
		if !ok {
			return Point{}, fmt.Errorf("unknown node %d", id)
		}
		return Point{X: n.X, Y: n.Y}, nil
	}

	elements := make(map[int]int, len(s.Elements))
	for _, e := range s.Elements {
		start, err := point(e.Start)
		if err != nil {
			return fmt.Errorf("solver: element %d: %w", e.ID, err)
		}
		end, err := point(e.End)
		if err != nil {
			return fmt.Errorf("solver: element %d: %w", e.ID, err)
		}
		id, err := sv.AddElement(start, end, e.EA, e.EI)
		if err != nil {
			return fmt.Errorf("solver: adding element %d: %w", e.ID, err)
		}
		elements[e.ID] = id
	}

	for _, sp := range s.Supports {
		var err error
		switch sp.Kind {
		case graph.SupportFixed:
			err = sv.SupportFixed(sp.Node)
		case graph.SupportHinged:
			err = sv.SupportHinged(sp.Node)
		case graph.SupportRoll:
			err = sv.SupportRoll(sp.Node, sp.Angle)
		default:
			err = fmt.Errorf("unknown support kind %v", sp.Kind)
		}
		if err != nil {
			return fmt.Errorf("solver: %s support at node %d: %w", sp.Kind, sp.Node, err)
		}
	}

	for _, l := range s.Loads {
		var err error
		switch l := l.(type) {
		case graph.NodalForce:
			err = sv.PointLoad(l.Node, l.Magnitude, l.Angle)
		case graph.ElementLoad:
			id, ok := elements[l.Element]
			if !ok {
				err = fmt.Errorf("unknown element %d", l.Element)
				break
			}
			err = sv.QLoad(id, l.Magnitude, l.Angle)
		case graph.NodalMoment:
			err = sv.MomentLoad(l.Node, l.Magnitude)
		default:
			err = fmt.Errorf("unknown load %T", l)
		}
		if err != nil {
			return fmt.Errorf("solver: load: %w", err)
		}
	}
	return nil
}
