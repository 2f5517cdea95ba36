// Package compile turns the collections of an extraction pass into a
// finished structural graph with integer node and element identities.
package compile

import (
	"context"

	"github.com/chazu/truss/pkg/ctxlog"
	"github.com/chazu/truss/pkg/extract"
	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/registry"
)

// Options configure compilation.
type Options struct {
	// DefaultMaterial is used for members whose color has no material.
	DefaultMaterial graph.Material
}

// DefaultOptions returns EA=15000, EI=5000 as the default material.
func DefaultOptions() Options {
	return Options{DefaultMaterial: graph.Material{EA: 15000, EI: 5000}}
}

// FromPass compiles the result of an extraction pass. The pass warnings come
// first in the structure's warning list.
func FromPass(ctx context.Context, p *extract.Pass, opts Options) *graph.Structure {
	s := Compile(ctx, p.Registry, p.Model, opts)
	s.Warnings = append(append([]string(nil), p.Warnings...), s.Warnings...)
	return s
}

// Compile walks members in order. Each member endpoint without a node
// identity gets the next one from reg, and each member gets the next
// element identity, both starting at 1. Supports, point forces and moments
// attach only to vertices that received a node identity; q-forces attach
// only to a span equal to a member. Everything else is dropped and counted
// in Structure.Dropped.
//
// Node identities live in reg, so a registry should be compiled once.
func Compile(ctx context.Context, reg *registry.Registry, model *graph.Collections, opts Options) *graph.Structure {
	log := ctxlog.FromContext(ctx)
	s := &graph.Structure{}

	warn := func(msg string, args ...any) {
		log.Warn(msg, args...)
		s.Warnings = append(s.Warnings, ctxlog.Sprint(msg, args...))
	}

	emitted := make(map[int]bool)
	nodeID := func(v geom.Vertex) int {
		id, ok := reg.NodeID(v)
		if !ok {
			id = reg.AssignNodeID(v)
		}
		if !emitted[id] {
			emitted[id] = true
			s.Nodes = append(s.Nodes, graph.Node{ID: id, X: v.X, Y: v.Y})
		}
		return id
	}

	// Elements
	elementIDs := make(map[geom.Segment]int)
	warnedColors := make(map[int]bool)
	for seg, m := range model.Members.All() {
		if !seg.IsFlat() {
			warn("segment is not flat, z ignored", "segment", seg)
		}

		mat, ok := model.Materials.Get(m.Color)
		if !ok {
			if !warnedColors[m.Color] {
				warnedColors[m.Color] = true
				warn("no material for color, default assigned",
					"color", m.Color, "EA", opts.DefaultMaterial.EA, "EI", opts.DefaultMaterial.EI)
			}
			mat = opts.DefaultMaterial
		}

		a, b := seg.Endpoints()
		start, end := nodeID(a), nodeID(b)
		id := len(s.Elements) + 1
		s.Elements = append(s.Elements, graph.Element{
			ID:    id,
			Start: start,
			End:   end,
			EA:    mat.EA,
			EI:    mat.EI,
			Color: m.Color,
		})
		elementIDs[seg] = id
	}

	// Supports
	for _, sp := range model.Supports.All() {
		id, ok := reg.NodeID(sp.At)
		if !ok {
			s.Dropped.Supports++
			log.Debug("support dropped", "kind", sp.Kind.String(), "at", sp.At.String())
			continue
		}
		ref := graph.SupportRef{Node: id, Kind: sp.Kind}
		if sp.Kind == graph.SupportRoll {
			ref.Angle = sp.Angle
		}
		s.Supports = append(s.Supports, ref)
	}

	// Loads
	for l := range model.Loads() {
		switch l := l.(type) {
		case graph.PointForce:
			id, ok := reg.NodeID(l.At)
			if !ok {
				s.Dropped.Forces++
				log.Debug("force dropped", "at", l.At.String())
				continue
			}
			s.Loads = append(s.Loads, graph.NodalForce{Node: id, Magnitude: l.Magnitude, Angle: l.Angle})

		case graph.DistributedForce:
			id, ok := elementIDs[l.Span]
			if !ok {
				s.Dropped.QForces++
				log.Debug("q-force dropped", "span", l.Span.String())
				continue
			}
			s.Loads = append(s.Loads, graph.ElementLoad{Element: id, Magnitude: l.Magnitude, Angle: l.Angle})

		case graph.Moment:
			id, ok := reg.NodeID(l.At)
			if !ok {
				s.Dropped.Moments++
				log.Debug("moment dropped", "at", l.At.String())
				continue
			}
			s.Loads = append(s.Loads, graph.NodalMoment{Node: id, Magnitude: l.Magnitude})
		}
	}

	log.Info("compile complete",
		"nodes", len(s.Nodes),
		"elements", len(s.Elements),
		"supports", len(s.Supports),
		"loads", len(s.Loads),
		"dropped", s.Dropped.Total(),
	)
	return s
}
