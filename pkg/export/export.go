// Package export writes a compiled structure back to a DXF drawing so the
// normalized geometry can be checked against the source in any CAD viewer.
package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/truss/pkg/graph"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// defaultGlyphFraction of the larger bounding box side sizes the glyphs
// when Options.GlyphSize is zero.
const defaultGlyphFraction = 0.05

// Options configure the export.
type Options struct {
	// GlyphSize is the edge length of support and force glyphs in drawing
	// units. Zero picks a size from the structure's extent.
	GlyphSize float64
}

// A glyph is a set of open polylines in unit coordinates with the node at
// the origin, pointing down the negative y axis.
type glyph [][]v2.Vec

var (
	fixedGlyph = glyph{
		{{X: -0.5, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: -1}, {X: -0.5, Y: -1}, {X: -0.5, Y: 0}},
	}
	hingedGlyph = glyph{
		{{X: 0, Y: 0}, {X: 0.5, Y: -1}, {X: -0.5, Y: -1}, {X: 0, Y: 0}},
	}
	rollGlyph = glyph{
		{{X: 0, Y: 0}, {X: 0.5, Y: -1}, {X: -0.5, Y: -1}, {X: 0, Y: 0}},
		{{X: -0.5, Y: -1.25}, {X: 0.5, Y: -1.25}},
	}
	// arrowGlyph points along +x with its tip at the origin.
	arrowGlyph = glyph{
		{{X: -2, Y: 0}, {X: 0, Y: 0}},
		{{X: -0.4, Y: 0.25}, {X: 0, Y: 0}, {X: -0.4, Y: -0.25}},
	}
)

// segments returns the number of lines the glyph draws.
func (g glyph) segments() int {
	n := 0
	for _, path := range g {
		if len(path) > 1 {
			n += len(path) - 1
		}
	}
	return n
}

// WriteDXF draws s into a new DXF file at path. Elements become lines between
// their node coordinates. Supports become glyphs under their node (square for
// fixed, triangle for hinged, triangle over a rolling base for roll, turned by
// the roll angle). Point forces become arrows ending at their node and
// pointing along the force angle.
func WriteDXF(path string, s *graph.Structure, opts Options) error {
	if s == nil {
		return errors.New("export: nil structure")
	}
	if opts.GlyphSize < 0 {
		return fmt.Errorf("export: negative glyph size %g", opts.GlyphSize)
	}
	size := opts.GlyphSize
	if size == 0 {
		size = autoGlyphSize(s)
	}

	nodes := make(map[int]v2.Vec, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes[n.ID] = v2.Vec{X: n.X, Y: n.Y}
	}
	at := func(id int) (v2.Vec, error) {
		p, ok := nodes[id]
		if !ok {
			return v2.Vec{}, fmt.Errorf("export: unknown node %d", id)
		}
		return p, nil
	}

	d := render.NewDXF(path)

	for _, e := range s.Elements {
		a, err := at(e.Start)
		if err != nil {
			return fmt.Errorf("element %d: %w", e.ID, err)
		}
		b, err := at(e.End)
		if err != nil {
			return fmt.Errorf("element %d: %w", e.ID, err)
		}
		d.Line(a, b)
	}

	for _, sp := range s.Supports {
		p, err := at(sp.Node)
		if err != nil {
			return fmt.Errorf("support: %w", err)
		}
		draw(d, supportGlyph(sp.Kind), place(p, sp.Angle, size))
	}

	for _, l := range s.Loads {
		f, ok := l.(graph.NodalForce)
		if !ok {
			continue
		}
		p, err := at(f.Node)
		if err != nil {
			return fmt.Errorf("force: %w", err)
		}
		draw(d, arrowGlyph, place(p, f.Angle, size))
	}

	if err := d.Save(); err != nil {
		return fmt.Errorf("export: writing %s: %w", path, err)
	}
	return nil
}

func supportGlyph(k graph.SupportKind) glyph {
	switch k {
	case graph.SupportFixed:
		return fixedGlyph
	case graph.SupportRoll:
		return rollGlyph
	default:
		return hingedGlyph
	}
}

// place maps unit glyph coordinates onto the drawing: scaled by size, turned
// by angle degrees counterclockwise, and moved to p.
func place(p v2.Vec, angle, size float64) sdf.M33 {
	return sdf.Translate2d(p).
		Mul(sdf.Rotate2d(angle * math.Pi / 180)).
		Mul(sdf.Scale2d(v2.Vec{X: size, Y: size}))
}

func draw(d *render.DXF, g glyph, m sdf.M33) {
	for _, path := range g {
		for i := 0; i+1 < len(path); i++ {
			d.Line(m.MulPosition(path[i]), m.MulPosition(path[i+1]))
		}
	}
}

func autoGlyphSize(s *graph.Structure) float64 {
	if len(s.Nodes) == 0 {
		return 1
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range s.Nodes {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
	}
	side := math.Max(maxX-minX, maxY-minY)
	if side == 0 {
		return 1
	}
	return side * defaultGlyphFraction
}
