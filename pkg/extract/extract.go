// Package extract runs one extraction pass over a drawing layer: it
// canonicalizes every point through a vertex registry, gathers members,
// supports, loads and materials into ordered collections, and finally
// repairs topology so that every canonical vertex lying inside a member or
// q-force span becomes a shared endpoint.
//
// A Pass owns all of its state. Passes over different layers or drawings
// never share vertices or identities.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chazu/truss/pkg/ctxlog"
	"github.com/chazu/truss/pkg/drawing"
	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/params"
	"github.com/chazu/truss/pkg/registry"
	"github.com/chazu/truss/pkg/topology"
	"github.com/google/uuid"
)

// Attribute tags that mark a block reference as a load.
const (
	TagForce  = "force"
	TagQForce = "q-force"
	TagMoment = "moment"
)

var (
	// ErrMaterial wraps parameter errors on material annotations.
	ErrMaterial = errors.New("check material assignment")
	// ErrLoads wraps parameter errors on load annotations.
	ErrLoads = errors.New("check loads assignment")
)

// BlockNames are the block and layer names the drawing convention uses.
type BlockNames struct {
	SupportFixed   string
	SupportHinged  string
	SupportRoll    string
	Material       string
	Arrow          string // marks point-force position and q-force direction
	Arrowhead      string // its x-scale sign gives the moment direction
	DefpointsLayer string // layer of the q-force span line, matched case-insensitively
}

// DefaultBlockNames returns the standard convention.
func DefaultBlockNames() BlockNames {
	return BlockNames{
		SupportFixed:   "support_fixed",
		SupportHinged:  "support_hinged",
		SupportRoll:    "support_roll",
		Material:       "material",
		Arrow:          "Arrow",
		Arrowhead:      "Arrowhead",
		DefpointsLayer: "defpoints",
	}
}

// Options configure a pass.
type Options struct {
	Layer        string  // analysis layer, required
	Tolerance    float64 // registry tolerance; registry.DefaultTolerance if zero
	SpatialIndex bool    // back the registry with an R-tree
	Blocks       BlockNames
}

func (o Options) withDefaults() Options {
	if o.Tolerance == 0 {
		o.Tolerance = registry.DefaultTolerance
	}
	def := DefaultBlockNames()
	fill := func(s *string, d string) {
		if *s == "" {
			*s = d
		}
	}
	fill(&o.Blocks.SupportFixed, def.SupportFixed)
	fill(&o.Blocks.SupportHinged, def.SupportHinged)
	fill(&o.Blocks.SupportRoll, def.SupportRoll)
	fill(&o.Blocks.Material, def.Material)
	fill(&o.Blocks.Arrow, def.Arrow)
	fill(&o.Blocks.Arrowhead, def.Arrowhead)
	fill(&o.Blocks.DefpointsLayer, def.DefpointsLayer)
	return o
}

// Pass is the state of one extraction over one layer.
type Pass struct {
	ID       uuid.UUID
	Layer    string
	Registry *registry.Registry
	Model    *graph.Collections
	Warnings []string
	Splits   int // topology repairs performed

	opts Options
	doc  *drawing.Document
	log  *slog.Logger
}

// Run extracts the structural model from the entities of doc on
// opts.Layer, in file order, then repairs topology.
func Run(ctx context.Context, doc *drawing.Document, opts Options) (*Pass, error) {
	if opts.Layer == "" {
		return nil, errors.New("extract: layer is required")
	}
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("extract: negative tolerance %g", opts.Tolerance)
	}
	opts = opts.withDefaults()

	var regOpts []registry.Option
	if opts.SpatialIndex {
		regOpts = append(regOpts, registry.WithSpatialIndex())
	}

	p := &Pass{
		ID:       uuid.New(),
		Layer:    opts.Layer,
		Registry: registry.New(opts.Tolerance, regOpts...),
		Model:    graph.NewCollections(),
		opts:     opts,
		doc:      doc,
	}
	p.log = ctxlog.FromContext(ctx).With("pass", p.ID.String(), "layer", opts.Layer)
	p.log.Debug("extraction started", "tolerance", opts.Tolerance, "spatial_index", opts.SpatialIndex)

	entities := 0
	for e := range doc.OnLayer(opts.Layer) {
		entities++
		if err := p.add(e); err != nil {
			return nil, err
		}
	}
	if entities == 0 {
		p.warn("layer has no entities")
	}

	p.Splits = topology.Repair(p.Registry.Vertices(), opts.Tolerance, p.Model.Members, p.Model.QForces)

	p.log.Info("extraction complete",
		"entities", entities,
		"vertices", p.Registry.Len(),
		"members", p.Model.Members.Len(),
		"supports", p.Model.Supports.Len(),
		"forces", p.Model.Forces.Len(),
		"q_forces", p.Model.QForces.Len(),
		"moments", p.Model.Moments.Len(),
		"materials", p.Model.Materials.Len(),
		"splits", p.Splits,
	)
	return p, nil
}

func (p *Pass) warn(msg string, args ...any) {
	p.log.Warn(msg, args...)
	p.Warnings = append(p.Warnings, ctxlog.Sprint(msg, args...))
}

func (p *Pass) canon(v geom.Vertex) geom.Vertex {
	return p.Registry.Canonicalize(v)
}

func (p *Pass) add(e drawing.Entity) error {
	switch e := e.(type) {
	case *drawing.Line:
		p.addMember(p.canon(e.Start), p.canon(e.End), e.Color(), e.Handle)

	case *drawing.LWPolyline:
		pts := make([]geom.Vertex, 0, len(e.Points)+1)
		for _, v := range e.Points {
			pts = append(pts, p.canon(v))
		}
		if e.Closed && len(pts) > 0 {
			pts = append(pts, pts[0])
		}
		for i := 0; i+1 < len(pts); i++ {
			p.addMember(pts[i], pts[i+1], e.Color(), e.Handle)
		}

	case *drawing.Insert:
		return p.addInsert(e)

	case *drawing.MText:
		prm, err := params.ExtractParameters(e.Text)
		if err != nil {
			return fmt.Errorf("%w: text %s: %w", ErrMaterial, describe(e.Handle), err)
		}
		p.Model.Materials.Put(e.Color(), graph.Material{EA: prm.EA(), EI: prm.EI()})
	}
	return nil
}

func (p *Pass) addMember(a, b geom.Vertex, color int, handle string) {
	seg := geom.NewSegment(a, b)
	if seg.IsDegenerate() {
		p.warn("zero-length member dropped", "entity", describe(handle), "at", a)
		return
	}
	p.Model.Members.Put(seg, graph.Member{Color: color})
}

func (p *Pass) addInsert(ins *drawing.Insert) error {
	b := p.opts.Blocks
	switch ins.Name {
	case b.SupportFixed:
		p.Model.AddSupport(graph.Support{At: p.canon(ins.At), Kind: graph.SupportFixed, Angle: ins.Rotation})
	case b.SupportHinged:
		p.Model.AddSupport(graph.Support{At: p.canon(ins.At), Kind: graph.SupportHinged, Angle: ins.Rotation})
	case b.SupportRoll:
		p.Model.AddSupport(graph.Support{At: p.canon(ins.At), Kind: graph.SupportRoll, Angle: ins.Rotation})

	case b.Material:
		prm, err := params.ParametersFromAttributes(ins.AttrMap())
		if err != nil {
			return fmt.Errorf("%w: block %s: %w", ErrMaterial, describe(ins.Handle), err)
		}
		p.Model.Materials.Put(ins.Color(), graph.Material{EA: prm.EA(), EI: prm.EI()})

	default:
		for _, a := range ins.Attribs {
			if err := p.addLoad(ins, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pass) addLoad(ins *drawing.Insert, a drawing.Attrib) error {
	switch a.Tag {
	case TagForce, TagQForce, TagMoment:
	default:
		return nil
	}

	q, ok, err := params.ExtractValue(a.Text)
	if err != nil {
		return fmt.Errorf("%w: block %s: %w", ErrLoads, describe(ins.Handle), err)
	}
	if !ok {
		return fmt.Errorf("%w: block %s: %w", ErrLoads, describe(ins.Handle),
			&params.ParseError{Text: a.Text, Field: a.Tag, Reason: "no numeric value"})
	}

	virtual := p.doc.Explode(ins)
	switch a.Tag {
	case TagForce:
		p.addForces(ins, virtual, q.Magnitude)
	case TagQForce:
		p.addQForce(ins, virtual, q.Magnitude)
	case TagMoment:
		p.addMoment(ins, virtual, q.Magnitude)
	}
	return nil
}

// addForces places one point force at every Arrow inside the block. The
// force angle is the arrow rotation negated.
func (p *Pass) addForces(ins *drawing.Insert, virtual []drawing.Entity, magnitude float64) {
	found := false
	for _, v := range virtual {
		arrow, ok := v.(*drawing.Insert)
		if !ok || arrow.Name != p.opts.Blocks.Arrow {
			continue
		}
		found = true
		p.Model.Forces.Put(p.canon(arrow.At), graph.Force{Magnitude: magnitude, Angle: -arrow.Rotation})
	}
	if !found {
		p.warn("force block has no arrow, dropped", "block", ins.Name, "entity", describe(ins.Handle))
	}
}

// addQForce takes the direction from the Arrow rotation and the span from
// the line on the defpoints layer. When several are present the last wins.
func (p *Pass) addQForce(ins *drawing.Insert, virtual []drawing.Entity, magnitude float64) {
	var (
		angle      float64
		start, end geom.Vertex
		hasSpan    bool
	)
	for _, v := range virtual {
		switch v := v.(type) {
		case *drawing.Insert:
			if v.Name == p.opts.Blocks.Arrow {
				angle = v.Rotation
			}
		case *drawing.Line:
			if strings.EqualFold(v.Layer(), p.opts.Blocks.DefpointsLayer) {
				start, end = p.canon(v.Start), p.canon(v.End)
				hasSpan = true
			}
		}
	}
	if !hasSpan {
		p.warn("q-force block has no span line, dropped", "block", ins.Name, "entity", describe(ins.Handle))
		return
	}
	span := geom.NewSegment(start, end)
	if span.IsDegenerate() {
		p.warn("zero-length q-force span dropped", "block", ins.Name, "entity", describe(ins.Handle))
		return
	}
	p.Model.QForces.Put(span, graph.Force{Magnitude: magnitude, Angle: angle})
}

// addMoment signs the magnitude by the Arrowhead x-scale: mirrored means
// clockwise.
func (p *Pass) addMoment(ins *drawing.Insert, virtual []drawing.Entity, magnitude float64) {
	sign, found := 1.0, false
	for _, v := range virtual {
		head, ok := v.(*drawing.Insert)
		if !ok || head.Name != p.opts.Blocks.Arrowhead {
			continue
		}
		found = true
		if head.XScale >= 0 {
			sign = 1
		} else {
			sign = -1
		}
	}
	if !found {
		p.warn("moment block has no arrowhead, assuming positive", "block", ins.Name, "entity", describe(ins.Handle))
	}
	p.Model.Moments.Put(p.canon(ins.At), sign*magnitude)
}

func describe(handle string) string {
	if handle == "" {
		return "(no handle)"
	}
	return "#" + handle
}
