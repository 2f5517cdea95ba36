// Package drawing reads the entities of an ASCII DXF drawing that the
// structural extraction cares about: lines, lightweight polylines, block
// references with their attributes, and multi-line text.
package drawing

import (
	"iter"

	"github.com/chazu/truss/pkg/geom"
)

// ColorByLayer is the color number of an entity that takes its layer's color.
const ColorByLayer = 256

// colorByBlock marks block content that takes the color of its reference.
const colorByBlock = 0

// Entity is one drawing entity.
type Entity interface {
	Kind() string  // DXF entity type, e.g. "LINE"
	Layer() string // layer name
	Color() int    // ACI color number, ColorByLayer if unset
}

// Props holds the properties shared by every entity.
type Props struct {
	Handle      string
	LayerName   string
	ColorNumber int
}

func (p Props) Layer() string { return p.LayerName }
func (p Props) Color() int    { return p.ColorNumber }

// Line is a straight line between two points.
type Line struct {
	Props
	Start, End geom.Vertex
}

func (*Line) Kind() string { return "LINE" }

// LWPolyline is a lightweight polyline. Points carry the polyline
// elevation as their Z coordinate.
type LWPolyline struct {
	Props
	Points []geom.Vertex
	Closed bool
}

func (*LWPolyline) Kind() string { return "LWPOLYLINE" }

// Segments returns the consecutive point pairs, including the closing
// pair when the polyline is closed.
func (p *LWPolyline) Segments() [][2]geom.Vertex {
	pts := p.Points
	if p.Closed && len(pts) > 0 {
		pts = append(append([]geom.Vertex(nil), pts...), pts[0])
	}
	var out [][2]geom.Vertex
	for i := 0; i+1 < len(pts); i++ {
		out = append(out, [2]geom.Vertex{pts[i], pts[i+1]})
	}
	return out
}

// Attrib is one tagged attribute value of a block reference.
type Attrib struct {
	Tag  string
	Text string
}

// Insert is a block reference.
type Insert struct {
	Props
	Name     string
	At       geom.Vertex
	XScale   float64
	YScale   float64
	ZScale   float64
	Rotation float64 // degrees, counterclockwise
	Attribs  []Attrib
}

func (*Insert) Kind() string { return "INSERT" }

// Attr returns the text of the first attribute with the given tag.
func (i *Insert) Attr(tag string) (string, bool) {
	for _, a := range i.Attribs {
		if a.Tag == tag {
			return a.Text, true
		}
	}
	return "", false
}

// AttrMap returns the attributes keyed by tag; later duplicates win.
func (i *Insert) AttrMap() map[string]string {
	m := make(map[string]string, len(i.Attribs))
	for _, a := range i.Attribs {
		m[a.Tag] = a.Text
	}
	return m
}

// MText is multi-line text. Paragraph breaks stay encoded as `\P`.
type MText struct {
	Props
	At   geom.Vertex
	Text string
}

func (*MText) Kind() string { return "MTEXT" }

// Block is a named block definition.
type Block struct {
	Name     string
	Base     geom.Vertex
	Entities []Entity
}

// Document is a parsed drawing.
type Document struct {
	Entities []Entity // model space, in file order
	Blocks   map[string]*Block
}

// OnLayer iterates model-space entities on the named layer in file order.
func (d *Document) OnLayer(layer string) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for _, e := range d.Entities {
			if e.Layer() != layer {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Layers returns the distinct layer names used in model space, in order of
// first use.
func (d *Document) Layers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range d.Entities {
		if !seen[e.Layer()] {
			seen[e.Layer()] = true
			out = append(out, e.Layer())
		}
	}
	return out
}
