package drawing

import (
	"math"

	"github.com/chazu/truss/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Explode returns the content of the block referenced by ins, transformed
// into drawing space. Only the first level is expanded: nested references
// come back as *Insert with their placement composed with ins. Content on
// layer "0" moves to the reference's layer, and BYBLOCK colors take the
// reference's color. An unknown block yields nothing.
func (d *Document) Explode(ins *Insert) []Entity {
	blk, ok := d.Blocks[ins.Name]
	if !ok {
		return nil
	}

	x := newPlacement(ins, blk.Base)
	out := make([]Entity, 0, len(blk.Entities))
	for _, e := range blk.Entities {
		switch e := e.(type) {
		case *Line:
			out = append(out, &Line{
				Props: inherit(e.Props, ins.Props),
				Start: x.apply(e.Start),
				End:   x.apply(e.End),
			})
		case *LWPolyline:
			pts := make([]geom.Vertex, len(e.Points))
			for i, p := range e.Points {
				pts[i] = x.apply(p)
			}
			out = append(out, &LWPolyline{Props: inherit(e.Props, ins.Props), Points: pts, Closed: e.Closed})
		case *MText:
			out = append(out, &MText{Props: inherit(e.Props, ins.Props), At: x.apply(e.At), Text: e.Text})
		case *Insert:
			child := *e
			child.Props = inherit(e.Props, ins.Props)
			child.At = x.apply(e.At)
			child.Rotation = ins.Rotation + e.Rotation
			child.XScale = ins.XScale * e.XScale
			child.YScale = ins.YScale * e.YScale
			child.ZScale = ins.ZScale * e.ZScale
			child.Attribs = append([]Attrib(nil), e.Attribs...)
			out = append(out, &child)
		}
	}
	return out
}

func inherit(own, ref Props) Props {
	if own.LayerName == "0" {
		own.LayerName = ref.LayerName
	}
	if own.ColorNumber == colorByBlock {
		own.ColorNumber = ref.ColorNumber
	}
	return own
}

// placement maps block coordinates into drawing space.
type placement struct {
	m      sdf.M33
	baseZ  float64
	z      float64
	zScale float64
}

// newPlacement builds translate(insert) * rotate * scale * translate(-base)
// in the XY plane; Z is offset and scaled separately.
func newPlacement(ins *Insert, base geom.Vertex) placement {
	m := sdf.Translate2d(v2.Vec{X: ins.At.X, Y: ins.At.Y}).
		Mul(sdf.Rotate2d(ins.Rotation * math.Pi / 180)).
		Mul(sdf.Scale2d(v2.Vec{X: ins.XScale, Y: ins.YScale})).
		Mul(sdf.Translate2d(v2.Vec{X: -base.X, Y: -base.Y}))
	return placement{m: m, baseZ: base.Z, z: ins.At.Z, zScale: ins.ZScale}
}

func (p placement) apply(v geom.Vertex) geom.Vertex {
	q := p.m.MulPosition(v2.Vec{X: v.X, Y: v.Y})
	return geom.V(q.X, q.Y, p.z+(v.Z-p.baseZ)*p.zScale)
}
