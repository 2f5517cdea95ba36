// Package drawingtest builds small ASCII DXF drawings for tests.
package drawingtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/chazu/truss/pkg/drawing"
)

// Ref describes a block reference. Zero scales are written as the DXF
// default of 1; a zero Color leaves the color BYLAYER.
type Ref struct {
	Layer    string
	Name     string
	Color    int
	X, Y     float64
	Rotation float64
	XScale   float64
	YScale   float64
	Attribs  []drawing.Attrib
}

// Builder accumulates block definitions and model-space entities.
type Builder struct {
	blocks   strings.Builder
	entities strings.Builder
	cur      *strings.Builder
}

// New returns an empty builder writing to model space.
func New() *Builder {
	b := &Builder{}
	b.cur = &b.entities
	return b
}

func (b *Builder) pair(code int, value any) {
	var s string
	switch v := value.(type) {
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		s = fmt.Sprint(v)
	}
	fmt.Fprintf(b.cur, "%d\n%s\n", code, s)
}

func (b *Builder) common(kind, layer string, color int) {
	b.pair(0, kind)
	b.pair(8, layer)
	if color != 0 {
		b.pair(62, color)
	}
}

// Line adds a LINE.
func (b *Builder) Line(layer string, color int, x1, y1, x2, y2 float64) *Builder {
	b.common("LINE", layer, color)
	b.pair(10, x1)
	b.pair(20, y1)
	b.pair(30, 0.0)
	b.pair(11, x2)
	b.pair(21, y2)
	b.pair(31, 0.0)
	return b
}

// Polyline adds an LWPOLYLINE through pts.
func (b *Builder) Polyline(layer string, color int, closed bool, pts ...[2]float64) *Builder {
	b.common("LWPOLYLINE", layer, color)
	b.pair(90, len(pts))
	flags := 0
	if closed {
		flags = 1
	}
	b.pair(70, flags)
	for _, p := range pts {
		b.pair(10, p[0])
		b.pair(20, p[1])
	}
	return b
}

// Insert adds an INSERT followed by its ATTRIBs and SEQEND.
func (b *Builder) Insert(r Ref) *Builder {
	b.common("INSERT", r.Layer, r.Color)
	if len(r.Attribs) > 0 {
		b.pair(66, 1)
	}
	b.pair(2, r.Name)
	b.pair(10, r.X)
	b.pair(20, r.Y)
	b.pair(30, 0.0)
	if r.XScale != 0 {
		b.pair(41, r.XScale)
	}
	if r.YScale != 0 {
		b.pair(42, r.YScale)
	}
	if r.Rotation != 0 {
		b.pair(50, r.Rotation)
	}
	if len(r.Attribs) == 0 {
		return b
	}
	for _, a := range r.Attribs {
		b.common("ATTRIB", r.Layer, r.Color)
		b.pair(10, r.X)
		b.pair(20, r.Y)
		b.pair(30, 0.0)
		b.pair(1, a.Text)
		b.pair(2, a.Tag)
	}
	b.pair(0, "SEQEND")
	b.pair(8, r.Layer)
	return b
}

// MText adds an MTEXT. Text longer than 250 characters is split into
// continuation chunks the way CAD programs write it.
func (b *Builder) MText(layer string, color int, x, y float64, text string) *Builder {
	b.common("MTEXT", layer, color)
	b.pair(10, x)
	b.pair(20, y)
	b.pair(30, 0.0)
	for len(text) > 250 {
		b.pair(3, text[:250])
		text = text[250:]
	}
	b.pair(1, text)
	return b
}

// Block defines a block whose content is added by fill.
func (b *Builder) Block(name string, baseX, baseY float64, fill func(*Builder)) *Builder {
	prev := b.cur
	b.cur = &b.blocks
	b.pair(0, "BLOCK")
	b.pair(8, "0")
	b.pair(2, name)
	b.pair(70, 0)
	b.pair(10, baseX)
	b.pair(20, baseY)
	b.pair(30, 0.0)
	fill(b)
	b.pair(0, "ENDBLK")
	b.pair(8, "0")
	b.cur = prev
	return b
}

// String renders the drawing.
func (b *Builder) String() string {
	var out strings.Builder
	out.WriteString("0\nSECTION\n2\nHEADER\n9\n$ACADVER\n1\nAC1015\n0\nENDSEC\n")
	out.WriteString("0\nSECTION\n2\nBLOCKS\n")
	out.WriteString(b.blocks.String())
	out.WriteString("0\nENDSEC\n")
	out.WriteString("0\nSECTION\n2\nENTITIES\n")
	out.WriteString(b.entities.String())
	out.WriteString("0\nENDSEC\n0\nEOF\n")
	return out.String()
}

// WriteFile writes the drawing to name inside a fresh temporary directory
// and returns the path.
func (b *Builder) WriteFile(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// Document parses the drawing.
func (b *Builder) Document(t testing.TB) *drawing.Document {
	t.Helper()
	doc, err := drawing.Read(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parsing generated drawing: %v", err)
	}
	return doc
}
