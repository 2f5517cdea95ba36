package drawing_test

import (
	"errors"
	"math"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/chazu/truss/pkg/drawing"
	"github.com/chazu/truss/pkg/drawing/drawingtest"
	"github.com/chazu/truss/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// raw joins group-code lines into DXF text.
func raw(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestReadLineDefaults(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "LINE", "5", "1A", "10", "1.5", "20", "2", "30", "0", "11", "4", "21", "6", "31", "0",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := drawing.Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)

	line, ok := doc.Entities[0].(*drawing.Line)
	require.True(t, ok, "got %T", doc.Entities[0])
	assert.Equal(t, "0", line.Layer(), "layer defaults to 0")
	assert.Equal(t, drawing.ColorByLayer, line.Color())
	assert.Equal(t, "1A", line.Handle)
	assert.Equal(t, geom.V(1.5, 2, 0), line.Start)
	assert.Equal(t, geom.V(4, 6, 0), line.End)
}

func TestReadPolyline(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "LWPOLYLINE", "8", "S", "62", "3", "90", "3", "70", "1", "38", "2.5",
		"10", "0", "20", "0",
		"10", "4", "20", "0",
		"10", "4", "20", "3",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := drawing.Read(strings.NewReader(src))
	require.NoError(t, err)

	pl := doc.Entities[0].(*drawing.LWPolyline)
	assert.True(t, pl.Closed)
	assert.Equal(t, 3, pl.Color())
	assert.Equal(t, []geom.Vertex{geom.V(0, 0, 2.5), geom.V(4, 0, 2.5), geom.V(4, 3, 2.5)}, pl.Points)

	segs := pl.Segments()
	require.Len(t, segs, 3)
	assert.Equal(t, [2]geom.Vertex{geom.V(4, 3, 2.5), geom.V(0, 0, 2.5)}, segs[2], "closing segment")

	pl.Closed = false
	assert.Len(t, pl.Segments(), 2)
}

func TestReadInsertAttributes(t *testing.T) {
	b := drawingtest.New().Insert(drawingtest.Ref{
		Layer: "S", Name: "material", Color: 5, X: 1, Y: 2, Rotation: 30,
		Attribs: []drawing.Attrib{{Tag: "E", Text: "200000"}, {Tag: "A", Text: "0.01"}},
	}).Line("S", 0, 0, 0, 1, 0)

	doc := b.Document(t)
	require.Len(t, doc.Entities, 2, "ATTRIB and SEQEND must not become entities")

	ins := doc.Entities[0].(*drawing.Insert)
	assert.Equal(t, "material", ins.Name)
	assert.Equal(t, 5, ins.Color())
	assert.Equal(t, geom.V(1, 2, 0), ins.At)
	assert.Equal(t, 30.0, ins.Rotation)
	assert.Equal(t, 1.0, ins.XScale)
	assert.Equal(t, 1.0, ins.YScale)
	assert.Equal(t, 1.0, ins.ZScale)

	e, ok := ins.Attr("E")
	assert.True(t, ok)
	assert.Equal(t, "200000", e)
	_, ok = ins.Attr("I")
	assert.False(t, ok)
	assert.Equal(t, map[string]string{"E": "200000", "A": "0.01"}, ins.AttrMap())
}

func TestReadMTextChunks(t *testing.T) {
	long := strings.Repeat("x", 300) + `\PA=1`
	doc := drawingtest.New().MText("S", 2, 0, 0, long).Document(t)

	mt := doc.Entities[0].(*drawing.MText)
	assert.Equal(t, long, mt.Text)
	assert.Equal(t, 2, mt.Color())
}

func TestReadSkipsUnknownEntitiesAndSections(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "TABLES",
		"0", "TABLE", "2", "LAYER", "0", "LAYER", "2", "S", "0", "ENDTAB",
		"0", "ENDSEC",
		"0", "SECTION", "2", "ENTITIES",
		"0", "CIRCLE", "8", "S", "10", "0", "20", "0", "40", "1",
		"0", "LINE", "8", "S", "10", "0", "20", "0", "11", "1", "21", "0",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := drawing.Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "LINE", doc.Entities[0].Kind())
}

func TestReadCRLFAndMissingEOF(t *testing.T) {
	src := strings.ReplaceAll(raw(
		"  0", "SECTION", "  2", "ENTITIES",
		"  0", "LINE", "  8", "S", " 10", "0", " 20", "0", " 11", "2", " 21", "0",
		"  0", "ENDSEC",
	), "\n", "\r\n")
	doc, err := drawing.Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, doc.Entities, 1)
	assert.Equal(t, "S", doc.Entities[0].Layer())
}

func TestReadWindows1252(t *testing.T) {
	// 0xB2 is superscript two in Windows-1252 and invalid on its own in UTF-8.
	src := []byte(raw(
		"0", "SECTION", "2", "ENTITIES",
		"0", "MTEXT", "8", "S", "10", "0", "20", "0", "1", "A=0.01m\xb2",
		"0", "ENDSEC", "0", "EOF",
	))
	doc, err := drawing.Read(strings.NewReader(string(src)))
	require.NoError(t, err)
	assert.Equal(t, "A=0.01m²", doc.Entities[0].(*drawing.MText).Text)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"bad group code", raw("0", "SECTION", "x", "ENTITIES"), 3},
		{"bad number", raw("0", "SECTION", "2", "ENTITIES", "0", "LINE", "10", "abc"), 7},
		{"dangling code", raw("0", "SECTION", "2"), 3},
		{"missing code 0", raw("8", "S"), 1},
		{"binary", "AutoCAD Binary DXF\r\n\x1a\x00", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := drawing.Read(strings.NewReader(tt.src))
			var se *drawing.SyntaxError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.line, se.Line)
		})
	}
}

func TestOpen(t *testing.T) {
	path := drawingtest.New().Line("S", 0, 0, 0, 1, 1).WriteFile(t, "one.dxf")
	doc, err := drawing.Open(path)
	require.NoError(t, err)
	assert.Len(t, doc.Entities, 1)

	_, err = drawing.Open(path + ".missing")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOnLayerAndLayers(t *testing.T) {
	doc := drawingtest.New().
		Line("A", 0, 0, 0, 1, 0).
		Line("B", 0, 0, 0, 2, 0).
		Line("A", 0, 0, 0, 3, 0).
		Document(t)

	var xs []float64
	for e := range doc.OnLayer("A") {
		xs = append(xs, e.(*drawing.Line).End.X)
	}
	assert.Equal(t, []float64{1, 3}, xs)
	assert.Equal(t, []string{"A", "B"}, doc.Layers())

	for range doc.OnLayer("missing") {
		t.Fatal("no entity expected")
	}
}

// ---------------------------------------------------------------------------
// Explode
// ---------------------------------------------------------------------------

func near(t *testing.T, want, got geom.Vertex) {
	t.Helper()
	if want.Distance(got) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExplodeTransform(t *testing.T) {
	doc := drawingtest.New().
		Block("arm", 1, 0, func(b *drawingtest.Builder) {
			b.Line("0", 0, 1, 0, 3, 0)
			b.Line("defpoints", 4, 1, 0, 1, 1)
		}).
		Insert(drawingtest.Ref{Layer: "S", Name: "arm", Color: 6, X: 10, Y: 10, Rotation: 90, XScale: 2, YScale: 2}).
		Document(t)

	ins := doc.Entities[0].(*drawing.Insert)
	got := doc.Explode(ins)
	require.Len(t, got, 2)

	first := got[0].(*drawing.Line)
	// Base point maps onto the insertion point; +x in the block becomes +y.
	near(t, geom.V(10, 10, 0), first.Start)
	near(t, geom.V(10, 14, 0), first.End)
	assert.Equal(t, "S", first.Layer(), "layer 0 content inherits the reference layer")
	assert.Equal(t, drawing.ColorByLayer, first.Color())

	second := got[1].(*drawing.Line)
	near(t, geom.V(8, 10, 0), second.End)
	assert.Equal(t, "defpoints", second.Layer())
	assert.Equal(t, 4, second.Color())

	// The block definition itself is untouched.
	orig := doc.Blocks["arm"].Entities[0].(*drawing.Line)
	assert.Equal(t, geom.V(3, 0, 0), orig.End)
}

func TestExplodeNestedInsert(t *testing.T) {
	doc := drawingtest.New().
		Block("load", 0, 0, func(b *drawingtest.Builder) {
			b.Insert(drawingtest.Ref{Layer: "0", Name: "Arrowhead", X: 2, Y: 0, Rotation: 45, XScale: -1})
		}).
		Insert(drawingtest.Ref{Layer: "S", Name: "load", X: 5, Y: 5, Rotation: 180, XScale: 3, YScale: 3}).
		Document(t)

	got := doc.Explode(doc.Entities[0].(*drawing.Insert))
	require.Len(t, got, 1)

	child := got[0].(*drawing.Insert)
	assert.Equal(t, "Arrowhead", child.Name)
	near(t, geom.V(-1, 5, 0), child.At)
	assert.Equal(t, 225.0, child.Rotation)
	assert.Equal(t, -3.0, child.XScale)
	assert.Equal(t, 3.0, child.YScale)
	assert.Equal(t, "S", child.Layer())
}

func TestExplodeByBlockColor(t *testing.T) {
	src := raw(
		"0", "SECTION", "2", "BLOCKS",
		"0", "BLOCK", "2", "b", "10", "0", "20", "0",
		"0", "LINE", "8", "0", "62", "0", "10", "0", "20", "0", "11", "1", "21", "0",
		"0", "ENDBLK",
		"0", "ENDSEC",
		"0", "SECTION", "2", "ENTITIES",
		"0", "INSERT", "8", "S", "62", "7", "2", "b", "10", "0", "20", "0",
		"0", "ENDSEC", "0", "EOF",
	)
	doc, err := drawing.Read(strings.NewReader(src))
	require.NoError(t, err)

	got := doc.Explode(doc.Entities[0].(*drawing.Insert))
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Color())
}

func TestExplodeUnknownBlock(t *testing.T) {
	doc := drawingtest.New().Insert(drawingtest.Ref{Layer: "S", Name: "ghost"}).Document(t)
	assert.Empty(t, doc.Explode(doc.Entities[0].(*drawing.Insert)))
}

func TestExplodePolylineAndText(t *testing.T) {
	doc := drawingtest.New().
		Block("tag", 0, 0, func(b *drawingtest.Builder) {
			b.Polyline("0", 0, false, [2]float64{0, 0}, [2]float64{1, 0})
			b.MText("0", 0, 0, 1, "label")
		}).
		Insert(drawingtest.Ref{Layer: "S", Name: "tag", X: 3, Y: 4}).
		Document(t)

	got := doc.Explode(doc.Entities[0].(*drawing.Insert))
	kinds := make([]string, len(got))
	for i, e := range got {
		kinds[i] = e.Kind()
	}
	assert.True(t, slices.Equal([]string{"LWPOLYLINE", "MTEXT"}, kinds), "kinds = %v", kinds)

	pl := got[0].(*drawing.LWPolyline)
	near(t, geom.V(4, 4, 0), pl.Points[1])
	near(t, geom.V(3, 5, 0), got[1].(*drawing.MText).At)
	assert.False(t, math.IsNaN(pl.Points[0].X))
}
