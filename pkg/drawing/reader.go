package drawing

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chazu/truss/pkg/geom"
	"golang.org/x/text/encoding/charmap"
)

var binarySentinel = []byte("AutoCAD Binary DXF")

// SyntaxError reports malformed DXF content.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("dxf: line %d: %s", e.Line, e.Msg)
}

// Open reads the DXF file at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return doc, nil
}

// Read parses an ASCII DXF stream. Content that is not valid UTF-8 is
// decoded as Windows-1252, the code page of pre-2007 drawings.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, binarySentinel) {
		return nil, &SyntaxError{Line: 1, Msg: "binary DXF is not supported"}
	}
	if !utf8.Valid(data) {
		data, err = charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding windows-1252: %w", err)
		}
	}

	p := &parser{
		tags: newTagReader(bytes.NewReader(data)),
		doc:  &Document{Blocks: make(map[string]*Block)},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// pair is one group code and its value.
type pair struct {
	code  int
	value string
	line  int
}

type tagReader struct {
	sc     *bufio.Scanner
	line   int
	peeked *pair
}

func newTagReader(r io.Reader) *tagReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &tagReader{sc: sc}
}

func (t *tagReader) scan() (string, bool) {
	if !t.sc.Scan() {
		return "", false
	}
	t.line++
	return strings.TrimRight(t.sc.Text(), "\r"), true
}

func (t *tagReader) next() (pair, error) {
	if t.peeked != nil {
		p := *t.peeked
		t.peeked = nil
		return p, nil
	}
	codeText, ok := t.scan()
	if !ok {
		if err := t.sc.Err(); err != nil {
			return pair{}, err
		}
		return pair{}, io.EOF
	}
	if strings.TrimSpace(codeText) == "" {
		// Trailing blank lines after the last tag.
		return t.next()
	}
	line := t.line
	code, err := strconv.Atoi(strings.TrimSpace(codeText))
	if err != nil {
		return pair{}, &SyntaxError{Line: line, Msg: fmt.Sprintf("invalid group code %q", codeText)}
	}
	value, ok := t.scan()
	if !ok {
		return pair{}, &SyntaxError{Line: line, Msg: fmt.Sprintf("group code %d has no value", code)}
	}
	return pair{code: code, value: value, line: line}, nil
}

func (t *tagReader) peek() (pair, error) {
	if t.peeked != nil {
		return *t.peeked, nil
	}
	p, err := t.next()
	if err != nil {
		return pair{}, err
	}
	t.peeked = &p
	return p, nil
}

// record is a code-0 tag and every tag up to the next code 0.
type record struct {
	typ   string
	line  int
	pairs []pair
	err   error
}

func (t *tagReader) record() (*record, error) {
	p, err := t.next()
	if err != nil {
		return nil, err
	}
	if p.code != 0 {
		return nil, &SyntaxError{Line: p.line, Msg: fmt.Sprintf("expected group code 0, got %d", p.code)}
	}
	rec := &record{typ: strings.TrimSpace(p.value), line: p.line}
	for {
		q, err := t.peek()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if q.code == 0 {
			break
		}
		t.next()
		rec.pairs = append(rec.pairs, q)
	}
	return rec, nil
}

func (r *record) lookup(code int) (pair, bool) {
	for _, p := range r.pairs {
		if p.code == code {
			return p, true
		}
	}
	return pair{}, false
}

func (r *record) str(code int, def string) string {
	if p, ok := r.lookup(code); ok {
		return p.value
	}
	return def
}

func (r *record) float(code int, def float64) float64 {
	p, ok := r.lookup(code)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(p.value), 64)
	if err != nil {
		if r.err == nil {
			r.err = &SyntaxError{Line: p.line, Msg: fmt.Sprintf("group %d: invalid number %q", code, p.value)}
		}
		return def
	}
	return f
}

func (r *record) integer(code int, def int) int {
	p, ok := r.lookup(code)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.value))
	if err != nil {
		if r.err == nil {
			r.err = &SyntaxError{Line: p.line, Msg: fmt.Sprintf("group %d: invalid integer %q", code, p.value)}
		}
		return def
	}
	return n
}

// point reads the coordinate triple starting at xcode (xcode, +10, +20).
func (r *record) point(xcode int) geom.Vertex {
	return geom.V(r.float(xcode, 0), r.float(xcode+10, 0), r.float(xcode+20, 0))
}

func (r *record) props() Props {
	return Props{
		Handle:      r.str(5, ""),
		LayerName:   r.str(8, "0"),
		ColorNumber: r.integer(62, ColorByLayer),
	}
}

type parser struct {
	tags *tagReader
	doc  *Document

	section string
	block   *Block
	open    *Insert // reference collecting ATTRIBs until SEQEND
}

func (p *parser) parse() error {
	for {
		rec, err := p.tags.record()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch rec.typ {
		case "EOF":
			return nil
		case "SECTION":
			p.section = rec.str(2, "")
			continue
		case "ENDSEC":
			p.section = ""
			p.open = nil
			continue
		}

		switch p.section {
		case "BLOCKS":
			err = p.blockRecord(rec)
		case "ENTITIES":
			err = p.entity(rec, &p.doc.Entities)
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) blockRecord(rec *record) error {
	switch rec.typ {
	case "BLOCK":
		p.block = &Block{Name: rec.str(2, ""), Base: rec.point(10)}
		p.open = nil
		return rec.err
	case "ENDBLK":
		if p.block == nil {
			return &SyntaxError{Line: rec.line, Msg: "ENDBLK without BLOCK"}
		}
		p.doc.Blocks[p.block.Name] = p.block
		p.block = nil
		p.open = nil
		return nil
	}
	if p.block == nil {
		return nil
	}
	return p.entity(rec, &p.block.Entities)
}

func (p *parser) entity(rec *record, dst *[]Entity) error {
	switch rec.typ {
	case "ATTRIB":
		if p.open != nil {
			p.open.Attribs = append(p.open.Attribs, Attrib{Tag: rec.str(2, ""), Text: rec.str(1, "")})
		}
		return nil
	case "SEQEND":
		p.open = nil
		return nil
	}

	p.open = nil
	e := decode(rec)
	if rec.err != nil {
		return rec.err
	}
	if e == nil {
		return nil
	}
	if ins, ok := e.(*Insert); ok && rec.integer(66, 0) == 1 {
		p.open = ins
	}
	*dst = append(*dst, e)
	return nil
}

// decode builds the entity for rec, or nil for unsupported types.
func decode(rec *record) Entity {
	switch rec.typ {
	case "LINE":
		return &Line{Props: rec.props(), Start: rec.point(10), End: rec.point(11)}
	case "LWPOLYLINE":
		return decodePolyline(rec)
	case "INSERT":
		return &Insert{
			Props:    rec.props(),
			Name:     rec.str(2, ""),
			At:       rec.point(10),
			XScale:   rec.float(41, 1),
			YScale:   rec.float(42, 1),
			ZScale:   rec.float(43, 1),
			Rotation: rec.float(50, 0),
		}
	case "MTEXT":
		var b strings.Builder
		for _, q := range rec.pairs {
			if q.code == 3 {
				b.WriteString(q.value)
			}
		}
		b.WriteString(rec.str(1, ""))
		return &MText{Props: rec.props(), At: rec.point(10), Text: b.String()}
	}
	return nil
}

func decodePolyline(rec *record) *LWPolyline {
	pl := &LWPolyline{
		Props:  rec.props(),
		Closed: rec.integer(70, 0)&1 == 1,
	}
	z := rec.float(38, 0)
	for _, q := range rec.pairs {
		switch q.code {
		case 10:
			x, err := strconv.ParseFloat(strings.TrimSpace(q.value), 64)
			if err != nil && rec.err == nil {
				rec.err = &SyntaxError{Line: q.line, Msg: fmt.Sprintf("vertex x: invalid number %q", q.value)}
			}
			pl.Points = append(pl.Points, geom.V(x, 0, z))
		case 20:
			if len(pl.Points) == 0 {
				continue
			}
			y, err := strconv.ParseFloat(strings.TrimSpace(q.value), 64)
			if err != nil && rec.err == nil {
				rec.err = &SyntaxError{Line: q.line, Msg: fmt.Sprintf("vertex y: invalid number %q", q.value)}
			}
			pl.Points[len(pl.Points)-1].Y = y
		}
	}
	return pl
}
