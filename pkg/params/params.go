// Package params parses the numeric annotations written on structural
// drawings: a single "value + unit" token such as "12,345.5 kN", and the
// material parameter blocks ("E:200000\PA:0.01\PI:0.0001") carried by
// multi-line text.
package params

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldSeparator is the paragraph break used by multi-line drawing text.
const FieldSeparator = `\P`

// Keys recognized in a parameter block, in reporting order.
const (
	KeyE = "E" // elasticity modulus
	KeyA = "A" // cross-section area
	KeyI = "I" // moment of inertia
)

var keys = []string{KeyE, KeyA, KeyI}

// ParseError reports malformed or incomplete parameter text.
type ParseError struct {
	Text   string // the text being parsed
	Field  string // offending field or key, empty if the whole text
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("params: %s in %q", e.Reason, e.Text)
	}
	return fmt.Sprintf("params: field %q: %s in %q", e.Field, e.Reason, e.Text)
}

// Quantity is a magnitude with the unit text that followed it.
type Quantity struct {
	Magnitude float64
	Unit      string
}

var valuePattern = regexp.MustCompile(`^([\d\s,.]+)(.*)$`)

// ExtractValue reads a leading run of digits, whitespace, commas and dots
// as a decimal number and returns the rest of the text as the unit.
// Spaces and commas inside the number are ignored, and an empty number is
// read as 0. ok is false when text does not start with such a run.
// A run that is not a valid number (for example "1.2.3") is a *ParseError.
func ExtractValue(text string) (q Quantity, ok bool, err error) {
	m := valuePattern.FindStringSubmatch(text)
	if m == nil {
		return Quantity{}, false, nil
	}

	digits := strings.NewReplacer(" ", "", ",", "").Replace(m[1])
	digits = strings.TrimSpace(digits)

	var magnitude float64
	if digits != "" {
		magnitude, err = strconv.ParseFloat(digits, 64)
		if err != nil {
			return Quantity{}, false, &ParseError{Text: text, Reason: fmt.Sprintf("invalid number %q", m[1])}
		}
	}
	return Quantity{Magnitude: magnitude, Unit: m[2]}, true, nil
}

// Parameters holds the section and material constants of one material.
type Parameters struct {
	E float64 // elasticity modulus
	A float64 // cross-section area
	I float64 // moment of inertia
}

// EA returns the axial stiffness.
func (p Parameters) EA() float64 { return p.E * p.A }

// EI returns the bending stiffness.
func (p Parameters) EI() float64 { return p.E * p.I }

// ExtractParameters parses a parameter block. Fields are separated by
// FieldSeparator; ':' and '=' characters are dropped; each field must
// start with E, A or I followed by a value ExtractValue accepts.
// A key may repeat only with the same value. All three keys must end up
// present and non-zero.
func ExtractParameters(text string) (Parameters, error) {
	cleaned := strings.NewReplacer(":", "", "=", "").Replace(text)

	c := newCollector(text)
	for _, field := range strings.Split(cleaned, FieldSeparator) {
		field = strings.TrimSpace(field)
		if field == "" {
			return Parameters{}, &ParseError{Text: text, Reason: "empty field"}
		}
		if err := c.set(field[:1], field[1:]); err != nil {
			return Parameters{}, err
		}
	}
	return c.result()
}

// ParametersFromAttributes builds Parameters from tagged attribute values,
// as found on a material block reference. Tags other than E, A and I are
// ignored; the same completeness rules as ExtractParameters apply.
func ParametersFromAttributes(attrs map[string]string) (Parameters, error) {
	c := newCollector(fmt.Sprint(attrs))
	for _, k := range keys {
		raw, ok := attrs[k]
		if !ok {
			continue
		}
		if err := c.set(k, raw); err != nil {
			return Parameters{}, err
		}
	}
	return c.result()
}

// collector accumulates key values and enforces the block rules.
type collector struct {
	text   string
	values map[string]float64
}

func newCollector(text string) *collector {
	return &collector{text: text, values: make(map[string]float64, len(keys))}
}

func (c *collector) set(key, raw string) error {
	if key != KeyE && key != KeyA && key != KeyI {
		return &ParseError{Text: c.text, Field: key, Reason: "unrecognized key"}
	}

	q, ok, err := ExtractValue(raw)
	if err != nil {
		return &ParseError{Text: c.text, Field: key, Reason: err.(*ParseError).Reason}
	}
	if !ok {
		return &ParseError{Text: c.text, Field: key, Reason: fmt.Sprintf("no numeric value in %q", raw)}
	}

	if prev, seen := c.values[key]; seen && prev != q.Magnitude {
		return &ParseError{
			Text:   c.text,
			Field:  key,
			Reason: fmt.Sprintf("conflicting values %g and %g", prev, q.Magnitude),
		}
	}
	c.values[key] = q.Magnitude
	return nil
}

func (c *collector) result() (Parameters, error) {
	for _, k := range keys {
		if c.values[k] == 0 {
			return Parameters{}, &ParseError{Text: c.text, Field: k, Reason: "missing or zero"}
		}
	}
	return Parameters{E: c.values[KeyE], A: c.values[KeyA], I: c.values[KeyI]}, nil
}
