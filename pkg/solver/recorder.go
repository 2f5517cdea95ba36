package solver

import (
	"fmt"
	"io"
	"strconv"
)

// Call is one recorded solver call.
type Call struct {
	Method string
	Args   []Arg
}

// Arg is a named call argument.
type Arg struct {
	Name  string
	Value string
}

func (c Call) String() string {
	s := c.Method + "("
	for i, a := range c.Args {
		if i > 0 {
			s += ", "
		}
		s += a.Name + "=" + a.Value
	}
	return s + ")"
}

// Recorder is a Solver that records every call. Element IDs are assigned
// sequentially from 1.
type Recorder struct {
	Calls    []Call
	elements int
}

var _ Solver = (*Recorder)(nil)

func num(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func (r *Recorder) record(method string, args ...Arg) {
	r.Calls = append(r.Calls, Call{Method: method, Args: args})
}

func (r *Recorder) AddElement(start, end Point, ea, ei float64) (int, error) {
	r.elements++
	r.record("add_element",
		Arg{"location", fmt.Sprintf("[(%s, %s), (%s, %s)]", num(start.X), num(start.Y), num(end.X), num(end.Y))},
		Arg{"EA", num(ea)},
		Arg{"EI", num(ei)},
	)
	return r.elements, nil
}

func (r *Recorder) SupportFixed(node int) error {
	r.record("add_support_fixed", Arg{"node_id", strconv.Itoa(node)})
	return nil
}

func (r *Recorder) SupportHinged(node int) error {
	r.record("add_support_hinged", Arg{"node_id", strconv.Itoa(node)})
	return nil
}

func (r *Recorder) SupportRoll(node int, angle float64) error {
	r.record("add_support_roll", Arg{"node_id", strconv.Itoa(node)}, Arg{"angle", num(angle)})
	return nil
}

func (r *Recorder) PointLoad(node int, fx, rotation float64) error {
	r.record("point_load", Arg{"node_id", strconv.Itoa(node)}, Arg{"Fx", num(fx)}, Arg{"rotation", num(rotation)})
	return nil
}

func (r *Recorder) QLoad(element int, q, rotation float64) error {
	r.record("q_load", Arg{"element_id", strconv.Itoa(element)}, Arg{"q", num(q)}, Arg{"rotation", num(rotation)})
	return nil
}

func (r *Recorder) MomentLoad(node int, ty float64) error {
	r.record("moment_load", Arg{"node_id", strconv.Itoa(node)}, Arg{"Ty", num(ty)})
	return nil
}

// WriteTo writes one call per line.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range r.Calls {
		n, err := fmt.Fprintln(w, c.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
