package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks the
// hand-off to a solver or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks hand-off
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Node     int                // node ID, zero if not node-specific
	Element  int                // element ID, zero if not element-specific
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	switch {
	case e.Element != 0:
		return fmt.Sprintf("[%s] element %d: %s", e.Severity, e.Element, e.Message)
	case e.Node != 0:
		return fmt.Sprintf("[%s] node %d: %s", e.Severity, e.Node, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Node    int
	Message string
}

func (w ValidationWarning) String() string {
	if w.Node == 0 {
		return w.Message
	}
	return fmt.Sprintf("node %d: %s", w.Node, w.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks a finished structure. Reference integrity, stiffness and
// element shape problems are errors; missing supports, disconnected parts
// and idle nodes are warnings. It never mutates s.
func Validate(s *Structure) ValidationResult {
	var result ValidationResult

	result.Errors = append(result.Errors, validateReferences(s)...)
	result.Errors = append(result.Errors, validateStiffness(s)...)
	result.Errors = append(result.Errors, validateElementShape(s)...)

	result.Warnings = append(result.Warnings, validateSupported(s)...)
	result.Warnings = append(result.Warnings, validateConnectivity(s)...)
	result.Warnings = append(result.Warnings, validateIdleNodes(s)...)

	return result
}

// validateReferences checks that every node and element ID referenced by an
// element, support or load exists.
func validateReferences(s *Structure) []ValidationError {
	var errs []ValidationError

	nodes := make(map[int]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if nodes[n.ID] {
			errs = append(errs, ValidationError{
				Node:     n.ID,
				Message:  "duplicate node ID",
				Severity: SeverityError,
			})
		}
		nodes[n.ID] = true
	}
	elements := make(map[int]bool, len(s.Elements))
	for _, e := range s.Elements {
		if elements[e.ID] {
			errs = append(errs, ValidationError{
				Element:  e.ID,
				Message:  "duplicate element ID",
				Severity: SeverityError,
			})
		}
		elements[e.ID] = true
	}

	for _, e := range s.Elements {
		for _, end := range []int{e.Start, e.End} {
			if !nodes[end] {
				errs = append(errs, ValidationError{
					Element:  e.ID,
					Message:  fmt.Sprintf("endpoint references non-existent node %d", end),
					Severity: SeverityError,
				})
			}
		}
	}

	for _, sp := range s.Supports {
		if !nodes[sp.Node] {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("%s support references non-existent node %d", sp.Kind, sp.Node),
				Severity: SeverityError,
			})
		}
	}

	for _, l := range s.Loads {
		switch l := l.(type) {
		case NodalForce:
			if !nodes[l.Node] {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("force references non-existent node %d", l.Node),
					Severity: SeverityError,
				})
			}
		case NodalMoment:
			if !nodes[l.Node] {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("moment references non-existent node %d", l.Node),
					Severity: SeverityError,
				})
			}
		case ElementLoad:
			if !elements[l.Element] {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("q-force references non-existent element %d", l.Element),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateStiffness checks that every element has positive EA and EI.
func validateStiffness(s *Structure) []ValidationError {
	var errs []ValidationError
	for _, e := range s.Elements {
		if e.EA <= 0 {
			errs = append(errs, ValidationError{
				Element:  e.ID,
				Message:  fmt.Sprintf("EA is %g, must be positive", e.EA),
				Severity: SeverityError,
			})
		}
		if e.EI <= 0 {
			errs = append(errs, ValidationError{
				Element:  e.ID,
				Message:  fmt.Sprintf("EI is %g, must be positive", e.EI),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// pairKey is an unordered node pair.
type pairKey struct{ a, b int }

func newPairKey(a, b int) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// validateElementShape rejects self-loops and parallel elements joining the
// same two nodes.
func validateElementShape(s *Structure) []ValidationError {
	var errs []ValidationError
	seen := make(map[pairKey]int)

	for _, e := range s.Elements {
		if e.Start == e.End {
			errs = append(errs, ValidationError{
				Element:  e.ID,
				Message:  fmt.Sprintf("starts and ends at node %d", e.Start),
				Severity: SeverityError,
			})
			continue
		}
		k := newPairKey(e.Start, e.End)
		if first, dup := seen[k]; dup {
			errs = append(errs, ValidationError{
				Element:  e.ID,
				Message:  fmt.Sprintf("duplicates element %d between nodes %d and %d", first, k.a, k.b),
				Severity: SeverityError,
			})
			continue
		}
		seen[k] = e.ID
	}
	return errs
}

func validateSupported(s *Structure) []ValidationWarning {
	if len(s.Elements) > 0 && len(s.Supports) == 0 {
		return []ValidationWarning{{Message: "structure has no supports"}}
	}
	return nil
}

// validateConnectivity counts connected components by breadth-first search
// over element adjacency, starting from the first node.
func validateConnectivity(s *Structure) []ValidationWarning {
	if len(s.Nodes) == 0 {
		return nil
	}

	adj := make(map[int][]int)
	for _, e := range s.Elements {
		adj[e.Start] = append(adj[e.Start], e.End)
		adj[e.End] = append(adj[e.End], e.Start)
	}

	visited := make(map[int]bool, len(s.Nodes))
	components := 0
	for _, n := range s.Nodes {
		if visited[n.ID] {
			continue
		}
		components++
		queue := []int{n.ID}
		visited[n.ID] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
	}

	if components > 1 {
		return []ValidationWarning{{
			Message: fmt.Sprintf("structure has %d disconnected parts", components),
		}}
	}
	return nil
}

// validateIdleNodes warns about nodes no element uses.
func validateIdleNodes(s *Structure) []ValidationWarning {
	used := make(map[int]bool)
	for _, e := range s.Elements {
		used[e.Start] = true
		used[e.End] = true
	}
	var warnings []ValidationWarning
	for _, n := range s.Nodes {
		if !used[n.ID] {
			warnings = append(warnings, ValidationWarning{
				Node:    n.ID,
				Message: "not used by any element",
			})
		}
	}
	return warnings
}
