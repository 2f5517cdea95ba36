package graph

import "encoding/json"

// Node is a canonical vertex that received an identity.
type Node struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Element is a structural member between two nodes.
type Element struct {
	ID    int     `json:"id"`
	Start int     `json:"start"` // node ID
	End   int     `json:"end"`   // node ID
	EA    float64 `json:"ea"`
	EI    float64 `json:"ei"`
	Color int     `json:"color"`
}

// SupportRef is a support resolved to a node.
type SupportRef struct {
	Node  int         `json:"node"`
	Kind  SupportKind `json:"kind"`
	Angle float64     `json:"angle,omitempty"`
}

// AppliedLoad is a load resolved to a node or an element. The
// implementations are NodalForce, ElementLoad and NodalMoment.
type AppliedLoad interface {
	appliedLoad() // marker method restricting implementations to this package
}

// NodalForce is a point force on a node.
type NodalForce struct {
	Node      int     `json:"node"`
	Magnitude float64 `json:"magnitude"`
	Angle     float64 `json:"angle"`
}

// ElementLoad is a distributed force along an element.
type ElementLoad struct {
	Element   int     `json:"element"`
	Magnitude float64 `json:"magnitude"`
	Angle     float64 `json:"angle"`
}

// NodalMoment is a moment on a node.
type NodalMoment struct {
	Node      int     `json:"node"`
	Magnitude float64 `json:"magnitude"`
}

func (NodalForce) appliedLoad()  {}
func (ElementLoad) appliedLoad() {}
func (NodalMoment) appliedLoad() {}

// MarshalJSON adds a "kind" discriminator.
func (l NodalForce) MarshalJSON() ([]byte, error) {
	type plain NodalForce
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{"force", plain(l)})
}

// MarshalJSON adds a "kind" discriminator.
func (l ElementLoad) MarshalJSON() ([]byte, error) {
	type plain ElementLoad
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{"q-force", plain(l)})
}

// MarshalJSON adds a "kind" discriminator.
func (l NodalMoment) MarshalJSON() ([]byte, error) {
	type plain NodalMoment
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{"moment", plain(l)})
}

// Drops counts annotations that did not attach to the structure.
type Drops struct {
	Supports int `json:"supports"`
	Forces   int `json:"forces"`
	QForces  int `json:"q_forces"`
	Moments  int `json:"moments"`
}

// Total returns the sum of all drop counts.
func (d Drops) Total() int {
	return d.Supports + d.Forces + d.QForces + d.Moments
}

// Structure is the finished structural graph.
type Structure struct {
	Nodes    []Node        `json:"nodes"`
	Elements []Element     `json:"elements"`
	Supports []SupportRef  `json:"supports"`
	Loads    []AppliedLoad `json:"loads"`
	Warnings []string      `json:"warnings,omitempty"`
	Dropped  Drops         `json:"dropped"`
}

// Node returns the node with the given ID.
func (s *Structure) Node(id int) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Element returns the element with the given ID.
func (s *Structure) Element(id int) (Element, bool) {
	for _, e := range s.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}
