package graph

import (
	"fmt"
	"slices"
)

// Graph is the serialized merge tree: critical points and the arcs joining
// them, both in extraction order.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is a critical point. ID is its position in Nodes.
type Node struct {
	ID     int     `json:"id"`
	Type   int     `json:"type"`   // Classification code assigned by the toolkit
	Scalar float64 `json:"scalar"` // Scalar field value at the point
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
}

// Link is a directed arc between two node IDs.
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int { return len(g.Links) }

// Node returns the node with the given ID.
func (g *Graph) Node(id int) (Node, bool) {
	if id < 0 || id >= len(g.Nodes) {
		return Node{}, false
	}
	return g.Nodes[id], true
}

// Targets returns the targets of links leaving id, in link order.
func (g *Graph) Targets(id int) []int {
	var out []int
	for _, l := range g.Links {
		if l.Source == id {
			out = append(out, l.Target)
		}
	}
	return out
}

// OutDegree returns the number of links leaving id.
func (g *Graph) OutDegree(id int) int { return len(g.Targets(id)) }

// InDegree returns the number of links entering id.
func (g *Graph) InDegree(id int) int {
	n := 0
	for _, l := range g.Links {
		if l.Target == id {
			n++
		}
	}
	return n
}

// TypeCounts returns how many nodes carry each classification code.
func (g *Graph) TypeCounts() map[int]int {
	counts := make(map[int]int)
	for _, n := range g.Nodes {
		counts[n.Type]++
	}
	return counts
}

// Types returns the distinct classification codes in ascending order.
func (g *Graph) Types() []int {
	var types []int
	for t := range g.TypeCounts() {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Validate checks that node IDs equal their positions and that every link
// joins two distinct existing nodes.
func (g *Graph) Validate() error {
	for i, n := range g.Nodes {
		if n.ID != i {
			return fmt.Errorf("node at position %d has id %d", i, n.ID)
		}
	}
	for i, l := range g.Links {
		if _, ok := g.Node(l.Source); !ok {
			return fmt.Errorf("link %d: unknown source %d", i, l.Source)
		}
		if _, ok := g.Node(l.Target); !ok {
			return fmt.Errorf("link %d: unknown target %d", i, l.Target)
		}
		if l.Source == l.Target {
			return fmt.Errorf("link %d: self-loop on %d", i, l.Source)
		}
	}
	return nil
}
