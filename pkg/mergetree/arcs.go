package mergetree

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/tachyview/pkg/graph"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// DefaultTolerance is the squared distance below which a point matches a
// node.
const DefaultTolerance = 1e-5

// Matcher maps coordinates back to node IDs.
type Matcher struct {
	nodes     []r3.Vec
	tolerance float64
}

// NewMatcher creates a matcher over nodes. A non-positive tolerance selects
// DefaultTolerance.
func NewMatcher(nodes []graph.Node, tolerance float64) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	pts := make([]r3.Vec, len(nodes))
	for i, n := range nodes {
		pts[i] = r3.Vec{X: n.X, Y: n.Y, Z: n.Z}
	}
	return &Matcher{nodes: pts, tolerance: tolerance}
}

// Match returns the ID of the first node, in node order, whose squared
// distance to p is below the tolerance.
func (m *Matcher) Match(p r3.Vec) (int, bool) {
	for i, q := range m.nodes {
		if r3.Norm2(r3.Sub(p, q)) < m.tolerance {
			return i, true
		}
	}
	return -1, false
}

// ArcStats counts what happened to each arc cell.
type ArcStats struct {
	Cells      int
	Links      int
	Degenerate int // fewer than two points
	Unmatched  int // an endpoint matched no node
	SelfLoops  int // both endpoints matched the same node
}

// Dropped returns the number of cells that produced no link.
func (s ArcStats) Dropped() int { return s.Degenerate + s.Unmatched + s.SelfLoops }

// ExtractArcs links the nodes matched by the first and last point of each
// cell, in cell order. Interior points are ignored.
func ExtractArcs(mesh *vtk.Mesh, m *Matcher) ([]graph.Link, ArcStats) {
	stats := ArcStats{Cells: mesh.NumCells()}
	links := []graph.Link{}

	for i := 0; i < mesh.NumCells(); i++ {
		ids := mesh.Cells[i].Points
		if len(ids) < 2 {
			stats.Degenerate++
			continue
		}
		src, ok1 := m.Match(mesh.Point(ids[0]))
		dst, ok2 := m.Match(mesh.Point(ids[len(ids)-1]))
		switch {
		case !ok1 || !ok2:
			stats.Unmatched++
		case src == dst:
			stats.SelfLoops++
		default:
			links = append(links, graph.Link{Source: src, Target: dst})
		}
	}
	stats.Links = len(links)
	return links, stats
}
