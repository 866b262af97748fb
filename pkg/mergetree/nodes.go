package mergetree

import (
	"github.com/matzehuels/tachyview/pkg/graph"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// Attribute names probed on the critical point dataset, highest priority
// first. The classification array has been spelled differently across
// toolkit releases.
var (
	DefaultClassificationNames = []string{"CriticalType", "Critical Type", "Node Type"}
	DefaultScalarNames         = []string{"Scalar", "Scalars_"}
)

// NodeOptions selects the attributes read by ExtractNodes.
type NodeOptions struct {
	ClassificationNames []string
	ScalarNames         []string
}

// NodeReport names the arrays ExtractNodes actually read.
type NodeReport struct {
	TypeAttribute string
	ScalarSource  string
}

// Probe returns the first array in fd whose name appears in names and which
// holds at least n tuples, checking names in order. Shorter arrays are
// skipped.
func Probe(fd *vtk.FieldData, names []string, n int) (*vtk.DataArray, bool) {
	for _, name := range names {
		if a, ok := fd.Array(name); ok && a.Len() >= n {
			return a, true
		}
	}
	return nil, false
}

// ExtractNodes turns every point of mesh into a node. The node ID is the
// point index. The scalar comes from the active scalars, else the first
// present ScalarNames array, else 0. The type comes from the first present
// ClassificationNames array, else 0.
func ExtractNodes(mesh *vtk.Mesh, opts NodeOptions) ([]graph.Node, NodeReport) {
	classNames := opts.ClassificationNames
	if len(classNames) == 0 {
		classNames = DefaultClassificationNames
	}
	scalarNames := opts.ScalarNames
	if len(scalarNames) == 0 {
		scalarNames = DefaultScalarNames
	}

	var report NodeReport
	n := mesh.NumPoints()

	typeArr, _ := Probe(&mesh.PointData, classNames, n)
	if typeArr != nil {
		report.TypeAttribute = typeArr.Name
	}

	scalarArr := mesh.PointData.Scalars()
	if scalarArr == nil || scalarArr.Len() < n {
		scalarArr, _ = Probe(&mesh.PointData, scalarNames, n)
	}
	if scalarArr != nil {
		report.ScalarSource = scalarArr.Name
	}

	nodes := make([]graph.Node, n)
	for i := range nodes {
		p := mesh.Point(i)
		node := graph.Node{ID: i, X: p.X, Y: p.Y, Z: p.Z}
		if typeArr != nil {
			node.Type = int(typeArr.Value(i))
		}
		if scalarArr != nil {
			node.Scalar = scalarArr.Value(i)
		}
		nodes[i] = node
	}
	return nodes, report
}
