package vtk

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind is the dataset type declared by a VTKFile element.
type Kind string

// Dataset kinds.
const (
	KindImageData        Kind = "ImageData"
	KindPolyData         Kind = "PolyData"
	KindUnstructuredGrid Kind = "UnstructuredGrid"
)

// Extension returns the conventional file extension for k.
func (k Kind) Extension() string {
	switch k {
	case KindImageData:
		return ".vti"
	case KindPolyData:
		return ".vtp"
	case KindUnstructuredGrid:
		return ".vtu"
	}
	return ""
}

// CellType is a VTK cell type code.
type CellType uint8

// Cell types used by the merge-tree outputs and mesh inputs.
const (
	CellVertex        CellType = 1
	CellPolyVertex    CellType = 2
	CellLine          CellType = 3
	CellPolyLine      CellType = 4
	CellTriangle      CellType = 5
	CellTriangleStrip CellType = 6
	CellPolygon       CellType = 7
	CellQuad          CellType = 9
	CellTetra         CellType = 10
	CellHexahedron    CellType = 12
)

// Cell is a list of point indices with a type.
type Cell struct {
	Type   CellType
	Points []int
}

// Mesh is an unstructured dataset: explicit points, cells and attributes.
// Both PolyData and UnstructuredGrid files decode into a Mesh.
type Mesh struct {
	Kind      Kind
	Points    []r3.Vec
	Cells     []Cell
	PointData FieldData
	CellData  FieldData
}

// NumPoints returns the number of points.
func (m *Mesh) NumPoints() int { return len(m.Points) }

// Point returns point i.
func (m *Mesh) Point(i int) r3.Vec { return m.Points[i] }

// NumCells returns the number of cells.
func (m *Mesh) NumCells() int { return len(m.Cells) }

// CellPoints returns the coordinates of the points of cell i, in order.
func (m *Mesh) CellPoints(i int) []r3.Vec {
	ids := m.Cells[i].Points
	pts := make([]r3.Vec, len(ids))
	for j, id := range ids {
		pts[j] = m.Points[id]
	}
	return pts
}

// Bounds returns (xmin, xmax, ymin, ymax, zmin, zmax) over all points.
// An empty mesh returns all zeros.
func (m *Mesh) Bounds() [6]float64 {
	if len(m.Points) == 0 {
		return [6]float64{}
	}
	b := [6]float64{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, p := range m.Points {
		b[0], b[1] = math.Min(b[0], p.X), math.Max(b[1], p.X)
		b[2], b[3] = math.Min(b[2], p.Y), math.Max(b[3], p.Y)
		b[4], b[5] = math.Min(b[4], p.Z), math.Max(b[5], p.Z)
	}
	return b
}
