package vtk

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ImageData is a structured grid of points with uniform spacing.
//
// The zero value is not usable; use NewImageData.
type ImageData struct {
	Dims      [3]int
	Origin    [3]float64
	Spacing   [3]float64
	PointData FieldData
}

// NewImageData creates an empty grid with the given geometry.
func NewImageData(dims [3]int, origin, spacing [3]float64) *ImageData {
	return &ImageData{Dims: dims, Origin: origin, Spacing: spacing}
}

// NumPoints returns nx*ny*nz.
func (im *ImageData) NumPoints() int { return im.Dims[0] * im.Dims[1] * im.Dims[2] }

// Index returns the linear point index of grid position (x, y, z).
func (im *ImageData) Index(x, y, z int) int {
	return x + y*im.Dims[0] + z*im.Dims[0]*im.Dims[1]
}

// Coords is the inverse of Index.
func (im *ImageData) Coords(i int) (x, y, z int) {
	nx, ny := im.Dims[0], im.Dims[1]
	return i % nx, (i / nx) % ny, i / (nx * ny)
}

// Point returns the physical position of point i.
func (im *ImageData) Point(i int) r3.Vec {
	x, y, z := im.Coords(i)
	return r3.Vec{
		X: im.Origin[0] + float64(x)*im.Spacing[0],
		Y: im.Origin[1] + float64(y)*im.Spacing[1],
		Z: im.Origin[2] + float64(z)*im.Spacing[2],
	}
}

// Extent returns the whole extent (0, nx-1, 0, ny-1, 0, nz-1).
func (im *ImageData) Extent() [6]int {
	return [6]int{0, im.Dims[0] - 1, 0, im.Dims[1] - 1, 0, im.Dims[2] - 1}
}

// Bounds returns the physical bounds (xmin, xmax, ymin, ymax, zmin, zmax).
func (im *ImageData) Bounds() [6]float64 {
	var b [6]float64
	for i := 0; i < 3; i++ {
		lo := im.Origin[i]
		hi := im.Origin[i] + float64(im.Dims[i]-1)*im.Spacing[i]
		if hi < lo {
			lo, hi = hi, lo
		}
		b[2*i], b[2*i+1] = lo, hi
	}
	return b
}

// Scalars returns the active point scalars, or the first point array when
// none is marked active.
func (im *ImageData) Scalars() *DataArray {
	if s := im.PointData.Scalars(); s != nil {
		return s
	}
	if len(im.PointData.Arrays) > 0 {
		return im.PointData.Arrays[0]
	}
	return nil
}

// Validate checks that every point array holds one tuple per grid point.
func (im *ImageData) Validate() error {
	n := im.NumPoints()
	for _, a := range im.PointData.Arrays {
		if a.Len() != n {
			return fmt.Errorf("%w: point array %q has %d tuples, grid has %d points", ErrMalformed, a.Name, a.Len(), n)
		}
	}
	return nil
}
