package resample

import (
	"context"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/unixpickle/model3d"

	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// OccupancyArray is the point array written by SolidResampler.
const OccupancyArray = "Occupancy"

// parityDirection is an arbitrary ray direction unlikely to graze mesh edges
// of axis-aligned models.
var parityDirection = model3d.Coord3D{X: -0.40475415, Y: 0.86174632, Z: -0.30588783}

// SolidResampler voxelizes closed triangle meshes read from OFF files. Each
// grid point inside the mesh gets 1, every other point 0.
type SolidResampler struct {
	Logger *log.Logger
}

// NewSolidResampler creates a solid resampler.
func NewSolidResampler(logger *log.Logger) *SolidResampler {
	if logger == nil {
		logger = log.Default()
	}
	return &SolidResampler{Logger: logger}
}

// Resample implements Resampler.
func (s *SolidResampler) Resample(ctx context.Context, req Request) (*vtk.ImageData, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	format, err := Detect(req.Input)
	if err != nil {
		return nil, err
	}
	if format != FormatOFF {
		return nil, errs.New(errs.ErrCodeUnsupported, "%s: %s input needs the toolkit resampler", req.Input, format)
	}

	triangles, err := readOFF(req.Input)
	if err != nil {
		return nil, err
	}
	collider := model3d.MeshToCollider(model3d.NewMeshTriangles(triangles))
	s.Logger.Debug("loaded mesh", "path", req.Input, "triangles", len(triangles))

	return Voxelize(ctx, collider, req.Dims)
}

func readOFF(path string) ([]*model3d.Triangle, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "input %s", path)
		}
		return nil, err
	}
	defer f.Close()

	triangles, err := model3d.ReadOFF(f)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse OFF %s", path)
	}
	if len(triangles) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "%s: mesh has no faces", path)
	}
	return triangles, nil
}

// Voxelize samples the solid bounded by collider on a dims grid spanning
// its bounding box.
func Voxelize(ctx context.Context, collider model3d.Collider, dims [3]int) (*vtk.ImageData, error) {
	if err := errs.ValidateDims(dims); err != nil {
		return nil, err
	}
	bmin, bmax := collider.Min(), collider.Max()
	lo := [3]float64{bmin.X, bmin.Y, bmin.Z}
	hi := [3]float64{bmax.X, bmax.Y, bmax.Z}

	var origin, spacing [3]float64
	for i := range dims {
		if dims[i] == 1 {
			origin[i] = (lo[i] + hi[i]) / 2
			spacing[i] = 1
			continue
		}
		origin[i] = lo[i]
		spacing[i] = (hi[i] - lo[i]) / float64(dims[i]-1)
		if spacing[i] <= 0 {
			spacing[i] = 1
		}
	}

	im := vtk.NewImageData(dims, origin, spacing)
	values := make([]float64, im.NumPoints())
	epsilon := bmax.Sub(bmin).Norm() * 1e-8
	for z := 0; z < dims[2]; z++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				i := im.Index(x, y, z)
				p := im.Point(i)
				c := model3d.Coord3D{X: p.X, Y: p.Y, Z: p.Z}
				if contains(collider, c, epsilon) {
					values[i] = 1
				}
			}
		}
	}
	im.PointData.SetScalars(vtk.NewDataArray(OccupancyArray, vtk.UInt8, values))
	return im, nil
}

// contains tests c by ray parity. Collisions closer together than epsilon
// along the ray count once, so shared triangle edges and duplicate faces do
// not flip the result.
func contains(collider model3d.Collider, c model3d.Coord3D, epsilon float64) bool {
	if !model3d.InBounds(collider, c) {
		return false
	}
	var scales []float64
	collider.RayCollisions(&model3d.Ray{Origin: c, Direction: parityDirection}, func(rc model3d.RayCollision) {
		scales = append(scales, rc.Scale)
	})
	sort.Float64s(scales)

	unique := 0
	last := -1.0
	for _, s := range scales {
		if unique == 0 || s-last > epsilon {
			unique++
		}
		last = s
	}
	return unique%2 == 1
}
