package volume

import (
	"context"
	"fmt"
	"strings"

	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// ArrayName is the name of the point scalar array written by Pack.
const ArrayName = "Scalars_"

// Layout is the axis order of samples in a raw file, fastest axis first.
type Layout string

const (
	// LayoutXYZ stores x fastest, then y, then z. This matches the grid
	// convention, so samples are copied as-is.
	LayoutXYZ Layout = "xyz"
	// LayoutZYX stores z fastest, then y, then x.
	LayoutZYX Layout = "zyx"
)

// ParseLayout validates a layout name. Empty means xyz.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(s)); l {
	case "":
		return LayoutXYZ, nil
	case LayoutXYZ, LayoutZYX:
		return l, nil
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "layout %q (want xyz or zyx)", s)
}

// VoxelBuffer is a flat sample sequence with its grid geometry.
type VoxelBuffer struct {
	Samples []uint16
	Dims    [3]int
	Spacing [3]float64
	Origin  [3]float64
	Layout  Layout
}

// Validate checks the geometry and the len(Samples) == nx*ny*nz invariant.
func (b *VoxelBuffer) Validate() error {
	if err := errs.ValidateDims(b.Dims); err != nil {
		return err
	}
	if err := errs.ValidateSpacing(b.Spacing); err != nil {
		return err
	}
	if err := errs.ValidateOrigin(b.Origin); err != nil {
		return err
	}
	want := b.Dims[0] * b.Dims[1] * b.Dims[2]
	if len(b.Samples) != want {
		return errs.New(errs.ErrCodeSizeMismatch,
			"buffer holds %d samples, dims %dx%dx%d need %d",
			len(b.Samples), b.Dims[0], b.Dims[1], b.Dims[2], want)
	}
	return nil
}

// Options controls the packed output.
type Options struct {
	// ScalarType is the on-disk type of the scalar array: UInt16 (default),
	// UInt8 or Float32.
	ScalarType vtk.ScalarType
}

func (o Options) scalarType() (vtk.ScalarType, error) {
	switch o.ScalarType {
	case "":
		return vtk.UInt16, nil
	case vtk.UInt8, vtk.UInt16, vtk.Float32:
		return o.ScalarType, nil
	}
	return "", errs.New(errs.ErrCodeUnsupported, "output scalar type %q (want UInt8, UInt16 or Float32)", o.ScalarType)
}

// Pack builds image data from buf. The scalar at grid position (x, y, z)
// sits at index x + y*nx + z*nx*ny of the output array.
func Pack(buf *VoxelBuffer, opts Options) (*vtk.ImageData, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	st, err := opts.scalarType()
	if err != nil {
		return nil, err
	}
	layout, err := ParseLayout(string(buf.Layout))
	if err != nil {
		return nil, err
	}

	nx, ny, nz := buf.Dims[0], buf.Dims[1], buf.Dims[2]
	_, hi := st.Limits()
	values := make([]float64, len(buf.Samples))

	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				src := x + y*nx + z*nx*ny
				if layout == LayoutZYX {
					src = z + y*nz + x*nz*ny
				}
				v := float64(buf.Samples[src])
				if v > hi {
					return nil, errs.New(errs.ErrCodeInvalidInput,
						"sample %v at (%d,%d,%d) does not fit %s", v, x, y, z, st)
				}
				values[x+y*nx+z*nx*ny] = v
			}
		}
	}

	im := vtk.NewImageData(buf.Dims, buf.Origin, buf.Spacing)
	im.PointData.SetScalars(vtk.NewDataArray(ArrayName, st, values))
	return im, nil
}

// Request describes one raw-to-VTI conversion.
type Request struct {
	Input      string
	Output     string
	SampleType SampleType
	Dims       [3]int
	Spacing    [3]float64
	Origin     [3]float64
	Layout     Layout
	Options    Options
	Format     vtk.Format
}

// Result is what PackFile produced.
type Result struct {
	Output  string
	Image   *vtk.ImageData
	Samples int
}

// PackFile reads req.Input, packs it and writes req.Output, creating parent
// directories. Nothing is written when the sample count does not match the
// dimensions.
func PackFile(ctx context.Context, req Request) (*Result, error) {
	if err := errs.ValidatePath(req.Input); err != nil {
		return nil, err
	}
	if err := errs.ValidatePath(req.Output); err != nil {
		return nil, err
	}

	samples, err := ReadRaw(req.Input, req.SampleType)
	if err != nil {
		return nil, err
	}
	im, err := Pack(&VoxelBuffer{
		Samples: samples,
		Dims:    req.Dims,
		Spacing: req.Spacing,
		Origin:  req.Origin,
		Layout:  req.Layout,
	}, req.Options)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = vtk.FormatBinary
	}
	if err := vtk.WriteImageDataFile(req.Output, im, vtk.WithFormat(format)); err != nil {
		return nil, fmt.Errorf("write %s: %w", req.Output, err)
	}
	return &Result{Output: req.Output, Image: im, Samples: len(samples)}, nil
}
