// Package resample converts meshes into regular scalar volumes.
//
// Two resamplers are provided. [ToolkitResampler] drives the external
// toolkit's ResampleToImage filter over VTK XML meshes, interpolating their
// point data. [SolidResampler] voxelizes closed OFF triangle meshes into an
// occupancy volume without any external process.
package resample

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// Resampler samples an input mesh onto a regular grid spanning its bounds.
type Resampler interface {
	Resample(ctx context.Context, req Request) (*vtk.ImageData, error)
}

// Request names the input mesh and the number of samples per axis.
type Request struct {
	Input string
	Dims  [3]int
}

// Validate checks the request before any work is done.
func (r Request) Validate() error {
	if err := errs.ValidatePath(r.Input); err != nil {
		return err
	}
	return errs.ValidateDims(r.Dims)
}

// InputFormat is a detected mesh file format.
type InputFormat string

const (
	FormatVTKPolyData     InputFormat = "vtp"
	FormatVTKUnstructured InputFormat = "vtu"
	FormatVTKImage        InputFormat = "vti"
	FormatOFF             InputFormat = "off"
)

// Detect identifies the format of path from its content. The extension is
// ignored, so a polydata file named .vtu is still read as polydata.
func Detect(path string) (InputFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.Wrap(errs.ErrCodeFileNotFound, err, "input %s", path)
		}
		return "", err
	}
	defer f.Close()

	head := make([]byte, 4096)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	head = head[:n]

	switch {
	case vtk.IsVTK(head):
		kind, err := vtk.Sniff(bytes.NewReader(head))
		if err != nil {
			return "", errs.Wrap(errs.ErrCodeInvalidFormat, err, "%s", path)
		}
		switch kind {
		case vtk.KindPolyData:
			return FormatVTKPolyData, nil
		case vtk.KindUnstructuredGrid:
			return FormatVTKUnstructured, nil
		case vtk.KindImageData:
			return FormatVTKImage, nil
		}
		return "", errs.New(errs.ErrCodeUnsupported, "%s: VTK dataset type %q", path, kind)
	case isOFF(head):
		return FormatOFF, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "%s: not a VTK XML or OFF file", path)
}

func isOFF(head []byte) bool {
	line, _, _ := strings.Cut(strings.TrimSpace(string(head)), "\n")
	line = strings.TrimSpace(line)
	return line == "OFF" || strings.HasPrefix(line, "OFF ")
}

// Kind returns the VTK dataset kind for a VTK format.
func (f InputFormat) Kind() vtk.Kind {
	switch f {
	case FormatVTKPolyData:
		return vtk.KindPolyData
	case FormatVTKUnstructured:
		return vtk.KindUnstructuredGrid
	case FormatVTKImage:
		return vtk.KindImageData
	}
	return ""
}

// ResampleFile resamples req.Input with r and writes the volume to output,
// creating parent directories. The bounds and scalar range of the result
// are logged.
func ResampleFile(ctx context.Context, r Resampler, req Request, output string, logger *log.Logger, opts ...vtk.WriteOption) (*vtk.ImageData, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := errs.ValidatePath(output); err != nil {
		return nil, err
	}

	start := time.Now()
	im, err := r.Resample(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := im.Bounds()
	logger.Info("resampled",
		"input", filepath.Base(req.Input),
		"dims", fmt.Sprintf("%dx%dx%d", im.Dims[0], im.Dims[1], im.Dims[2]),
		"duration", time.Since(start).Round(time.Millisecond))
	logger.Info("input bounds",
		"x", fmt.Sprintf("[%g, %g]", b[0], b[1]),
		"y", fmt.Sprintf("[%g, %g]", b[2], b[3]),
		"z", fmt.Sprintf("[%g, %g]", b[4], b[5]))
	if s := im.Scalars(); s != nil && s.Len() > 0 {
		lo, hi := s.Range()
		logger.Info("scalar range", "array", s.Name, "min", lo, "max", hi)
	} else {
		logger.Warn("resampled volume has no point data")
	}

	if err := vtk.WriteImageDataFile(output, im, opts...); err != nil {
		return nil, fmt.Errorf("write %s: %w", output, err)
	}
	return im, nil
}
