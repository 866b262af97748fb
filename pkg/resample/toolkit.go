package resample

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/toolkit"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// ResampleFilter is the toolkit filter used by ToolkitResampler.
const ResampleFilter = "ResampleToImage"

// ToolkitResampler resamples VTK XML meshes with the toolkit's
// ResampleToImage filter over the input bounds.
type ToolkitResampler struct {
	Toolkit toolkit.Toolkit
	Logger  *log.Logger
}

// NewToolkitResampler creates a resampler driving tk.
func NewToolkitResampler(tk toolkit.Toolkit, logger *log.Logger) *ToolkitResampler {
	if logger == nil {
		logger = log.Default()
	}
	return &ToolkitResampler{Toolkit: tk, Logger: logger}
}

// Resample implements Resampler.
func (r *ToolkitResampler) Resample(ctx context.Context, req Request) (*vtk.ImageData, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	format, err := Detect(req.Input)
	if err != nil {
		return nil, err
	}
	kind := format.Kind()
	if kind == "" {
		return nil, errs.New(errs.ErrCodeUnsupported, "%s: %s input needs the solid resampler", req.Input, format)
	}
	if ext := strings.ToLower(filepath.Ext(req.Input)); ext != kind.Extension() {
		r.Logger.Warn("extension does not match content, reading by content",
			"path", req.Input, "extension", ext, "kind", kind)
	}

	sources, err := r.Toolkit.Sources(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeToolkit, err, "list toolkit filters")
	}
	if !slices.Contains(sources, ResampleFilter) {
		return nil, errs.CapabilityNotFound("resample filter", []string{ResampleFilter}, toolkit.RelatedSources(sources, "Resample"))
	}

	f, err := r.Toolkit.NewFilter(ctx, ResampleFilter, toolkit.Input{Path: req.Input, Kind: kind})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeToolkit, err, "create %s", ResampleFilter)
	}
	if err := f.SetProperty("UseInputBounds", 1); err != nil {
		return nil, errs.Wrap(errs.ErrCodeToolkit, err, "set UseInputBounds")
	}
	if err := f.SetProperty("SamplingDimensions", req.Dims[:]); err != nil {
		return nil, errs.Wrap(errs.ErrCodeToolkit, err, "set SamplingDimensions")
	}

	r.Logger.Debug("resampling", "input", req.Input, "kind", kind, "dims", req.Dims)
	if err := f.Update(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(errs.ErrCodeToolkit, err, "update %s", ResampleFilter)
	}
	im, err := toolkit.ImageOutput(f, 0)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeToolkit, err, "fetch resampled image")
	}
	return im, nil
}
