// Package pipeline runs tachyview's stages with shared defaults, caching,
// logging and hooks.
//
// This package is the single place where the CLI turns flags into library
// calls. Each stage can be run on its own:
//
//  1. Pack: raw voxel file to VTK ImageData (.vti)
//  2. Resample: mesh (.vtu, .vtp, .off) to VTK ImageData
//  3. Extract: volume to merge-tree graph JSON, optionally Parquet tables
//  4. Render: graph JSON to a node-link diagram (DOT, SVG, PNG, PDF)
//
// # Usage
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	runner.Toolkit = paraview.New(paraview.Config{})
//	res, err := runner.Extract(ctx, pipeline.Options{
//	    Volume: "out/volume.vti",
//	    Output: "out/graph.json",
//	})
package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tachyview/pkg/cache"
	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/mergetree"
	"github.com/matzehuels/tachyview/pkg/render/nodelink"
	"github.com/matzehuels/tachyview/pkg/volume"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and config files
// =============================================================================

const (
	// DefaultResampleSamples is the per-axis sample count for resampling.
	DefaultResampleSamples = 256

	// DefaultVolumeFormat is the VTK XML encoding for written volumes.
	DefaultVolumeFormat = string(vtk.FormatBinary)

	// DefaultTreeType is the merge tree computed by extract.
	DefaultTreeType = "join"

	// DefaultResampler picks the resampler from the input content.
	DefaultResampler = ResamplerAuto
)

// Resampler names accepted by Options.Resampler.
const (
	ResamplerAuto    = "auto"
	ResamplerToolkit = "toolkit"
	ResamplerSolid   = "solid"
)

// ValidResamplers is the set of supported resampler names.
var ValidResamplers = map[string]bool{
	ResamplerAuto:    true,
	ResamplerToolkit: true,
	ResamplerSolid:   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains the configuration for every stage. Only the fields of the
// stage being run are read.
type Options struct {
	// Pack options
	Input      string     `json:"input,omitempty" toml:"input" yaml:"input"`
	SampleType string     `json:"sample_type,omitempty" toml:"sample_type" yaml:"sample_type"`
	Dims       [3]int     `json:"dims,omitempty" toml:"dims" yaml:"dims"`
	Spacing    [3]float64 `json:"spacing,omitempty" toml:"spacing" yaml:"spacing"`
	Origin     [3]float64 `json:"origin,omitempty" toml:"origin" yaml:"origin"`
	Layout     string     `json:"layout,omitempty" toml:"layout" yaml:"layout"`
	ScalarType string     `json:"scalar_type,omitempty" toml:"scalar_type" yaml:"scalar_type"`

	// Resample options (Input and Dims are shared with pack)
	Resampler string `json:"resampler,omitempty" toml:"resampler" yaml:"resampler"`

	// Extract options
	Volume              string   `json:"volume,omitempty" toml:"volume" yaml:"volume"`
	TreeType            string   `json:"tree_type,omitempty" toml:"tree_type" yaml:"tree_type"`
	NoSegmentation      bool     `json:"no_segmentation,omitempty" toml:"no_segmentation" yaml:"no_segmentation"`
	Tolerance           float64  `json:"tolerance,omitempty" toml:"tolerance" yaml:"tolerance"`
	ClassificationNames []string `json:"classification_names,omitempty" toml:"classification_names" yaml:"classification_names"`
	ScalarNames         []string `json:"scalar_names,omitempty" toml:"scalar_names" yaml:"scalar_names"`
	ParquetDir          string   `json:"parquet_dir,omitempty" toml:"parquet_dir" yaml:"parquet_dir"`

	// Render options
	Graph    string `json:"graph,omitempty" toml:"graph" yaml:"graph"`
	Detailed bool   `json:"detailed,omitempty" toml:"detailed" yaml:"detailed"`
	RankDir  string `json:"rank_dir,omitempty" toml:"rank_dir" yaml:"rank_dir"`

	// Output options
	Output       string `json:"output,omitempty" toml:"output" yaml:"output"`
	VolumeFormat string `json:"volume_format,omitempty" toml:"volume_format" yaml:"volume_format"`
	Refresh      bool   `json:"refresh,omitempty" toml:"-" yaml:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-" yaml:"-"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateResampler checks that a resampler name is valid.
func ValidateResampler(name string) error {
	if !ValidResamplers[name] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid resampler: %q (must be one of: auto, toolkit, solid)", name)
	}
	return nil
}

func setLogger(o *Options) {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// =============================================================================
// Options Methods
// =============================================================================

// SetPackDefaults fills unset pack fields.
func (o *Options) SetPackDefaults() {
	if o.Spacing == ([3]float64{}) {
		o.Spacing = [3]float64{1, 1, 1}
	}
	if o.SampleType == "" {
		o.SampleType = string(volume.SampleUInt8)
	}
	if o.Layout == "" {
		o.Layout = string(volume.LayoutXYZ)
	}
	if o.ScalarType == "" {
		o.ScalarType = string(vtk.UInt16)
	}
	if o.VolumeFormat == "" {
		o.VolumeFormat = DefaultVolumeFormat
	}
	setLogger(o)
}

// ValidateForPack applies pack defaults and checks the fields pack reads.
func (o *Options) ValidateForPack() error {
	o.SetPackDefaults()
	if o.Input == "" {
		return errs.New(errs.ErrCodeInvalidInput, "input raw file is required")
	}
	if o.Output == "" {
		return errs.New(errs.ErrCodeInvalidInput, "output path is required")
	}
	if err := errs.ValidateDims(o.Dims); err != nil {
		return err
	}
	if err := errs.ValidateSpacing(o.Spacing); err != nil {
		return err
	}
	if err := errs.ValidateOrigin(o.Origin); err != nil {
		return err
	}
	if _, err := o.packRequest(); err != nil {
		return err
	}
	_, err := o.volumeFormat()
	return err
}

// packRequest converts pack options into a volume request.
func (o *Options) packRequest() (volume.Request, error) {
	st, err := volume.ParseSampleType(o.SampleType)
	if err != nil {
		return volume.Request{}, err
	}
	layout, err := volume.ParseLayout(o.Layout)
	if err != nil {
		return volume.Request{}, err
	}
	scalar, err := vtk.ParseScalarType(o.ScalarType)
	if err != nil {
		return volume.Request{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "scalar type")
	}
	format, err := o.volumeFormat()
	if err != nil {
		return volume.Request{}, err
	}
	return volume.Request{
		Input:      o.Input,
		Output:     o.Output,
		SampleType: st,
		Dims:       o.Dims,
		Spacing:    o.Spacing,
		Origin:     o.Origin,
		Layout:     layout,
		Options:    volume.Options{ScalarType: scalar},
		Format:     format,
	}, nil
}

func (o *Options) volumeFormat() (vtk.Format, error) {
	f, err := vtk.ParseFormat(o.VolumeFormat)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidFormat, err, "volume format")
	}
	return f, nil
}

// SetResampleDefaults fills unset resample fields.
func (o *Options) SetResampleDefaults() {
	if o.Dims == ([3]int{}) {
		o.Dims = [3]int{DefaultResampleSamples, DefaultResampleSamples, DefaultResampleSamples}
	}
	if o.Resampler == "" {
		o.Resampler = DefaultResampler
	}
	if o.VolumeFormat == "" {
		o.VolumeFormat = DefaultVolumeFormat
	}
	setLogger(o)
}

// ValidateForResample applies resample defaults and checks the fields
// resample reads.
func (o *Options) ValidateForResample() error {
	o.SetResampleDefaults()
	if o.Input == "" {
		return errs.New(errs.ErrCodeInvalidInput, "input mesh is required")
	}
	if o.Output == "" {
		return errs.New(errs.ErrCodeInvalidInput, "output path is required")
	}
	if err := errs.ValidateDims(o.Dims); err != nil {
		return err
	}
	if err := ValidateResampler(o.Resampler); err != nil {
		return err
	}
	_, err := o.volumeFormat()
	return err
}

// SetExtractDefaults fills unset extract fields.
func (o *Options) SetExtractDefaults() {
	if o.TreeType == "" {
		o.TreeType = DefaultTreeType
	}
	if o.Tolerance == 0 {
		o.Tolerance = mergetree.DefaultTolerance
	}
	if len(o.ClassificationNames) == 0 {
		o.ClassificationNames = mergetree.DefaultClassificationNames
	}
	if len(o.ScalarNames) == 0 {
		o.ScalarNames = mergetree.DefaultScalarNames
	}
	setLogger(o)
}

// ValidateForExtract applies extract defaults and checks the fields extract
// reads.
func (o *Options) ValidateForExtract() error {
	o.SetExtractDefaults()
	if o.Volume == "" {
		return errs.New(errs.ErrCodeInvalidInput, "volume is required")
	}
	if err := errs.ValidatePath(o.Volume); err != nil {
		return err
	}
	if o.Tolerance < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "tolerance must not be negative, got %g", o.Tolerance)
	}
	_, err := mergetree.ParseTreeVariant(o.TreeType)
	return err
}

// ExtractOptions converts extract options for the mergetree package.
func (o *Options) ExtractOptions() mergetree.Options {
	variant, _ := mergetree.ParseTreeVariant(o.TreeType)
	return mergetree.Options{
		Variant:             variant,
		NoSegmentation:      o.NoSegmentation,
		Tolerance:           o.Tolerance,
		ClassificationNames: o.ClassificationNames,
		ScalarNames:         o.ScalarNames,
		Logger:              o.Logger,
	}
}

// ExtractKeyOpts returns cache key options for extraction.
func (o *Options) ExtractKeyOpts() cache.ExtractKeyOpts {
	variant, _ := mergetree.ParseTreeVariant(o.TreeType)
	return cache.ExtractKeyOpts{
		Variant:             variant.String(),
		WithSegmentation:    !o.NoSegmentation,
		Tolerance:           o.Tolerance,
		ClassificationNames: o.ClassificationNames,
		ScalarNames:         o.ScalarNames,
	}
}

// ResampleKeyOpts returns cache key options for resampling. Only called
// after the resampler has been resolved, so "auto" never reaches the key.
func (o *Options) ResampleKeyOpts(resampler string) cache.ResampleKeyOpts {
	return cache.ResampleKeyOpts{Dims: o.Dims, Resampler: resampler}
}

// ValidateForRender checks the fields render reads.
func (o *Options) ValidateForRender() error {
	setLogger(o)
	if o.Graph == "" {
		return errs.New(errs.ErrCodeInvalidInput, "graph file is required")
	}
	if o.Output == "" {
		return errs.New(errs.ErrCodeInvalidInput, "output path is required")
	}
	if _, err := nodelink.FormatFromPath(o.Output); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "output")
	}
	switch strings.ToUpper(o.RankDir) {
	case "", "TB", "BT", "LR", "RL":
		return nil
	}
	return errs.New(errs.ErrCodeInvalidInput, "invalid rank direction %q (must be one of: TB, BT, LR, RL)", o.RankDir)
}

// String summarizes the options for debug logs.
func (o *Options) String() string {
	return fmt.Sprintf("input=%s volume=%s output=%s dims=%v", o.Input, o.Volume, o.Output, o.Dims)
}
