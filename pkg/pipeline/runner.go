package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tachyview/pkg/cache"
	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/graph"
	"github.com/matzehuels/tachyview/pkg/mergetree"
	"github.com/matzehuels/tachyview/pkg/observability"
	"github.com/matzehuels/tachyview/pkg/resample"
	"github.com/matzehuels/tachyview/pkg/toolkit"
	"github.com/matzehuels/tachyview/pkg/volume"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// Runner encapsulates stage execution with caching.
//
// The Runner is stateless except for its collaborators - it doesn't store
// stage results. Toolkit may be nil when only pack, solid resampling and
// render are used.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Toolkit toolkit.Toolkit
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// PackResult is the outcome of Pack.
type PackResult struct {
	RunID    string
	Output   string
	Dims     [3]int
	Samples  int
	Stats    volume.Stats
	Duration time.Duration
}

// ResampleResult is the outcome of Resample.
type ResampleResult struct {
	RunID     string
	Output    string
	Resampler string
	Dims      [3]int
	CacheHit  bool
	Duration  time.Duration
}

// ExtractResult is the outcome of Extract.
type ExtractResult struct {
	RunID    string
	Graph    *graph.Graph
	Output   string
	Parquet  string
	Stats    mergetree.Stats
	CacheHit bool
	Duration time.Duration
}

// Pack converts a raw voxel file into a VTK ImageData file.
func (r *Runner) Pack(ctx context.Context, opts Options) (*PackResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForPack(); err != nil {
		return nil, err
	}
	logger, id := r.runLogger(&opts, "pack")
	req, err := opts.packRequest()
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnPackStart(ctx, opts.Input, opts.Dims)
	start := time.Now()
	res, err := volume.PackFile(ctx, req)
	d := time.Since(start)
	if err != nil {
		hooks.OnPackComplete(ctx, opts.Input, 0, d, err)
		return nil, err
	}
	hooks.OnPackComplete(ctx, opts.Input, res.Samples, d, nil)

	out := &PackResult{RunID: id, Output: res.Output, Dims: opts.Dims, Samples: res.Samples, Duration: d}
	if stats, err := volume.ImageStats(res.Image); err == nil {
		out.Stats = stats
		logger.Debug("scalar stats", "min", stats.Min, "max", stats.Max, "p50", stats.P50)
	}
	logger.Info("packed volume",
		"output", res.Output,
		"dims", fmt.Sprintf("%dx%dx%d", opts.Dims[0], opts.Dims[1], opts.Dims[2]),
		"samples", res.Samples,
		"duration", d.Round(time.Millisecond))
	return out, nil
}

// Resample converts a mesh into a VTK ImageData file, reusing a cached
// volume when the same input was resampled with the same settings.
func (r *Runner) Resample(ctx context.Context, opts Options) (*ResampleResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForResample(); err != nil {
		return nil, err
	}
	logger, id := r.runLogger(&opts, "resample")

	name, rs, err := r.resampler(opts.Resampler, opts.Input, logger)
	if err != nil {
		return nil, err
	}
	format, _ := opts.volumeFormat()

	hash, err := cache.HashFile(opts.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "input %s", opts.Input)
		}
		return nil, err
	}
	key := r.Keyer.ResampleKey(hash, opts.ResampleKeyOpts(name))
	out := &ResampleResult{RunID: id, Output: opts.Output, Resampler: name, Dims: opts.Dims}

	if data, ok := r.cached(ctx, key, "resample", opts.Refresh); ok {
		if err := writeFile(opts.Output, data); err != nil {
			return nil, err
		}
		out.CacheHit = true
		logger.Info("resampled volume from cache", "output", opts.Output)
		return out, nil
	}

	hooks := observability.Pipeline()
	hooks.OnResampleStart(ctx, opts.Input, opts.Dims)
	start := time.Now()
	_, err = resample.ResampleFile(ctx, rs, resample.Request{Input: opts.Input, Dims: opts.Dims},
		opts.Output, logger, vtk.WithFormat(format))
	out.Duration = time.Since(start)
	hooks.OnResampleComplete(ctx, opts.Input, out.Duration, err)
	if err != nil {
		return nil, err
	}

	if data, err := os.ReadFile(opts.Output); err == nil {
		r.store(ctx, key, "resample", data, cache.TTLResample)
	}
	return out, nil
}

// resampler resolves a resampler name. "auto" sends OFF meshes to the
// solid resampler and everything else to the toolkit.
func (r *Runner) resampler(name, input string, logger *log.Logger) (string, resample.Resampler, error) {
	if name == ResamplerAuto {
		f, err := resample.Detect(input)
		if err != nil {
			return "", nil, err
		}
		name = ResamplerToolkit
		if f == resample.FormatOFF {
			name = ResamplerSolid
		}
		logger.Debug("selected resampler", "format", f, "resampler", name)
	}
	switch name {
	case ResamplerSolid:
		return name, resample.NewSolidResampler(logger), nil
	case ResamplerToolkit:
		if r.Toolkit == nil {
			return "", nil, errs.New(errs.ErrCodeToolkit, "resampling %s needs the visualization toolkit, none configured", filepath.Base(input))
		}
		return name, resample.NewToolkitResampler(r.Toolkit, logger), nil
	}
	return "", nil, ValidateResampler(name)
}

// Extract computes the merge tree of a volume and writes it as graph JSON.
// The graph is cached by volume content and extraction settings.
func (r *Runner) Extract(ctx context.Context, opts Options) (*ExtractResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForExtract(); err != nil {
		return nil, err
	}
	logger, id := r.runLogger(&opts, "extract")
	if opts.Output == "" {
		opts.Output = graph.DefaultFileName
	}

	hash, err := cache.HashFile(opts.Volume)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "volume %s", opts.Volume)
		}
		return nil, err
	}
	key := r.Keyer.ExtractKey(hash, opts.ExtractKeyOpts())
	out := &ExtractResult{RunID: id, Output: opts.Output}

	if data, ok := r.cached(ctx, key, "extract", opts.Refresh); ok {
		if g, err := graph.Unmarshal(data); err == nil {
			out.Graph = g
			out.CacheHit = true
			logger.Info("merge tree from cache", "nodes", g.NodeCount(), "links", g.LinkCount())
		} else {
			logger.Warn("discarding unreadable cache entry", "err", err)
		}
	}

	if out.Graph == nil {
		if r.Toolkit == nil {
			return nil, errs.New(errs.ErrCodeToolkit, "merge tree extraction needs the visualization toolkit, none configured")
		}
		hooks := observability.Pipeline()
		hooks.OnExtractStart(ctx, opts.Volume)
		start := time.Now()
		eo := opts.ExtractOptions()
		eo.Logger = logger
		g, stats, err := mergetree.Extract(ctx, mergetree.NewToolkitComputer(r.Toolkit, logger), opts.Volume, eo)
		out.Duration = time.Since(start)
		if err != nil {
			hooks.OnExtractComplete(ctx, opts.Volume, 0, 0, out.Duration, err)
			return nil, err
		}
		hooks.OnExtractComplete(ctx, opts.Volume, g.NodeCount(), g.LinkCount(), out.Duration, nil)
		out.Graph, out.Stats = g, stats

		if data, err := graph.Marshal(g); err == nil {
			r.store(ctx, key, "extract", data, cache.TTLExtract)
		}
		logger.Info("extracted merge tree",
			"tree", eo.Variant,
			"nodes", g.NodeCount(),
			"links", g.LinkCount(),
			"duration", out.Duration.Round(time.Millisecond))
	}

	if err := graph.WriteFile(out.Graph, opts.Output); err != nil {
		return nil, fmt.Errorf("write %s: %w", opts.Output, err)
	}
	if opts.ParquetDir != "" {
		if err := graph.WriteParquet(out.Graph, opts.ParquetDir); err != nil {
			return nil, fmt.Errorf("write parquet: %w", err)
		}
		out.Parquet = opts.ParquetDir
		logger.Debug("wrote parquet tables", "dir", opts.ParquetDir)
	}
	return out, nil
}

// applyLogger sets the runner's logger on options if not already set.
// Called before validation so the discard default never wins.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// runLogger tags the options' logger with a fresh run id.
func (r *Runner) runLogger(opts *Options, stage string) (*log.Logger, string) {
	id := uuid.NewString()
	logger := opts.Logger.With("run", id[:8])
	logger.Debug("starting", "stage", stage, "options", opts.String())
	opts.Logger = logger
	return logger, id
}

// cached looks up key, firing cache hooks. Lookup errors count as misses.
func (r *Runner) cached(ctx context.Context, key, kind string, refresh bool) ([]byte, bool) {
	hooks := observability.Cache()
	if refresh {
		hooks.OnCacheMiss(ctx, kind)
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, kind)
		return nil, false
	}
	hooks.OnCacheHit(ctx, kind)
	return data, true
}

// store writes to the cache. Failures are logged, never returned.
func (r *Runner) store(ctx context.Context, key, kind string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
