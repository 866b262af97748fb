package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/tachyview/pkg/graph"
	"github.com/matzehuels/tachyview/pkg/render/nodelink"
)

// RenderResult is the outcome of Render.
type RenderResult struct {
	Output   string
	Format   nodelink.Format
	Nodes    int
	Links    int
	Bytes    int
	Duration time.Duration
}

// Render reads a graph file and writes a node-link diagram. The format is
// taken from the output extension.
func (r *Runner) Render(ctx context.Context, opts Options) (*RenderResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	format, _ := nodelink.FormatFromPath(opts.Output)

	g, err := graph.ReadFile(opts.Graph)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := RenderGraph(ctx, g, format, opts)
	if err != nil {
		return nil, err
	}
	if err := writeFile(opts.Output, data); err != nil {
		return nil, fmt.Errorf("write %s: %w", opts.Output, err)
	}

	res := &RenderResult{
		Output:   opts.Output,
		Format:   format,
		Nodes:    g.NodeCount(),
		Links:    g.LinkCount(),
		Bytes:    len(data),
		Duration: time.Since(start),
	}
	opts.Logger.Info("rendered merge tree",
		"output", filepath.Base(opts.Output),
		"format", format,
		"nodes", res.Nodes,
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// RenderGraph renders g in one format without touching the filesystem.
func RenderGraph(ctx context.Context, g *graph.Graph, format nodelink.Format, opts Options) ([]byte, error) {
	data, err := nodelink.Render(ctx, g, format, nodelink.Options{
		Detailed: opts.Detailed,
		RankDir:  strings.ToUpper(opts.RankDir),
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
