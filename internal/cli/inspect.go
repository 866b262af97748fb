package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tachyview/pkg/graph"
	"github.com/matzehuels/tachyview/pkg/render/nodelink"
	"github.com/matzehuels/tachyview/pkg/resample"
	"github.com/matzehuels/tachyview/pkg/volume"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize a volume, mesh or graph file",
		Long: `Inspect prints the geometry and value statistics of a .vti volume, the
size and bounds of a VTK mesh, or the node and link counts of a graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(c.Out, args[0])
		},
	}
}

func inspect(w io.Writer, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		g, err := graph.ReadFile(path)
		if err != nil {
			return err
		}
		return inspectGraph(w, path, g)
	}

	format, err := resample.Detect(path)
	if err != nil {
		return err
	}
	switch format {
	case resample.FormatVTKImage:
		im, err := vtk.ReadImageDataFile(path)
		if err != nil {
			return err
		}
		return inspectImage(w, path, im)
	case resample.FormatVTKPolyData, resample.FormatVTKUnstructured:
		m, err := vtk.ReadMeshFile(path)
		if err != nil {
			return err
		}
		inspectMesh(w, path, m)
		return nil
	}
	printTitle(w, filepath.Base(path))
	printKeyValue(w, "format", string(format))
	printDetail(w, "resample it with: tachyview resample %s", path)
	return nil
}

func inspectImage(w io.Writer, path string, im *vtk.ImageData) error {
	printTitle(w, filepath.Base(path))
	printKeyValue(w, "format", "ImageData")
	printKeyValue(w, "dims", fmt.Sprintf("%d x %d x %d (%d points)", im.Dims[0], im.Dims[1], im.Dims[2], im.NumPoints()))
	printKeyValue(w, "spacing", fmtVec(im.Spacing))
	printKeyValue(w, "origin", fmtVec(im.Origin))
	printKeyValue(w, "bounds", fmtBounds(im.Bounds()))
	printKeyValue(w, "arrays", strings.Join(im.PointData.Names(), ", "))

	s := im.Scalars()
	if s == nil {
		printWarning(w, "no point scalars")
		return nil
	}
	stats, err := volume.ImageStats(im)
	if err != nil {
		return err
	}
	printKeyValue(w, "scalars", fmt.Sprintf("%s (%s)", s.Name, s.Type))
	printKeyValue(w, "range", fmt.Sprintf("%g .. %g", stats.Min, stats.Max))
	printKeyValue(w, "mean", fmt.Sprintf("%.6g ± %.6g", stats.Mean, stats.StdDev))
	printKeyValue(w, "quantiles", fmt.Sprintf("p50 %.6g · p90 %.6g · p99 %.6g", stats.P50, stats.P90, stats.P99))
	return nil
}

func inspectMesh(w io.Writer, path string, m *vtk.Mesh) {
	printTitle(w, filepath.Base(path))
	printKeyValue(w, "format", string(m.Kind))
	printKeyValue(w, "points", fmt.Sprint(m.NumPoints()))
	printKeyValue(w, "cells", fmt.Sprint(m.NumCells()))
	printKeyValue(w, "bounds", fmtBounds(m.Bounds()))
	if names := m.PointData.Names(); len(names) > 0 {
		printKeyValue(w, "point arrays", strings.Join(names, ", "))
	}
	if names := m.CellData.Names(); len(names) > 0 {
		printKeyValue(w, "cell arrays", strings.Join(names, ", "))
	}
}

func inspectGraph(w io.Writer, path string, g *graph.Graph) error {
	printTitle(w, filepath.Base(path))
	printKeyValue(w, "nodes", fmt.Sprint(g.NodeCount()))
	printKeyValue(w, "links", fmt.Sprint(g.LinkCount()))
	counts := g.TypeCounts()
	for _, t := range g.Types() {
		printKeyValue(w, "  "+nodelink.TypeName(t), fmt.Sprint(counts[t]))
	}
	if err := g.Validate(); err != nil {
		printWarning(w, "graph is inconsistent: %v", err)
	}
	return nil
}

func fmtVec(v [3]float64) string {
	return fmt.Sprintf("%g, %g, %g", v[0], v[1], v[2])
}

func fmtBounds(b [6]float64) string {
	return fmt.Sprintf("[%g, %g] x [%g, %g] x [%g, %g]", b[0], b[1], b[2], b[3], b[4], b[5])
}
