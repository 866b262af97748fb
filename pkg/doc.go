// Package pkg provides the core libraries for Tachyview, a topological
// analysis pipeline for volumetric data.
//
// # Overview
//
// Tachyview turns raw voxel dumps and meshes into merge-tree graphs of their
// scalar fields, computed by the Topology ToolKit (TTK) running inside
// ParaView. The data flow:
//
//	raw voxels ──[volume]──┐
//	                       ├──▶ .vti volume ──[mergetree]──▶ graph JSON ──[render]──▶ SVG/PNG/PDF
//	mesh (.vtu/.vtp/.off) ─┘
//	          [resample]
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	runner.Toolkit = paraview.New(paraview.Config{})
//	defer runner.Close()
//
//	_, _ = runner.Pack(ctx, pipeline.Options{
//	    Input: "skull.raw", Output: "skull.vti", Dims: [3]int{41, 41, 41},
//	})
//	res, _ := runner.Extract(ctx, pipeline.Options{Volume: "skull.vti"})
//	fmt.Println(res.Graph.NodeCount(), "critical points")
//
// # Main Packages
//
// [vtk] - VTK XML reader and writer for ImageData, PolyData and
// UnstructuredGrid, with ascii, raw-binary and zlib-compressed arrays.
//
// [volume] - Packs flat binary sample files into ImageData volumes and
// summarizes their value distribution.
//
// [resample] - Resamples meshes onto regular grids, through the toolkit or by
// voxelizing closed OFF surfaces in-process.
//
// [mergetree] - Runs the merge-tree filter and converts its critical points
// and arcs into a [graph.Graph].
//
// [graph] - The node/link graph document with JSON and Parquet encodings.
//
// [render] - Graphviz rendering of graphs to DOT, SVG, PNG and PDF.
//
// [toolkit] - The narrow interface to the visualization toolkit, with a
// pvpython-backed binding in [toolkit/paraview].
//
// ## Infrastructure
//
// [pipeline] - Stage orchestration shared by the CLI, with caching and
// observability hooks.
//
// [cache] - Content-addressed result cache keyed by input hash and settings.
//
// [config] - TOML/YAML project configuration.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Hooks for pipeline, cache and toolkit events.
//
// # Testing
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/vtk/...             # Specific package
//	go test -run Example ./pkg/...    # Examples only
//
// Tests never start ParaView; [toolkit/toolkittest] provides an in-memory
// toolkit.
//
// [vtk]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/vtk
// [volume]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/volume
// [resample]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/resample
// [mergetree]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/mergetree
// [graph]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/graph
// [graph.Graph]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/graph#Graph
// [render]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/render
// [toolkit]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/toolkit
// [toolkit/paraview]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/toolkit/paraview
// [toolkit/toolkittest]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/toolkit/toolkittest
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/tachyview/pkg/observability
package pkg
