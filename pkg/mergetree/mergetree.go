// Package mergetree extracts merge-tree graphs from scalar volumes.
//
// The tree itself is computed by an external toolkit behind the [Computer]
// interface. This package interprets the two datasets the toolkit returns:
// a point set of critical points and a set of arcs (line cells) between
// them. Arc endpoints are matched back to critical points by coordinate.
//
//	c := mergetree.NewToolkitComputer(paraview.New(paraview.Config{}), logger)
//	g, stats, err := mergetree.Extract(ctx, c, "out/volume.vti", mergetree.Options{})
package mergetree

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/graph"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// TreeVariant selects which tree the toolkit computes. Values match the
// toolkit's numeric enumeration.
type TreeVariant int

const (
	JoinTree      TreeVariant = 0
	SplitTree     TreeVariant = 1
	JoinSplitTree TreeVariant = 2
	ContourTree   TreeVariant = 3
)

var variantNames = map[TreeVariant]string{
	JoinTree:      "Join Tree",
	SplitTree:     "Split Tree",
	JoinSplitTree: "Join and Split Trees",
	ContourTree:   "Contour Tree",
}

// String returns the symbolic name the toolkit uses for v.
func (v TreeVariant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return fmt.Sprintf("TreeVariant(%d)", int(v))
}

// ParseTreeVariant accepts short names (join, split, join-split, contour)
// and the symbolic names returned by String.
func ParseTreeVariant(s string) (TreeVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "join", "join tree":
		return JoinTree, nil
	case "split", "split tree":
		return SplitTree, nil
	case "join-split", "join+split", "join and split trees":
		return JoinSplitTree, nil
	case "contour", "contour tree":
		return ContourTree, nil
	}
	return 0, errs.New(errs.ErrCodeInvalidInput, "tree variant %q (want join, split, join-split or contour)", s)
}

// Computer runs the external merge-tree computation on a volume file and
// returns its critical points and arcs.
type Computer interface {
	ComputeMergeTree(ctx context.Context, volumePath string, variant TreeVariant, withSegmentation bool) (nodes, arcs *vtk.Mesh, err error)
}

// Options controls extraction. Zero values select the defaults.
type Options struct {
	Variant TreeVariant

	// NoSegmentation turns off the segmentation output. The filter computes
	// it by default.
	NoSegmentation bool

	// Tolerance is the squared distance under which an arc endpoint matches
	// a node. Defaults to DefaultTolerance.
	Tolerance float64

	// ClassificationNames and ScalarNames are probed in order on the
	// node point data. Default to DefaultClassificationNames and
	// DefaultScalarNames.
	ClassificationNames []string
	ScalarNames         []string

	Logger *log.Logger
}

// Stats reports how the graph was assembled.
type Stats struct {
	Nodes          int
	Arcs           ArcStats
	TypeAttribute  string // classification array used, empty if defaulted
	ScalarSource   string // scalar array used, empty if defaulted
	NodeDataArrays []string
}

// Extract computes the merge tree of the volume at volumePath and builds
// its graph. A missing volume fails with FILE_NOT_FOUND before the toolkit
// is invoked.
func Extract(ctx context.Context, c Computer, volumePath string, opts Options) (*graph.Graph, Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	var stats Stats

	if _, err := os.Stat(volumePath); err != nil {
		if os.IsNotExist(err) {
			return nil, stats, errs.Wrap(errs.ErrCodeFileNotFound, err, "volume %s", volumePath)
		}
		return nil, stats, fmt.Errorf("stat volume: %w", err)
	}

	nodesMesh, arcsMesh, err := c.ComputeMergeTree(ctx, volumePath, opts.Variant, !opts.NoSegmentation)
	if err != nil {
		return nil, stats, err
	}
	if nodesMesh == nil || arcsMesh == nil {
		return nil, stats, errs.New(errs.ErrCodeToolkit, "merge-tree computation returned no critical points or arcs")
	}

	nodes, report := ExtractNodes(nodesMesh, NodeOptions{
		ClassificationNames: opts.ClassificationNames,
		ScalarNames:         opts.ScalarNames,
	})
	stats.Nodes = len(nodes)
	stats.TypeAttribute = report.TypeAttribute
	stats.ScalarSource = report.ScalarSource
	stats.NodeDataArrays = nodesMesh.PointData.Names()
	if report.TypeAttribute == "" {
		logger.Warn("no classification array on critical points, types default to 0", "arrays", stats.NodeDataArrays)
	}

	links, arcStats := ExtractArcs(arcsMesh, NewMatcher(nodes, opts.Tolerance))
	stats.Arcs = arcStats
	logger.Debug("matched arcs",
		"cells", arcStats.Cells,
		"links", arcStats.Links,
		"unmatched", arcStats.Unmatched,
		"self_loops", arcStats.SelfLoops,
		"degenerate", arcStats.Degenerate)

	return &graph.Graph{Nodes: nodes, Links: links}, stats, nil
}
