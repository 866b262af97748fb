package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tachyview/pkg/pipeline"
)

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	var (
		opts         pipeline.Options
		segmentation bool
	)

	cmd := &cobra.Command{
		Use:   "extract <volume.vti>",
		Short: "Extract the merge tree of a volume as graph JSON",
		Long: `Extract runs the Topology ToolKit merge-tree filter on a volume and
writes its critical points and arcs as a node/link graph.

Nodes carry the critical type, scalar value and position of each critical
point. Arcs become links between nodes whose positions match the arc
endpoints. Results are cached by volume content and settings.`,
		Example: `  tachyview extract skull.vti
  tachyview extract skull.vti --tree split -o split.json --parquet tables/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged := c.Config.ExtractOptions()
			set := cmd.Flags().Changed
			if set("tree") || merged.TreeType == "" {
				merged.TreeType = opts.TreeType
			}
			if set("segmentation") {
				merged.NoSegmentation = !segmentation
			}
			if set("tolerance") {
				merged.Tolerance = opts.Tolerance
			}
			if set("type-array") {
				merged.ClassificationNames = opts.ClassificationNames
			}
			if set("scalar-array") {
				merged.ScalarNames = opts.ScalarNames
			}
			if set("parquet") {
				merged.ParquetDir = opts.ParquetDir
			}
			merged.Volume = args[0]
			merged.Output = opts.Output
			if merged.Output == "" {
				merged.Output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_graph.json"
			}
			merged.Refresh = opts.Refresh
			return c.runExtract(cmd, merged)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "graph JSON path (default: <volume>_graph.json)")
	f.StringVarP(&opts.TreeType, "tree", "t", pipeline.DefaultTreeType, "tree variant: join, split, join-split, contour")
	f.BoolVar(&segmentation, "segmentation", true, "ask the filter to compute the segmentation")
	f.Float64Var(&opts.Tolerance, "tolerance", 0, "squared distance for matching arc endpoints to nodes (default 1e-5)")
	f.StringSliceVar(&opts.ClassificationNames, "type-array", nil, "point arrays probed for the critical type, in order")
	f.StringSliceVar(&opts.ScalarNames, "scalar-array", nil, "point arrays probed for the scalar, in order")
	f.StringVar(&opts.ParquetDir, "parquet", "", "also write nodes/links Parquet tables to this directory")
	f.BoolVar(&opts.Refresh, "refresh", false, "ignore cached results")

	return cmd
}

func (c *CLI) runExtract(cmd *cobra.Command, opts pipeline.Options) error {
	runner, err := c.newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	var res *pipeline.ExtractResult
	err = spin(cmd.Context(), cmd.ErrOrStderr(), "Computing merge tree...", func() error {
		var err error
		res, err = runner.Extract(cmd.Context(), opts)
		return err
	})
	if err != nil {
		return err
	}

	printSuccess(c.Out, "Extracted merge tree")
	printStats(c.Out, res.Graph.NodeCount(), res.Graph.LinkCount(), res.CacheHit)
	if !res.CacheHit && res.Stats.Arcs.Dropped() > 0 {
		printWarning(c.Out, "%d of %d arcs dropped (%d unmatched, %d self-loops, %d degenerate)",
			res.Stats.Arcs.Dropped(), res.Stats.Arcs.Cells,
			res.Stats.Arcs.Unmatched, res.Stats.Arcs.SelfLoops, res.Stats.Arcs.Degenerate)
	}
	printFile(c.Out, res.Output)
	if res.Parquet != "" {
		printFile(c.Out, res.Parquet)
	}
	printNextStep(c.Out, "Render it", "tachyview render "+res.Output+" -o tree.svg")
	return nil
}
