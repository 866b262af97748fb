package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tachyview/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Draw a merge-tree graph as a node-link diagram",
		Long: `Render lays out a graph written by extract with Graphviz. The output
format follows the extension of --output: .dot, .svg, .png or .pdf.
PDF output needs rsvg-convert on PATH.`,
		Example: `  tachyview render skull_graph.json -o tree.svg
  tachyview render skull_graph.json -o tree.png --detailed --rankdir LR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged := c.Config.RenderOptions()
			if cmd.Flags().Changed("detailed") {
				merged.Detailed = opts.Detailed
			}
			if cmd.Flags().Changed("rankdir") || merged.RankDir == "" {
				merged.RankDir = opts.RankDir
			}
			merged.Graph = args[0]
			merged.Output = opts.Output
			if merged.Output == "" {
				merged.Output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".svg"
			}
			return c.runRender(cmd, merged)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "output file (default: <graph>.svg)")
	f.BoolVar(&opts.Detailed, "detailed", false, "label nodes with scalar and position")
	f.StringVar(&opts.RankDir, "rankdir", "BT", "layout direction: BT, TB, LR, RL")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, opts pipeline.Options) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	res, err := runner.Render(cmd.Context(), opts)
	if err != nil {
		return err
	}
	printSuccess(c.Out, "Rendered %d nodes as %s", res.Nodes, strings.ToUpper(string(res.Format)))
	printFile(c.Out, res.Output)
	return nil
}
