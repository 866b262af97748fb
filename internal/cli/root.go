package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tachyview/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The project config is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Tachyview packs volumes and extracts merge trees",
		Long: `Tachyview turns raw voxel dumps and meshes into VTK image volumes and
extracts merge-tree graphs from them with the Topology ToolKit.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "project config file (tachyview.toml or .yaml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the result cache")

	root.AddCommand(c.packCommand())
	root.AddCommand(c.resampleCommand())
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
