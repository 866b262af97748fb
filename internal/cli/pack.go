package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tachyview/pkg/pipeline"
)

// packFlags holds the raw strings for vector flags; they are parsed after
// the config file is merged.
type packFlags struct {
	dims    string
	spacing string
	origin  string
}

// packCommand creates the pack command.
func (c *CLI) packCommand() *cobra.Command {
	var (
		opts  pipeline.Options
		flags packFlags
	)

	cmd := &cobra.Command{
		Use:   "pack <input.raw>",
		Short: "Pack a raw voxel dump into a VTK image volume (.vti)",
		Long: `Pack reads a flat binary file of unsigned samples and writes it as VTK
ImageData with a point scalar array named Scalars_.

The sample count must equal the product of the dimensions; otherwise
nothing is written.`,
		Example: `  tachyview pack skull.raw --dims 41,41,41 --origin -20.5,-20.5,-20.5 -o out/skull.vti
  tachyview pack ct.raw --dims 512x512x128 --sample-type uint16 --layout zyx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged := c.Config.PackOptions()
			if err := mergePackFlags(cmd, &merged, opts, flags); err != nil {
				return err
			}
			merged.Input = args[0]
			merged.Output = opts.Output
			if merged.Output == "" {
				merged.Output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".vti"
			}
			return c.runPack(cmd, merged)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "output .vti path (default: input with .vti extension)")
	f.StringVar(&flags.dims, "dims", "", "grid dimensions nx,ny,nz (required unless set in config)")
	f.StringVar(&flags.spacing, "spacing", "1,1,1", "grid spacing sx,sy,sz")
	f.StringVar(&flags.origin, "origin", "0,0,0", "grid origin ox,oy,oz")
	f.StringVar(&opts.SampleType, "sample-type", "uint8", "raw sample type: uint8, uint16 (little-endian)")
	f.StringVar(&opts.Layout, "layout", "xyz", "axis order in the file, fastest first: xyz, zyx")
	f.StringVar(&opts.ScalarType, "scalar-type", "UInt16", "output array type: UInt8, UInt16, Float32")
	f.StringVar(&opts.VolumeFormat, "format", pipeline.DefaultVolumeFormat, "array encoding: ascii, binary, compressed")

	return cmd
}

// mergePackFlags applies explicitly set flags over the config values. Flag
// defaults only fill fields the config left empty.
func mergePackFlags(cmd *cobra.Command, dst *pipeline.Options, flagOpts pipeline.Options, flags packFlags) error {
	set := func(name string) bool { return cmd.Flags().Changed(name) }

	if set("dims") || dst.Dims == ([3]int{}) {
		if flags.dims == "" {
			return fmt.Errorf("--dims is required (or set pack.dims in the config file)")
		}
		d, err := parseIntTriple(flags.dims)
		if err != nil {
			return fmt.Errorf("--dims: %w", err)
		}
		dst.Dims = d
	}
	if set("spacing") || dst.Spacing == ([3]float64{}) {
		s, err := parseFloatTriple(flags.spacing)
		if err != nil {
			return fmt.Errorf("--spacing: %w", err)
		}
		dst.Spacing = s
	}
	if set("origin") {
		o, err := parseFloatTriple(flags.origin)
		if err != nil {
			return fmt.Errorf("--origin: %w", err)
		}
		dst.Origin = o
	}
	if set("sample-type") || dst.SampleType == "" {
		dst.SampleType = flagOpts.SampleType
	}
	if set("layout") || dst.Layout == "" {
		dst.Layout = flagOpts.Layout
	}
	if set("scalar-type") || dst.ScalarType == "" {
		dst.ScalarType = flagOpts.ScalarType
	}
	if set("format") || dst.VolumeFormat == "" {
		dst.VolumeFormat = flagOpts.VolumeFormat
	}
	return nil
}

func (c *CLI) runPack(cmd *cobra.Command, opts pipeline.Options) error {
	runner, err := c.newRunner()
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Pack(cmd.Context(), opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("packed %s", filepath.Base(opts.Input)))

	printSuccess(c.Out, "Packed %d samples (%dx%dx%d)", res.Samples, res.Dims[0], res.Dims[1], res.Dims[2])
	printDetail(c.Out, "range %g..%g · mean %.4g", res.Stats.Min, res.Stats.Max, res.Stats.Mean)
	printFile(c.Out, res.Output)
	printNextStep(c.Out, "Extract its merge tree", "tachyview extract "+res.Output)
	return nil
}
