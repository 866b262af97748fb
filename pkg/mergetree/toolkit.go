package mergetree

import (
	"context"
	"errors"
	"slices"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/toolkit"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// DefaultFilterNames are the merge-tree filter names tried in order.
var DefaultFilterNames = []string{"TTKFTMTree", "FTMTree"}

// Output ports of the merge-tree filter.
const (
	NodesPort = 0
	ArcsPort  = 1
)

// ToolkitComputer computes merge trees with a toolkit filter.
type ToolkitComputer struct {
	Toolkit     toolkit.Toolkit
	FilterNames []string
	Logger      *log.Logger
}

// NewToolkitComputer creates a computer using DefaultFilterNames.
func NewToolkitComputer(tk toolkit.Toolkit, logger *log.Logger) *ToolkitComputer {
	if logger == nil {
		logger = log.Default()
	}
	return &ToolkitComputer{Toolkit: tk, FilterNames: DefaultFilterNames, Logger: logger}
}

// ComputeMergeTree implements Computer.
func (c *ToolkitComputer) ComputeMergeTree(ctx context.Context, volumePath string, variant TreeVariant, withSegmentation bool) (*vtk.Mesh, *vtk.Mesh, error) {
	names := c.FilterNames
	if len(names) == 0 {
		names = DefaultFilterNames
	}

	sources, err := c.Toolkit.Sources(ctx)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrCodeToolkit, err, "list toolkit filters")
	}
	idx := slices.IndexFunc(names, func(n string) bool { return slices.Contains(sources, n) })
	if idx < 0 {
		return nil, nil, errs.CapabilityNotFound("merge-tree filter", names, toolkit.RelatedSources(sources, "TTK", "FTM"))
	}
	name := names[idx]
	c.Logger.Debug("using merge-tree filter", "name", name)

	f, err := c.Toolkit.NewFilter(ctx, name, toolkit.Input{Path: volumePath, Kind: vtk.KindImageData})
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrCodeToolkit, err, "create %s", name)
	}

	symbolic, err := c.setTreeType(f, variant)
	if err != nil {
		return nil, nil, err
	}
	seg := 0
	if withSegmentation {
		seg = 1
	}
	if err := f.SetProperty("WithSegmentation", seg); err != nil {
		if !errors.Is(err, toolkit.ErrUnknownProperty) {
			return nil, nil, errs.Wrap(errs.ErrCodeToolkit, err, "set WithSegmentation")
		}
		c.Logger.Warn("filter has no WithSegmentation property, using its default", "filter", name)
	}

	err = f.Update(ctx)
	if err != nil && symbolic && toolkit.IsRejectedValue(err, "TreeType") {
		// Some releases accept any string when the property is set and
		// only reject it once the filter runs.
		c.Logger.Warn("symbolic TreeType rejected on update, retrying with numeric code",
			"value", variant.String(), "code", int(variant), "err", err)
		if err := f.SetProperty("TreeType", int(variant)); err != nil {
			return nil, nil, errs.Wrap(errs.ErrCodeToolkit, err, "set TreeType")
		}
		err = f.Update(ctx)
	}
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrCodeToolkit, err, "update %s", name)
	}
	nodes, err := toolkit.MeshOutput(f, NodesPort)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrCodeToolkit, err, "fetch critical points")
	}
	arcs, err := toolkit.MeshOutput(f, ArcsPort)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrCodeToolkit, err, "fetch arcs")
	}
	return nodes, arcs, nil
}

// setTreeType assigns the symbolic variant name and falls back to the
// numeric code when the toolkit spells the enumeration differently. It
// reports whether the symbolic name is the value in effect.
func (c *ToolkitComputer) setTreeType(f toolkit.Filter, variant TreeVariant) (bool, error) {
	err := f.SetProperty("TreeType", variant.String())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, toolkit.ErrUnknownProperty):
		c.Logger.Warn("filter has no TreeType property, using its default", "filter", f.Name())
		return false, nil
	}

	c.Logger.Warn("symbolic TreeType rejected, falling back to numeric code",
		"value", variant.String(), "code", int(variant), "err", err)
	if err := f.SetProperty("TreeType", int(variant)); err != nil {
		return false, errs.Wrap(errs.ErrCodeToolkit, err, "set TreeType")
	}
	return false, nil
}
