package paraview

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/tachyview/pkg/toolkit"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// Filter is a ParaView proxy description plus pending property values.
// Update replays the whole pipeline in a new pvpython process.
type Filter struct {
	tk    *Toolkit
	name  string
	input toolkit.Input
	info  map[string]propertyInfo
	ports int

	props   [][2]any
	outputs []*toolkit.Dataset
}

// Name implements toolkit.Filter.
func (f *Filter) Name() string { return f.name }

// SetProperty implements toolkit.Filter. Symbolic values of enumeration
// properties are checked against the names the installed ParaView reports.
func (f *Filter) SetProperty(name string, value any) error {
	info, ok := f.info[name]
	if !ok {
		return &toolkit.PropertyError{Property: name, Detail: f.name, Err: toolkit.ErrUnknownProperty}
	}
	if s, isString := value.(string); isString && len(info.Available) > 0 && !slices.Contains(info.Available, s) {
		return &toolkit.PropertyError{
			Property: name,
			Detail:   fmt.Sprintf("%q not in %v", s, info.Available),
			Err:      toolkit.ErrInvalidValue,
		}
	}

	for i, p := range f.props {
		if p[0] == name {
			f.props[i][1] = value
			return nil
		}
	}
	f.props = append(f.props, [2]any{name, value})
	return nil
}

// Update implements toolkit.Filter.
func (f *Filter) Update(ctx context.Context) error {
	j := job{
		Mode:       "run",
		Filter:     f.name,
		Input:      &jobInput{Path: f.input.Path, Kind: string(f.input.Kind)},
		Properties: f.props,
	}
	_, err := f.tk.run(ctx, j, func(resp *response) error {
		outputs := make([]*toolkit.Dataset, max(f.ports, len(resp.Outputs)))
		for _, o := range resp.Outputs {
			if o.Port < 0 || o.Port >= len(outputs) {
				return fmt.Errorf("pvpython reported port %d of %d", o.Port, len(outputs))
			}
			ds, err := readDataset(o)
			if err != nil {
				return fmt.Errorf("%s port %d: %w", f.name, o.Port, err)
			}
			outputs[o.Port] = ds
		}
		f.outputs = outputs
		return nil
	})
	return err
}

func readDataset(o outputInfo) (*toolkit.Dataset, error) {
	kind := vtk.Kind(o.Kind)
	if kind == vtk.KindImageData {
		im, err := vtk.ReadImageDataFile(o.Path)
		if err != nil {
			return nil, err
		}
		return &toolkit.Dataset{Kind: kind, Image: im}, nil
	}
	m, err := vtk.ReadMeshFile(o.Path)
	if err != nil {
		return nil, err
	}
	return &toolkit.Dataset{Kind: kind, Mesh: m}, nil
}

// Output implements toolkit.Filter.
func (f *Filter) Output(port int) (*toolkit.Dataset, error) {
	if f.outputs == nil {
		return nil, fmt.Errorf("%s: output requested before update", f.name)
	}
	if port < 0 || port >= len(f.outputs) || f.outputs[port] == nil {
		return nil, fmt.Errorf("%w: %s port %d", toolkit.ErrNoOutput, f.name, port)
	}
	return f.outputs[port], nil
}
