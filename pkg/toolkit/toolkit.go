// Package toolkit abstracts the external visualization toolkit that runs
// resampling and topological analysis.
//
// tachyview never reimplements those algorithms. It drives them through the
// [Toolkit] interface: look up a filter by name, set its properties, update it
// and fetch the datasets on its output ports. The ParaView binding lives in
// the paraview subpackage; toolkittest provides an in-memory fake for tests.
package toolkit

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/tachyview/pkg/vtk"
)

var (
	// ErrUnknownSource is returned by NewFilter when no filter has the name.
	ErrUnknownSource = errors.New("unknown filter")

	// ErrUnknownProperty is returned when a filter has no such property.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidValue is returned when a property rejects a value, for
	// example a symbolic enumeration name the installed version spells
	// differently.
	ErrInvalidValue = errors.New("invalid property value")

	// ErrNoOutput is returned for an output port the filter does not have.
	ErrNoOutput = errors.New("no such output port")
)

// PropertyError reports a property the toolkit refused, either when it was
// set or later when the filter ran. Err is ErrUnknownProperty or
// ErrInvalidValue.
type PropertyError struct {
	Property string
	Detail   string
	Err      error
}

func (e *PropertyError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Property)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Property, e.Detail)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// IsRejectedValue reports whether err says the toolkit refused the value of
// the named property.
func IsRejectedValue(err error, property string) bool {
	var pe *PropertyError
	return errors.As(err, &pe) && pe.Property == property && errors.Is(pe.Err, ErrInvalidValue)
}

// Input names a dataset file and the dataset kind to read it as.
type Input struct {
	Path string
	Kind vtk.Kind
}

// Dataset is one filter output. Exactly one of Image and Mesh is set.
type Dataset struct {
	Kind  vtk.Kind
	Image *vtk.ImageData
	Mesh  *vtk.Mesh
}

// Toolkit is an external visualization toolkit.
type Toolkit interface {
	// Sources lists the filter names the toolkit can instantiate.
	Sources(ctx context.Context) ([]string, error)

	// NewFilter creates the named filter reading from input.
	NewFilter(ctx context.Context, name string, input Input) (Filter, error)
}

// Filter is a configured pipeline stage.
type Filter interface {
	Name() string

	// SetProperty assigns a property. Values are strings, ints, floats,
	// bools or slices of those.
	SetProperty(name string, value any) error

	// Update runs the filter. Outputs are available afterwards.
	Update(ctx context.Context) error

	// Output returns the dataset on the given port.
	Output(port int) (*Dataset, error)
}

// FindSource returns the first of candidates the toolkit provides.
func FindSource(ctx context.Context, tk Toolkit, candidates ...string) (string, error) {
	sources, err := tk.Sources(ctx)
	if err != nil {
		return "", err
	}
	for _, name := range candidates {
		if slices.Contains(sources, name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: none of %s", ErrUnknownSource, strings.Join(candidates, ", "))
}

// RelatedSources returns the sources whose names contain any of the given
// substrings, preserving toolkit order. Used for diagnostics when a filter
// cannot be found.
func RelatedSources(sources []string, substrings ...string) []string {
	var out []string
	for _, s := range sources {
		for _, sub := range substrings {
			if strings.Contains(s, sub) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// ImageOutput fetches port as image data.
func ImageOutput(f Filter, port int) (*vtk.ImageData, error) {
	ds, err := f.Output(port)
	if err != nil {
		return nil, err
	}
	if ds.Image == nil {
		return nil, fmt.Errorf("%s port %d: %w: got %s, want ImageData", f.Name(), port, vtk.ErrKindMismatch, ds.Kind)
	}
	return ds.Image, nil
}

// MeshOutput fetches port as a mesh.
func MeshOutput(f Filter, port int) (*vtk.Mesh, error) {
	ds, err := f.Output(port)
	if err != nil {
		return nil, err
	}
	if ds.Mesh == nil {
		return nil, fmt.Errorf("%s port %d: %w: got %s, want a mesh", f.Name(), port, vtk.ErrKindMismatch, ds.Kind)
	}
	return ds.Mesh, nil
}
