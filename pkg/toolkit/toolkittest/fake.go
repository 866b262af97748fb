// Package toolkittest provides an in-memory toolkit.Toolkit for tests.
package toolkittest

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/matzehuels/tachyview/pkg/toolkit"
)

// FilterSpec describes a fake filter.
type FilterSpec struct {
	// Properties maps each accepted property to its allowed values. An empty
	// list accepts any value.
	Properties map[string][]any

	// Outputs are returned by Output after Update, indexed by port.
	Outputs []*toolkit.Dataset

	// UpdateErr, if set, is returned by Update.
	UpdateErr error

	// Validate, if set, is called by Update with the current properties.
	// A non-nil result fails the update, the way a toolkit rejects values
	// only when the filter runs.
	Validate func(props map[string]any) error
}

// Toolkit is a fake toolkit. Sources lists every name in Filters plus
// Extra. It is safe for concurrent use.
type Toolkit struct {
	Filters map[string]*FilterSpec
	Extra   []string

	mu      sync.Mutex
	created []*Filter
}

// Sources implements toolkit.Toolkit.
func (t *Toolkit) Sources(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := slices.Clone(t.Extra)
	for name := range t.Filters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// NewFilter implements toolkit.Toolkit.
func (t *Toolkit) NewFilter(ctx context.Context, name string, input toolkit.Input) (toolkit.Filter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, ok := t.Filters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", toolkit.ErrUnknownSource, name)
	}
	f := &Filter{name: name, Input: input, Props: map[string]any{}, spec: spec}

	t.mu.Lock()
	t.created = append(t.created, f)
	t.mu.Unlock()
	return f, nil
}

// Created returns the filters made so far, in creation order.
func (t *Toolkit) Created() []*Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.created)
}

// Filter is a fake filter. Attempts records every SetProperty call,
// accepted or not.
type Filter struct {
	Input    toolkit.Input
	Props    map[string]any
	Attempts []Attempt
	Updated  bool
	Updates  int

	name string
	spec *FilterSpec
}

// Attempt is one SetProperty call.
type Attempt struct {
	Name  string
	Value any
	Err   error
}

// Name implements toolkit.Filter.
func (f *Filter) Name() string { return f.name }

// SetProperty implements toolkit.Filter.
func (f *Filter) SetProperty(name string, value any) error {
	err := f.check(name, value)
	f.Attempts = append(f.Attempts, Attempt{Name: name, Value: value, Err: err})
	if err != nil {
		return err
	}
	f.Props[name] = value
	return nil
}

func (f *Filter) check(name string, value any) error {
	allowed, ok := f.spec.Properties[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", toolkit.ErrUnknownProperty, f.name, name)
	}
	if len(allowed) == 0 {
		return nil
	}
	if slices.ContainsFunc(allowed, func(a any) bool { return reflect.DeepEqual(a, value) }) {
		return nil
	}
	return fmt.Errorf("%w: %s.%s = %v", toolkit.ErrInvalidValue, f.name, name, value)
}

// Update implements toolkit.Filter.
func (f *Filter) Update(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Updates++
	if f.spec.UpdateErr != nil {
		return f.spec.UpdateErr
	}
	if f.spec.Validate != nil {
		if err := f.spec.Validate(f.Props); err != nil {
			return err
		}
	}
	f.Updated = true
	return nil
}

// Output implements toolkit.Filter.
func (f *Filter) Output(port int) (*toolkit.Dataset, error) {
	if !f.Updated {
		return nil, fmt.Errorf("%s: output requested before update", f.name)
	}
	if port < 0 || port >= len(f.spec.Outputs) {
		return nil, fmt.Errorf("%w: %s port %d", toolkit.ErrNoOutput, f.name, port)
	}
	return f.spec.Outputs[port], nil
}
