package vtk

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrUnsupported is returned for valid VTK files that use a feature this
	// package does not implement (raw appended data, unknown compressors).
	ErrUnsupported = errors.New("unsupported VTK feature")

	// ErrMalformed is returned when a file violates the VTK XML layout.
	ErrMalformed = errors.New("malformed VTK file")

	// ErrKindMismatch is returned when a reader is asked for a dataset kind
	// that the file does not contain.
	ErrKindMismatch = errors.New("dataset kind mismatch")
)

// ScalarType is the element type name of a DataArray, as spelled in the
// VTK XML "type" attribute.
type ScalarType string

// Supported element types.
const (
	Int8    ScalarType = "Int8"
	UInt8   ScalarType = "UInt8"
	Int16   ScalarType = "Int16"
	UInt16  ScalarType = "UInt16"
	Int32   ScalarType = "Int32"
	UInt32  ScalarType = "UInt32"
	Int64   ScalarType = "Int64"
	UInt64  ScalarType = "UInt64"
	Float32 ScalarType = "Float32"
	Float64 ScalarType = "Float64"
)

var scalarSizes = map[ScalarType]int{
	Int8: 1, UInt8: 1,
	Int16: 2, UInt16: 2,
	Int32: 4, UInt32: 4, Float32: 4,
	Int64: 8, UInt64: 8, Float64: 8,
}

// ParseScalarType validates a type name. Legacy aliases used by older VTK
// writers ("Char", "UnsignedShort", ...) are not accepted.
func ParseScalarType(s string) (ScalarType, error) {
	t := ScalarType(s)
	if _, ok := scalarSizes[t]; !ok {
		return "", fmt.Errorf("%w: data type %q", ErrUnsupported, s)
	}
	return t, nil
}

// Size returns the byte width of one element, or 0 for unknown types.
func (t ScalarType) Size() int { return scalarSizes[t] }

// IsFloat reports whether t is a floating-point type.
func (t ScalarType) IsFloat() bool { return t == Float32 || t == Float64 }

// Limits returns the representable range of t.
func (t ScalarType) Limits() (lo, hi float64) {
	switch t {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case UInt8:
		return 0, math.MaxUint8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case UInt16:
		return 0, math.MaxUint16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case UInt32:
		return 0, math.MaxUint32
	case Int64:
		return math.MinInt64, math.MaxInt64
	case UInt64:
		return 0, math.MaxUint64
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}

// DataArray is a named array of tuples. Values are stored widened to
// float64 regardless of Type; Type controls the on-disk encoding.
type DataArray struct {
	Name       string
	Type       ScalarType
	Components int
	Values     []float64
}

// NewDataArray creates a single-component array.
func NewDataArray(name string, t ScalarType, values []float64) *DataArray {
	return &DataArray{Name: name, Type: t, Components: 1, Values: values}
}

// NumComponents returns the tuple width (at least 1).
func (a *DataArray) NumComponents() int {
	if a.Components < 1 {
		return 1
	}
	return a.Components
}

// Len returns the number of tuples.
func (a *DataArray) Len() int { return len(a.Values) / a.NumComponents() }

// Value returns the first component of tuple i.
func (a *DataArray) Value(i int) float64 { return a.Values[i*a.NumComponents()] }

// Tuple returns tuple i. The slice aliases the array's storage.
func (a *DataArray) Tuple(i int) []float64 {
	c := a.NumComponents()
	return a.Values[i*c : (i+1)*c]
}

// Range returns the minimum and maximum over all values. An empty array
// returns (0, 0).
func (a *DataArray) Range() (lo, hi float64) {
	if len(a.Values) == 0 {
		return 0, 0
	}
	return slices.Min(a.Values), slices.Max(a.Values)
}

// FieldData is an ordered collection of arrays attached to points or cells.
// ActiveScalars names the array VTK treats as "the" scalars, if any.
type FieldData struct {
	Arrays        []*DataArray
	ActiveScalars string
}

// Add appends an array. An array with the same name is replaced in place.
func (f *FieldData) Add(a *DataArray) {
	for i, existing := range f.Arrays {
		if existing.Name == a.Name {
			f.Arrays[i] = a
			return
		}
	}
	f.Arrays = append(f.Arrays, a)
}

// SetScalars adds a and marks it as the active scalars.
func (f *FieldData) SetScalars(a *DataArray) {
	f.Add(a)
	f.ActiveScalars = a.Name
}

// Array returns the array with the given name.
func (f *FieldData) Array(name string) (*DataArray, bool) {
	for _, a := range f.Arrays {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// HasArray reports whether an array with the given name exists.
func (f *FieldData) HasArray(name string) bool {
	_, ok := f.Array(name)
	return ok
}

// Scalars returns the active scalars array, or nil if none is marked.
func (f *FieldData) Scalars() *DataArray {
	if f.ActiveScalars == "" {
		return nil
	}
	a, _ := f.Array(f.ActiveScalars)
	return a
}

// Names returns the array names in insertion order.
func (f *FieldData) Names() []string {
	names := make([]string, len(f.Arrays))
	for i, a := range f.Arrays {
		names[i] = a.Name
	}
	return names
}
