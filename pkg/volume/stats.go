package volume

import (
	"math"
	"slices"

	"github.com/DataDog/sketches-go/ddsketch"
	"gonum.org/v1/gonum/stat"

	errs "github.com/matzehuels/tachyview/pkg/errors"
	"github.com/matzehuels/tachyview/pkg/vtk"
)

// Stats summarizes the scalar values of a volume. Quantiles come from a
// DDSketch with 1% relative accuracy.
type Stats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
}

// ComputeStats summarizes values. An empty slice returns the zero Stats.
func ComputeStats(values []float64) (Stats, error) {
	if len(values) == 0 {
		return Stats{}, nil
	}

	sketch, err := ddsketch.NewDefaultDDSketch(0.01)
	if err != nil {
		return Stats{}, errs.Wrap(errs.ErrCodeInternal, err, "create sketch")
	}
	for _, v := range values {
		if err := sketch.Add(v); err != nil {
			return Stats{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "add value %v", v)
		}
	}

	s := Stats{
		Count: len(values),
		Min:   slices.Min(values),
		Max:   slices.Max(values),
		Mean:  stat.Mean(values, nil),
	}
	if len(values) > 1 {
		s.StdDev = math.Sqrt(stat.Variance(values, nil))
	}
	s.P50, _ = sketch.GetValueAtQuantile(0.50)
	s.P90, _ = sketch.GetValueAtQuantile(0.90)
	s.P99, _ = sketch.GetValueAtQuantile(0.99)
	return s, nil
}

// ImageStats summarizes the active scalars of im.
func ImageStats(im *vtk.ImageData) (Stats, error) {
	s := im.Scalars()
	if s == nil {
		return Stats{}, errs.New(errs.ErrCodeInvalidInput, "image has no point scalars")
	}
	if s.NumComponents() == 1 {
		return ComputeStats(s.Values)
	}
	first := make([]float64, s.Len())
	for i := range first {
		first[i] = s.Value(i)
	}
	return ComputeStats(first)
}
