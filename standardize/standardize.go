// Package standardize applies pre-fitted per-feature z-score scaling.
package standardize

import (
	"fmt"
	"math"
	"slices"
)

// ErrDimensionMismatch indicates a vector whose length differs from the
// number of fitted features.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("standardize: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidScale indicates a non-positive or non-finite standard deviation.
type ErrInvalidScale struct {
	Position int
	Value    float64
}

func (e *ErrInvalidScale) Error() string {
	return fmt.Sprintf("standardize: invalid scale %v at position %d", e.Value, e.Position)
}

// Standardizer holds fitted (mean, std) pairs aligned with a feature schema.
// It is immutable and safe for concurrent use.
type Standardizer struct {
	mean []float64
	std  []float64
}

// New creates a Standardizer. mean and std must have equal, non-zero length,
// every value must be finite and every std must be > 0.
func New(mean, std []float64) (*Standardizer, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("standardize: no parameters")
	}
	if len(mean) != len(std) {
		return nil, &ErrDimensionMismatch{Expected: len(mean), Actual: len(std)}
	}
	for i := range mean {
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, fmt.Errorf("standardize: non-finite mean %v at position %d", mean[i], i)
		}
		if !(std[i] > 0) || math.IsInf(std[i], 0) {
			return nil, &ErrInvalidScale{Position: i, Value: std[i]}
		}
	}
	return &Standardizer{mean: slices.Clone(mean), std: slices.Clone(std)}, nil
}

// Dimension returns the number of features.
func (s *Standardizer) Dimension() int { return len(s.mean) }

// Mean returns a copy of the fitted means.
func (s *Standardizer) Mean() []float64 { return slices.Clone(s.mean) }

// Std returns a copy of the fitted standard deviations.
func (s *Standardizer) Std() []float64 { return slices.Clone(s.std) }

// Transform returns (v[i] - mean[i]) / std[i] for every position.
func (s *Standardizer) Transform(v []float64) ([]float64, error) {
	if len(v) != len(s.mean) {
		return nil, &ErrDimensionMismatch{Expected: len(s.mean), Actual: len(v)}
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = (x - s.mean[i]) / s.std[i]
	}
	return out, nil
}
