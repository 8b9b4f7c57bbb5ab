// Package projection implements the linear map from standardized feature space
// into principal-component space.
//
// The projector holds a numFeatures×numComponents matrix and an optional
// per-component offset that is subtracted after the multiplication:
//
//	out[j] = Σ_i v[i]·M[i][j] − offset[j]
//
// Artifacts fitted by estimators that store components row-wise together with a
// per-feature mean can be converted with FromComponents, which folds the mean
// into the offset.
package projection

import (
	"fmt"
	"math"
	"slices"
)

// ErrDimensionMismatch indicates a vector or artifact with the wrong shape.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("projection: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Projector is an immutable linear projection. Safe for concurrent use.
type Projector struct {
	features   int
	components int
	matrix     []float64 // row-major, features × components
	offset     []float64 // nil when no offset is applied
}

// New creates a Projector from a numFeatures×numComponents matrix.
// offset may be nil; otherwise it must have numComponents entries.
func New(matrix [][]float64, offset []float64) (*Projector, error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, fmt.Errorf("projection: empty matrix")
	}
	features, components := len(matrix), len(matrix[0])
	p := &Projector{
		features:   features,
		components: components,
		matrix:     make([]float64, 0, features*components),
	}
	for i, row := range matrix {
		if len(row) != components {
			return nil, fmt.Errorf("projection: row %d: %w", i, &ErrDimensionMismatch{Expected: components, Actual: len(row)})
		}
		for j, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("projection: non-finite value at [%d][%d]", i, j)
			}
		}
		p.matrix = append(p.matrix, row...)
	}
	if offset != nil {
		if len(offset) != components {
			return nil, fmt.Errorf("projection: offset: %w", &ErrDimensionMismatch{Expected: components, Actual: len(offset)})
		}
		p.offset = slices.Clone(offset)
	}
	return p, nil
}

// FromComponents converts a row-wise components layout (numComponents ×
// numFeatures) with an optional per-feature mean into a Projector.
func FromComponents(components [][]float64, mean []float64) (*Projector, error) {
	if len(components) == 0 || len(components[0]) == 0 {
		return nil, fmt.Errorf("projection: empty components")
	}
	nc, nf := len(components), len(components[0])
	matrix := make([][]float64, nf)
	for i := range matrix {
		matrix[i] = make([]float64, nc)
	}
	for j, row := range components {
		if len(row) != nf {
			return nil, fmt.Errorf("projection: component %d: %w", j, &ErrDimensionMismatch{Expected: nf, Actual: len(row)})
		}
		for i, x := range row {
			matrix[i][j] = x
		}
	}

	var offset []float64
	if len(mean) > 0 {
		if len(mean) != nf {
			return nil, fmt.Errorf("projection: mean: %w", &ErrDimensionMismatch{Expected: nf, Actual: len(mean)})
		}
		offset = make([]float64, nc)
		for j, row := range components {
			for i, x := range row {
				offset[j] += mean[i] * x
			}
		}
	}
	return New(matrix, offset)
}

// Features returns the input dimension.
func (p *Projector) Features() int { return p.features }

// Components returns the output dimension.
func (p *Projector) Components() int { return p.components }

// Matrix returns a copy of the matrix as rows of length Components().
func (p *Projector) Matrix() [][]float64 {
	out := make([][]float64, p.features)
	for i := range out {
		out[i] = slices.Clone(p.matrix[i*p.components : (i+1)*p.components])
	}
	return out
}

// Offset returns a copy of the per-component offset, or nil.
func (p *Projector) Offset() []float64 { return slices.Clone(p.offset) }

// Project maps a standardized vector into component space.
func (p *Projector) Project(v []float64) ([]float64, error) {
	if len(v) != p.features {
		return nil, &ErrDimensionMismatch{Expected: p.features, Actual: len(v)}
	}
	out := make([]float64, p.components)
	for i, x := range v {
		if x == 0 {
			continue
		}
		row := p.matrix[i*p.components : (i+1)*p.components]
		for j, m := range row {
			out[j] += x * m
		}
	}
	for j := range p.offset {
		out[j] -= p.offset[j]
	}
	return out, nil
}
