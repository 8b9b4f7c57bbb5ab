package standardize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		mean    []float64
		std     []float64
		wantErr bool
	}{
		{"Valid", []float64{40, 50000}, []float64{10, 20000}, false},
		{"Empty", nil, nil, true},
		{"LengthMismatch", []float64{1, 2}, []float64{1}, true},
		{"ZeroStd", []float64{1}, []float64{0}, true},
		{"NegativeStd", []float64{1}, []float64{-1}, true},
		{"NaNStd", []float64{1}, []float64{math.NaN()}, true},
		{"InfStd", []float64{1}, []float64{math.Inf(1)}, true},
		{"NaNMean", []float64{math.NaN()}, []float64{1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mean, tt.std)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := New([]float64{1}, []float64{0})
	var scaleErr *ErrInvalidScale
	require.ErrorAs(t, err, &scaleErr)
	assert.Equal(t, 0, scaleErr.Position)
}

func TestTransform(t *testing.T) {
	s, err := New([]float64{40, 50000}, []float64{10, 20000})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Dimension())

	t.Run("Example", func(t *testing.T) {
		z, err := s.Transform([]float64{50, 70000})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 1}, z, 1e-12)
	})

	t.Run("MeanIsZeroVector", func(t *testing.T) {
		z, err := s.Transform(s.Mean())
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, z)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := s.Transform([]float64{1})
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 1, dm.Actual)
	})

	t.Run("ParametersAreCopied", func(t *testing.T) {
		mean := []float64{1}
		s2, err := New(mean, []float64{1})
		require.NoError(t, err)
		mean[0] = 100
		assert.Equal(t, []float64{1}, s2.Mean())
		assert.Equal(t, []float64{1}, s2.Std())
	})
}
