package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Simple", []float64{1, 2, 3}, []float64{4, 5, 6}, 32},
		{"Zero", []float64{0, 0, 0}, []float64{0, 0, 0}, 0},
		{"Mixed", []float64{1, -1, 2}, []float64{1, 1, -2}, -4},
		{"Empty", []float64{}, []float64{}, 0},
		{"Single", []float64{2}, []float64{3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Dot(tt.a, tt.b), 1e-12)
		})
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Simple", []float64{1, 2, 3}, []float64{4, 5, 6}, 27},
		{"Identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"Mixed", []float64{1, -1}, []float64{-1, 1}, 8},
		{"Empty", []float64{}, []float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SquaredL2(tt.a, tt.b), 1e-12)
		})
	}
}

func TestEuclidean(t *testing.T) {
	assert.InDelta(t, math.Sqrt2, Euclidean([]float64{1, 1}, []float64{0, 0}), 1e-12)
	assert.InDelta(t, math.Sqrt2, Euclidean([]float64{1, 1}, []float64{2, 2}), 1e-12)
	assert.Equal(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 0, Cosine([]float64{1, 0}, []float64{2, 0}), 1e-12)
	assert.InDelta(t, 1, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.Equal(t, 1.0, Cosine([]float64{0, 0}, []float64{1, 1}))
}

func TestNormalizeL2(t *testing.T) {
	t.Run("InPlace", func(t *testing.T) {
		v := []float64{3, 4}
		assert.True(t, NormalizeL2InPlace(v))
		assert.InDelta(t, 0.6, v[0], 1e-12)
		assert.InDelta(t, 0.8, v[1], 1e-12)

		assert.False(t, NormalizeL2InPlace([]float64{0, 0}))
		assert.False(t, NormalizeL2InPlace([]float64{}))
	})

	t.Run("Copy", func(t *testing.T) {
		v := []float64{1, 0}
		dst, ok := NormalizeL2Copy(v)
		assert.True(t, ok)
		assert.Equal(t, 1.0, dst[0])
		assert.NotSame(t, &v[0], &dst[0])

		dst, ok = NormalizeL2Copy([]float64{0, 0})
		assert.False(t, ok)
		assert.Nil(t, dst)
	})
}

func TestMetric(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "L2", MetricL2.String())
		assert.Equal(t, "Euclidean", MetricEuclidean.String())
		assert.Equal(t, "Cosine", MetricCosine.String())
		assert.Equal(t, "Unknown(99)", Metric(99).String())
	})

	t.Run("Provider", func(t *testing.T) {
		f, err := Provider(MetricL2)
		require.NoError(t, err)
		assert.InDelta(t, 27, f([]float64{1, 2, 3}, []float64{4, 5, 6}), 1e-12)

		f, err = Provider(MetricEuclidean)
		require.NoError(t, err)
		assert.InDelta(t, 5, f([]float64{0, 0}, []float64{3, 4}), 1e-12)

		_, err = Provider(MetricCosine)
		require.NoError(t, err)

		_, err = Provider(Metric(99))
		assert.Error(t, err)
	})
}
