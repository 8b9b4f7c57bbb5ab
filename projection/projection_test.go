package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := New(nil, nil)
		assert.Error(t, err)
		_, err = New([][]float64{{}}, nil)
		assert.Error(t, err)
	})

	t.Run("Ragged", func(t *testing.T) {
		_, err := New([][]float64{{1, 0}, {1}}, nil)
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
	})

	t.Run("BadOffset", func(t *testing.T) {
		_, err := New([][]float64{{1, 0}, {0, 1}}, []float64{1})
		var dm *ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)
	})

	t.Run("NonFinite", func(t *testing.T) {
		_, err := New([][]float64{{math.NaN()}}, nil)
		assert.Error(t, err)
	})

	t.Run("Shape", func(t *testing.T) {
		p, err := New([][]float64{{1, 2, 3}, {4, 5, 6}}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Features())
		assert.Equal(t, 3, p.Components())
		assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, p.Matrix())
		assert.Nil(t, p.Offset())
	})
}

func TestProject(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		p, err := New([][]float64{{1, 0}, {0, 1}}, nil)
		require.NoError(t, err)
		out, err := p.Project([]float64{1, 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1}, out)
	})

	t.Run("Reduction", func(t *testing.T) {
		// 3 features -> 1 component.
		p, err := New([][]float64{{1}, {2}, {3}}, nil)
		require.NoError(t, err)
		out, err := p.Project([]float64{1, 1, 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{6}, out)
	})

	t.Run("Offset", func(t *testing.T) {
		p, err := New([][]float64{{1, 0}, {0, 1}}, []float64{0.5, -0.5})
		require.NoError(t, err)
		out, err := p.Project([]float64{1, 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, 1.5}, out)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		p, err := New([][]float64{{1, 0}, {0, 1}}, nil)
		require.NoError(t, err)
		_, err = p.Project([]float64{1, 2, 3})
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
	})
}

func TestFromComponents(t *testing.T) {
	// Two components over three features, fitted with a non-zero mean.
	components := [][]float64{
		{0.6, 0.8, 0},
		{0, 0, 1},
	}
	mean := []float64{1, 2, 3}

	p, err := FromComponents(components, mean)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Features())
	assert.Equal(t, 2, p.Components())

	v := []float64{2, 1, 5}
	got, err := p.Project(v)
	require.NoError(t, err)

	// Reference: components · (v − mean).
	want := []float64{
		0.6*(2-1) + 0.8*(1-2),
		1 * (5 - 3),
	}
	assert.InDeltaSlice(t, want, got, 1e-12)

	t.Run("NoMean", func(t *testing.T) {
		p, err := FromComponents(components, nil)
		require.NoError(t, err)
		assert.Nil(t, p.Offset())
	})

	t.Run("BadMean", func(t *testing.T) {
		_, err := FromComponents(components, []float64{1})
		assert.Error(t, err)
	})

	t.Run("Ragged", func(t *testing.T) {
		_, err := FromComponents([][]float64{{1, 2}, {1}}, nil)
		assert.Error(t, err)
	})
}
