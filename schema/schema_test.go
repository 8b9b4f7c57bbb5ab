package schema

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrEmptySchema)
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := New([]string{"Age", "Income", "Age"})
		var dup *ErrDuplicateFeature
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "Age", dup.Name)
	})

	t.Run("BlankName", func(t *testing.T) {
		_, err := New([]string{"Age", ""})
		assert.Error(t, err)
	})

	t.Run("Order", func(t *testing.T) {
		s, err := New([]string{"Income", "Age"})
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, []string{"Income", "Age"}, s.Names())
		assert.Equal(t, 1, s.Index("Age"))
		assert.Equal(t, -1, s.Index("Gender"))
		assert.True(t, s.Has("Income"))
	})
}

func TestValidate(t *testing.T) {
	s, err := New([]string{"Age", "Income"})
	require.NoError(t, err)

	t.Run("Valid", func(t *testing.T) {
		v, err := s.Validate(Record{"Income": 70000, "Age": 50.0})
		require.NoError(t, err)
		assert.Equal(t, []float64{50, 70000}, v.Values())
		age, ok := v.Get("Age")
		assert.True(t, ok)
		assert.Equal(t, 50.0, age)
	})

	t.Run("ExtraKeysIgnored", func(t *testing.T) {
		v, err := s.Validate(Record{"Age": 50, "Income": 1, "Gender": "F"})
		require.NoError(t, err)
		assert.Equal(t, 2, v.Len())
		_, ok := v.Get("Gender")
		assert.False(t, ok)
	})

	t.Run("MissingAge", func(t *testing.T) {
		_, err := s.Validate(Record{"Income": 70000})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{"Age"}, ve.Missing)
		assert.Empty(t, ve.Invalid)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("MissingAll", func(t *testing.T) {
		_, err := s.Validate(Record{})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{"Age", "Income"}, ve.Missing)
	})

	t.Run("MissingReportedBeforeInvalid", func(t *testing.T) {
		_, err := s.Validate(Record{"Age": "old"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{"Income"}, ve.Missing)
	})

	t.Run("NonNumeric", func(t *testing.T) {
		_, err := s.Validate(Record{"Age": 50, "Income": "lots"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Empty(t, ve.Missing)
		assert.Equal(t, "Income", ve.Invalid)
		assert.Contains(t, err.Error(), "Income")
	})

	t.Run("NonFinite", func(t *testing.T) {
		_, err := s.Validate(Record{"Age": math.Inf(1), "Income": 1})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Age", ve.Invalid)

		_, err = s.Validate(Record{"Age": "NaN", "Income": 1})
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Age", ve.Invalid)
	})

	t.Run("Null", func(t *testing.T) {
		_, err := s.Validate(Record{"Age": nil, "Income": 1})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Age", ve.Invalid)
	})
}

func TestValidateValues(t *testing.T) {
	s, err := New([]string{"Age", "Income"})
	require.NoError(t, err)

	v, err := s.ValidateValues([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Age": 1, "Income": 2}, v.Map())

	_, err = s.ValidateValues([]float64{1})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"Income"}, ve.Missing)

	_, err = s.ValidateValues([]float64{1, 2, 3})
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, ve.Missing)
	assert.EqualError(t, err, "expected 2 values, got 3")

	_, err = s.ValidateValues([]float64{1, math.NaN()})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Income", ve.Invalid)
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{"float64", 1.5, 1.5, false},
		{"float32", float32(2), 2, false},
		{"int", 3, 3, false},
		{"int64", int64(4), 4, false},
		{"uint", uint(5), 5, false},
		{"string", " 6.25 ", 6.25, false},
		{"json.Number", json.Number("7"), 7, false},
		{"badString", "x", 0, true},
		{"badNumber", json.Number("x"), 0, true},
		{"bool", true, 0, true},
		{"nil", nil, 0, true},
		{"inf", math.Inf(-1), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToFloat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := error(&ValidationError{Invalid: "Age", Reason: "not a number"})
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "invalid value for Age: not a number", err.Error())
}
