package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrEmptySchema is returned when a schema declares no features.
	ErrEmptySchema = errors.New("schema: no features declared")

	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("schema: validation failed")
)

// ErrDuplicateFeature indicates a feature name declared more than once.
type ErrDuplicateFeature struct {
	Name string
}

func (e *ErrDuplicateFeature) Error() string {
	return fmt.Sprintf("schema: duplicate feature %q", e.Name)
}

// ValidationError reports why a record could not be turned into a FeatureVector.
//
// Missing lists absent features in schema order. Invalid names the first
// feature (in schema order) whose value is not a finite number; it is only set
// when nothing is missing.
type ValidationError struct {
	Missing []string
	Invalid string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing features: %s", strings.Join(e.Missing, ", "))
	}
	if e.Invalid == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid value for %s: %s", e.Invalid, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) work for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Record is a raw, loosely typed customer record.
type Record map[string]any

// Schema is an ordered sequence of unique feature names.
type Schema struct {
	names []string
	index map[string]int
}

// New creates a schema from the given feature names.
func New(names []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, ErrEmptySchema
	}
	s := &Schema{
		names: slices.Clone(names),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("schema: empty feature name at position %d", i)
		}
		if _, dup := s.index[n]; dup {
			return nil, &ErrDuplicateFeature{Name: n}
		}
		s.index[n] = i
	}
	return s, nil
}

// Len returns the number of declared features.
func (s *Schema) Len() int { return len(s.names) }

// Names returns a copy of the feature names in canonical order.
func (s *Schema) Names() []string { return slices.Clone(s.names) }

// Index returns the position of name, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether name is a declared feature.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Validate checks the record and returns its values in schema order.
// Undeclared keys are ignored.
func (s *Schema) Validate(rec Record) (FeatureVector, error) {
	var missing []string
	for _, n := range s.names {
		if _, ok := rec[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return FeatureVector{}, &ValidationError{Missing: missing}
	}

	values := make([]float64, len(s.names))
	for i, n := range s.names {
		v, err := ToFloat(rec[n])
		if err != nil {
			return FeatureVector{}, &ValidationError{Invalid: n, Reason: err.Error()}
		}
		values[i] = v
	}
	return FeatureVector{schema: s, values: values}, nil
}

// ValidateValues builds a FeatureVector from values already in schema order.
func (s *Schema) ValidateValues(values []float64) (FeatureVector, error) {
	if len(values) != len(s.names) {
		return FeatureVector{}, &ValidationError{
			Missing: s.names[min(len(values), len(s.names)):],
			Reason:  fmt.Sprintf("expected %d values, got %d", len(s.names), len(values)),
		}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return FeatureVector{}, &ValidationError{Invalid: s.names[i], Reason: "not a finite number"}
		}
	}
	return FeatureVector{schema: s, values: slices.Clone(values)}, nil
}

// ToFloat coerces a decoded value into a finite float64.
func ToFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, errors.New("not a number")
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, errors.New("not a number")
		}
		f = p
	case nil:
		return 0, errors.New("value is null")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}
