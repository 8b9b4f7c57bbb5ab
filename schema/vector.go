package schema

import "slices"

// FeatureVector is a validated record in schema order.
// The zero value is empty and belongs to no schema.
type FeatureVector struct {
	schema *Schema
	values []float64
}

// Schema returns the schema the vector was validated against.
func (v FeatureVector) Schema() *Schema { return v.schema }

// Len returns the number of values.
func (v FeatureVector) Len() int { return len(v.values) }

// Values returns a copy of the ordered values.
func (v FeatureVector) Values() []float64 { return slices.Clone(v.values) }

// Get returns the value of the named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	if v.schema == nil {
		return 0, false
	}
	i := v.schema.Index(name)
	if i < 0 {
		return 0, false
	}
	return v.values[i], true
}

// Map returns the vector as a name → value map.
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.values))
	for i, x := range v.values {
		m[v.schema.names[i]] = x
	}
	return m
}

// Raw returns the backing slice without copying. It must be treated as read-only.
func (v FeatureVector) Raw() []float64 { return v.values }
