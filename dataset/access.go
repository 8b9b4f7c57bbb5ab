package dataset

import (
	"math"
	"slices"
)

// Len returns the number of records.
func (t *Table) Len() int { return t.rows }

// Columns returns all column names in header order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return t.rows, len(t.columns) }

// Options returns the options the table was parsed with.
func (t *Table) Options() Options { return t.opts }

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.columns, name)
}

// IsNumeric reports whether the column was detected as numeric.
func (t *Table) IsNumeric(name string) bool {
	_, ok := t.numeric[name]
	return ok
}

// NumericColumns returns numeric column names in header order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.columns {
		if _, ok := t.numeric[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// FeatureColumns returns numeric columns excluding the cluster column and the
// component-space columns, in header order.
func (t *Table) FeatureColumns() []string {
	var out []string
	for _, c := range t.NumericColumns() {
		if c == t.opts.ClusterColumn || slices.Contains(t.components, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ComponentColumns returns the component-space columns in index order.
func (t *Table) ComponentColumns() []string { return slices.Clone(t.components) }

// Cluster returns the cluster index of row i.
func (t *Table) Cluster(i int) int { return t.clusters[i] }

// Name returns the display name stored in row i, or "" without a name column.
func (t *Table) Name(i int) string {
	if t.opts.NameColumn == "" {
		return ""
	}
	if cells, ok := t.text[t.opts.NameColumn]; ok {
		return cells[i]
	}
	return ""
}

// Value returns the numeric cell of row i. ok is false for a missing cell or a
// non-numeric column.
func (t *Table) Value(i int, column string) (float64, bool) {
	vals, ok := t.numeric[column]
	if !ok || math.IsNaN(vals[i]) {
		return 0, false
	}
	return vals[i], true
}

// Text returns the raw text of a non-numeric cell.
func (t *Table) Text(i int, column string) string {
	if cells, ok := t.text[column]; ok {
		return cells[i]
	}
	return ""
}

// Record returns row i as a LabeledRecord.
func (t *Table) Record(i int) LabeledRecord {
	rec := LabeledRecord{
		Row:     i,
		Cluster: t.clusters[i],
		Name:    t.Name(i),
		table:   t,
	}
	if len(t.components) > 0 {
		rec.Components = make([]float64, 0, len(t.components))
		for _, c := range t.components {
			v, _ := t.Value(i, c)
			rec.Components = append(rec.Components, v)
		}
	}
	return rec
}

// LabeledRecord is a historical record with its assigned cluster index.
type LabeledRecord struct {
	Row        int
	Cluster    int
	Name       string
	Components []float64 // nil when the dataset has no component columns

	table *Table
}

// Value returns a numeric feature of the record.
func (r LabeledRecord) Value(column string) (float64, bool) {
	return r.table.Value(r.Row, column)
}

// Text returns a non-numeric cell of the record.
func (r LabeledRecord) Text(column string) string {
	return r.table.Text(r.Row, column)
}

// Fields returns every non-empty cell keyed by column. Numeric cells are
// float64, others string.
func (r LabeledRecord) Fields() map[string]any {
	out := make(map[string]any, len(r.table.columns))
	for _, c := range r.table.columns {
		if v, ok := r.table.Value(r.Row, c); ok {
			out[c] = v
		} else if s := r.table.Text(r.Row, c); s != "" {
			out[c] = s
		}
	}
	return out
}
