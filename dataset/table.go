package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned when the dataset has no data rows.
	ErrEmpty = errors.New("dataset: no records")
)

// ErrMissingColumn indicates a required column is absent from the header.
type ErrMissingColumn struct {
	Column string
}

func (e *ErrMissingColumn) Error() string {
	return fmt.Sprintf("dataset: missing column %q", e.Column)
}

// ErrInvalidCell indicates a cell that cannot be interpreted.
type ErrInvalidCell struct {
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *ErrInvalidCell) Error() string {
	return fmt.Sprintf("dataset: line %d column %q: %s (%q)", e.Line, e.Column, e.Reason, e.Value)
}

// Options controls how special columns are recognised.
type Options struct {
	// ClusterColumn holds the assigned cluster index. Required.
	ClusterColumn string
	// NameColumn holds the segment display name. Optional.
	NameColumn string
	// ComponentPrefix identifies component-space columns (PC1, PC2, ...).
	ComponentPrefix string
}

// DefaultOptions matches the layout produced by the clustering notebook.
var DefaultOptions = Options{
	ClusterColumn:   "Cluster",
	NameColumn:      "Cluster_Name",
	ComponentPrefix: "PC",
}

// Table is an immutable, column-oriented reference dataset.
type Table struct {
	opts       Options
	columns    []string
	numeric    map[string][]float64 // NaN marks a missing cell
	text       map[string][]string
	clusters   []int
	components []string // component columns in index order
	rows       int
}

// ParseCSV reads a CSV document with a header row.
func ParseCSV(r io.Reader, opts Options) (*Table, error) {
	if opts.ClusterColumn == "" {
		opts.ClusterColumn = DefaultOptions.ClusterColumn
	}

	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	if dup := firstDuplicate(headers); dup != "" {
		return nil, fmt.Errorf("dataset: duplicate column %q", dup)
	}

	var raw [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: %w", err)
		}
		raw = append(raw, row)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	return build(headers, raw, opts)
}

func build(headers []string, raw [][]string, opts Options) (*Table, error) {
	t := &Table{
		opts:    opts,
		columns: headers,
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
		rows:    len(raw),
	}

	for c, name := range headers {
		cells := make([]string, len(raw))
		for r, row := range raw {
			cells[r] = strings.TrimSpace(row[c])
		}
		if vals, ok := parseNumeric(cells); ok {
			t.numeric[name] = vals
		} else {
			t.text[name] = cells
		}
	}

	for r := range raw {
		for c, name := range headers {
			if vals, ok := t.numeric[name]; ok && math.IsInf(vals[r], 0) {
				return nil, &ErrInvalidCell{Line: r + 2, Column: name, Value: raw[r][c], Reason: "not a finite number"}
			}
		}
	}

	if err := t.bindClusters(raw); err != nil {
		return nil, err
	}
	t.components = componentColumns(headers, opts.ComponentPrefix, t.numeric)
	return t, nil
}

func (t *Table) bindClusters(raw [][]string) error {
	col := t.opts.ClusterColumn
	idx := slices.Index(t.columns, col)
	if idx < 0 {
		return &ErrMissingColumn{Column: col}
	}
	t.clusters = make([]int, t.rows)
	for r, row := range raw {
		cell := strings.TrimSpace(row[idx])
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil || f != math.Trunc(f) || f < 0 {
			return &ErrInvalidCell{Line: r + 2, Column: col, Value: cell, Reason: "not a cluster index"}
		}
		t.clusters[r] = int(f)
	}
	return nil
}

// parseNumeric reports whether every non-empty cell is a number. Columns made
// only of empty cells are not numeric.
func parseNumeric(cells []string) ([]float64, bool) {
	vals := make([]float64, len(cells))
	seen := false
	for i, s := range cells {
		if s == "" {
			vals[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return nil, false
		}
		vals[i] = f
		seen = true
	}
	return vals, seen
}

func componentColumns(headers []string, prefix string, numeric map[string][]float64) []string {
	if prefix == "" {
		return nil
	}
	type comp struct {
		name string
		n    int
	}
	var comps []comp
	for _, h := range headers {
		if !strings.HasPrefix(h, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(h, prefix))
		if err != nil || n < 1 {
			continue
		}
		if _, ok := numeric[h]; !ok {
			continue
		}
		comps = append(comps, comp{h, n})
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].n < comps[j].n })

	out := make([]string, len(comps))
	for i, c := range comps {
		out[i] = c.name
	}
	return out
}

func firstDuplicate(names []string) string {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n
		}
		seen[n] = struct{}{}
	}
	return ""
}
