// Package catalog resolves cluster indices to segment names and owns the
// reference dataset used for analytics.
//
// Membership of every cluster is indexed once at construction in a Roaring
// bitmap of row numbers, so RecordsIn is a cheap, restartable iteration.
package catalog

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/segmento/dataset"
)

// LookupError indicates a cluster index without a label.
type LookupError struct {
	Cluster int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("catalog: no label for cluster %d", e.Cluster)
}

// Catalog maps cluster indices to display names over a reference table.
// It is immutable and safe for concurrent use.
type Catalog struct {
	labels  map[int]string
	order   []int // sorted cluster indices
	table   *dataset.Table
	members map[int]*roaring.Bitmap
}

// New builds a catalog. labels must be total over 0..k-1 with no extra keys,
// and every cluster index in the table must be labeled.
func New(labels map[int]string, k int, table *dataset.Table) (*Catalog, error) {
	if k <= 0 {
		return nil, fmt.Errorf("catalog: invalid cluster count %d", k)
	}
	for c := 0; c < k; c++ {
		if _, ok := labels[c]; !ok {
			return nil, &LookupError{Cluster: c}
		}
	}
	for c := range labels {
		if c < 0 || c >= k {
			return nil, fmt.Errorf("catalog: label for cluster %d outside 0..%d", c, k-1)
		}
	}
	if table == nil {
		return nil, fmt.Errorf("catalog: nil reference table")
	}

	cat := &Catalog{
		labels:  maps.Clone(labels),
		order:   slices.Sorted(maps.Keys(labels)),
		table:   table,
		members: make(map[int]*roaring.Bitmap, k),
	}
	for _, c := range cat.order {
		cat.members[c] = roaring.New()
	}
	for i := 0; i < table.Len(); i++ {
		c := table.Cluster(i)
		bm, ok := cat.members[c]
		if !ok {
			return nil, fmt.Errorf("dataset row %d: %w", i, &LookupError{Cluster: c})
		}
		bm.Add(uint32(i))
	}
	for _, bm := range cat.members {
		bm.RunOptimize()
	}
	return cat, nil
}

// NameOf returns the display name of a cluster.
func (c *Catalog) NameOf(cluster int) (string, error) {
	name, ok := c.labels[cluster]
	if !ok {
		return "", &LookupError{Cluster: cluster}
	}
	return name, nil
}

// Has reports whether the cluster is labeled.
func (c *Catalog) Has(cluster int) bool {
	_, ok := c.labels[cluster]
	return ok
}

// Clusters returns all labeled cluster indices in ascending order.
func (c *Catalog) Clusters() []int { return slices.Clone(c.order) }

// Labels returns a copy of the cluster → name mapping.
func (c *Catalog) Labels() map[int]string { return maps.Clone(c.labels) }

// Table returns the reference dataset.
func (c *Catalog) Table() *dataset.Table { return c.table }

// Size returns the number of reference records in a cluster.
func (c *Catalog) Size(cluster int) int {
	bm, ok := c.members[cluster]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// Total returns the number of reference records.
func (c *Catalog) Total() int { return c.table.Len() }

// RecordsIn yields the records of a cluster in dataset order. The sequence is
// finite and may be iterated any number of times. Unknown clusters yield
// nothing.
func (c *Catalog) RecordsIn(cluster int) iter.Seq[dataset.LabeledRecord] {
	return func(yield func(dataset.LabeledRecord) bool) {
		bm, ok := c.members[cluster]
		if !ok {
			return
		}
		it := bm.Iterator()
		for it.HasNext() {
			if !yield(c.table.Record(int(it.Next()))) {
				return
			}
		}
	}
}

// Rows yields the row numbers of a cluster in ascending order.
func (c *Catalog) Rows(cluster int) iter.Seq[int] {
	return func(yield func(int) bool) {
		bm, ok := c.members[cluster]
		if !ok {
			return
		}
		it := bm.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// Mislabeled returns rows whose stored display name differs from the label of
// their cluster. Tables without a name column never mismatch.
func (c *Catalog) Mislabeled() []int {
	if c.table.Options().NameColumn == "" || !c.table.HasColumn(c.table.Options().NameColumn) {
		return nil
	}
	var rows []int
	for i := 0; i < c.table.Len(); i++ {
		if c.table.Name(i) != c.labels[c.table.Cluster(i)] {
			rows = append(rows, i)
		}
	}
	return rows
}
