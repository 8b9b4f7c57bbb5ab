package analytics

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/hupe1980/segmento/catalog"
	"github.com/hupe1980/segmento/dataset"
)

// ErrUnknownCluster is returned when a caller asks about a cluster the
// catalog does not know.
var ErrUnknownCluster = errors.New("analytics: unknown cluster")

// ErrNoComponents is returned by Points when the dataset carries no
// component-space columns.
var ErrNoComponents = errors.New("analytics: dataset has no component columns")

// DefaultCommonFeatures are the business features summarised in SegmentInfo.
var DefaultCommonFeatures = []string{"Age", "Income Level", "Premium Amount", "Coverage Amount"}

// DefaultStatsFeatureLimit bounds the number of features in SegmentStats.
const DefaultStatsFeatureLimit = 4

// Precision is the number of decimals statistics are rounded to.
const Precision = 2

// SegmentCount is one entry of the size distribution.
type SegmentCount struct {
	Cluster int    `json:"cluster"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// FeatureStats describes one feature within a segment.
type FeatureStats struct {
	Feature string  `json:"feature"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Count   int     `json:"count"`
}

// SegmentStats describes a segment.
type SegmentStats struct {
	Cluster    int            `json:"cluster"`
	Name       string         `json:"name"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
	Features   []FeatureStats `json:"features"`
}

// SegmentInfo is the compact summary returned with a prediction.
// Averages holds the mean of each common feature present in the dataset,
// keyed by feature name.
type SegmentInfo struct {
	Cluster    int                `json:"cluster"`
	Name       string             `json:"name"`
	Size       int                `json:"size"`
	Percentage float64            `json:"percentage"`
	Averages   map[string]float64 `json:"averages,omitempty"`
}

// Fields flattens the info into the dashboard layout:
// size, percentage and avg_<feature> keys.
func (i SegmentInfo) Fields() map[string]any {
	out := make(map[string]any, 2+len(i.Averages))
	out["size"] = i.Size
	out["percentage"] = i.Percentage
	for f, v := range i.Averages {
		out[AverageKey(f)] = v
	}
	return out
}

// Summary is the headline of the dashboard.
type Summary struct {
	TotalRecords  int    `json:"total_records"`
	TotalSegments int    `json:"total_segments"`
	Largest       string `json:"largest_segment"`
	Smallest      string `json:"smallest_segment"`
}

// Point is a reference record placed in component space.
type Point struct {
	Row        int            `json:"row"`
	Cluster    int            `json:"cluster"`
	Name       string         `json:"name"`
	Components []float64      `json:"components"`
	Hover      map[string]any `json:"hover,omitempty"`
}

// Options configures an Engine.
type Options struct {
	// CommonFeatures are averaged in SegmentInfo when present in the dataset.
	CommonFeatures []string
	// StatsFeatureLimit caps features in SegmentStats when the caller passes 0.
	StatsFeatureLimit int
}

// DefaultOptions returns the defaults.
func DefaultOptions() Options {
	return Options{
		CommonFeatures:    slices.Clone(DefaultCommonFeatures),
		StatsFeatureLimit: DefaultStatsFeatureLimit,
	}
}

// Engine computes analytics over a catalog. It is safe for concurrent use.
type Engine struct {
	cat  *catalog.Catalog
	opts Options
}

// New creates an Engine. Zero option fields take their defaults; a nil
// CommonFeatures slice means the defaults, an empty one means none.
func New(cat *catalog.Catalog, opts Options) *Engine {
	if opts.CommonFeatures == nil {
		opts.CommonFeatures = slices.Clone(DefaultCommonFeatures)
	}
	if opts.StatsFeatureLimit <= 0 {
		opts.StatsFeatureLimit = DefaultStatsFeatureLimit
	}
	return &Engine{cat: cat, opts: opts}
}

// Catalog returns the underlying catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

func (e *Engine) percentage(n int) float64 {
	total := e.cat.Total()
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func (e *Engine) check(cluster int) (string, error) {
	name, err := e.cat.NameOf(cluster)
	if err != nil {
		return "", fmt.Errorf("%w: %d", ErrUnknownCluster, cluster)
	}
	return name, nil
}

// Distribution returns every labeled segment with its record count, sorted
// by descending count; equal counts keep ascending cluster order.
func (e *Engine) Distribution() []SegmentCount {
	clusters := e.cat.Clusters()
	out := make([]SegmentCount, 0, len(clusters))
	for _, c := range clusters {
		name, _ := e.cat.NameOf(c)
		out = append(out, SegmentCount{Cluster: c, Name: name, Count: e.cat.Size(c)})
	}
	slices.SortStableFunc(out, func(a, b SegmentCount) int {
		return b.Count - a.Count
	})
	return out
}

// StatsFeatures resolves the features SegmentStats reports on. Requested
// features are kept in the given order when they are numeric, non-component
// columns; with no request all such columns qualify. At most maxFeatures are
// returned, where maxFeatures <= 0 means the configured limit.
func (e *Engine) StatsFeatures(features []string, maxFeatures int) []string {
	if maxFeatures <= 0 {
		maxFeatures = e.opts.StatsFeatureLimit
	}

	eligible := e.cat.Table().FeatureColumns()
	var selected []string
	if len(features) == 0 {
		selected = eligible
	} else {
		for _, f := range features {
			if slices.Contains(eligible, f) && !slices.Contains(selected, f) {
				selected = append(selected, f)
			}
		}
	}

	if len(selected) > maxFeatures {
		selected = selected[:maxFeatures]
	}
	return slices.Clone(selected)
}

// Stats computes per-feature statistics for one cluster, rounded to
// Precision decimals. Missing cells are skipped, so each feature carries its
// own count.
func (e *Engine) Stats(cluster int, features []string, maxFeatures int) (SegmentStats, error) {
	name, err := e.check(cluster)
	if err != nil {
		return SegmentStats{}, err
	}

	cols := e.StatsFeatures(features, maxFeatures)
	acc := e.accumulate(cluster, cols)

	size := e.cat.Size(cluster)
	out := SegmentStats{
		Cluster:    cluster,
		Name:       name,
		Count:      size,
		Percentage: Round(e.percentage(size), Precision),
		Features:   make([]FeatureStats, len(cols)),
	}
	for i, col := range cols {
		out.Features[i] = FeatureStats{
			Feature: col,
			Mean:    Round(acc[i].mean(), Precision),
			Std:     Round(acc[i].std(), Precision),
			Count:   acc[i].n,
		}
	}
	return out, nil
}

// accumulate collects the non-empty cells of cols over the rows of cluster.
func (e *Engine) accumulate(cluster int, cols []string) []moments {
	tbl := e.cat.Table()
	acc := make([]moments, len(cols))
	for row := range e.cat.Rows(cluster) {
		for i, col := range cols {
			if v, ok := tbl.Value(row, col); ok {
				acc[i].add(v)
			}
		}
	}
	return acc
}

// AllStats computes Stats for every labeled cluster in ascending index order.
func (e *Engine) AllStats(features []string, maxFeatures int) ([]SegmentStats, error) {
	clusters := e.cat.Clusters()
	out := make([]SegmentStats, 0, len(clusters))
	for _, c := range clusters {
		s, err := e.Stats(c, features, maxFeatures)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Info summarises a cluster: size, share of the population (unrounded) and
// the mean of every configured common feature the dataset has. Features
// absent from the dataset, or without values in the cluster, are omitted.
func (e *Engine) Info(cluster int) (SegmentInfo, error) {
	name, err := e.check(cluster)
	if err != nil {
		return SegmentInfo{}, err
	}

	tbl := e.cat.Table()
	var cols []string
	for _, f := range e.opts.CommonFeatures {
		if tbl.IsNumeric(f) {
			cols = append(cols, f)
		}
	}

	acc := e.accumulate(cluster, cols)

	size := e.cat.Size(cluster)
	info := SegmentInfo{
		Cluster:    cluster,
		Name:       name,
		Size:       size,
		Percentage: e.percentage(size),
	}
	for i, col := range cols {
		if acc[i].n == 0 {
			continue
		}
		if info.Averages == nil {
			info.Averages = make(map[string]float64, len(cols))
		}
		info.Averages[col] = acc[i].mean()
	}
	return info, nil
}

// Summary returns dataset totals and the largest and smallest segments.
func (e *Engine) Summary() Summary {
	dist := e.Distribution()
	s := Summary{
		TotalRecords:  e.cat.Total(),
		TotalSegments: len(dist),
	}
	if len(dist) > 0 {
		s.Largest = dist[0].Name
		s.Smallest = dist[len(dist)-1].Name
	}
	return s
}

// Points returns reference records in component space for scatter plots.
// A negative cluster selects all records. hover names extra columns to
// attach; columns the dataset lacks are skipped.
func (e *Engine) Points(cluster int, hover []string) ([]Point, error) {
	tbl := e.cat.Table()
	if len(tbl.ComponentColumns()) == 0 {
		return nil, ErrNoComponents
	}

	var hoverCols []string
	for _, h := range hover {
		if tbl.HasColumn(h) {
			hoverCols = append(hoverCols, h)
		}
	}

	toPoint := func(rec dataset.LabeledRecord) Point {
		p := Point{
			Row:        rec.Row,
			Cluster:    rec.Cluster,
			Name:       rec.Name,
			Components: rec.Components,
		}
		if p.Name == "" {
			p.Name, _ = e.cat.NameOf(rec.Cluster)
		}
		if len(hoverCols) > 0 {
			p.Hover = make(map[string]any, len(hoverCols))
			for _, h := range hoverCols {
				if v, ok := rec.Value(h); ok {
					p.Hover[h] = v
				} else if s := rec.Text(h); s != "" {
					p.Hover[h] = s
				}
			}
		}
		return p
	}

	if cluster >= 0 {
		if _, err := e.check(cluster); err != nil {
			return nil, err
		}
		out := make([]Point, 0, e.cat.Size(cluster))
		for rec := range e.cat.RecordsIn(cluster) {
			out = append(out, toPoint(rec))
		}
		return out, nil
	}

	out := make([]Point, 0, tbl.Len())
	for i := range tbl.Len() {
		out = append(out, toPoint(tbl.Record(i)))
	}
	return out, nil
}

// AverageKey returns the dashboard key for the mean of feature:
// "Income Level" becomes "avg_income_level".
func AverageKey(feature string) string {
	return "avg_" + strings.ReplaceAll(strings.ToLower(feature), " ", "_")
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// moments accumulates mean and population variance (Welford).
type moments struct {
	n  int
	mu float64
	m2 float64
}

func (m *moments) add(x float64) {
	m.n++
	d := x - m.mu
	m.mu += d / float64(m.n)
	m.m2 += d * (x - m.mu)
}

func (m *moments) mean() float64 {
	if m.n == 0 {
		return 0
	}
	return m.mu
}

func (m *moments) std() float64 {
	if m.n == 0 {
		return 0
	}
	return math.Sqrt(m.m2 / float64(m.n))
}
