package segmento

import (
	"context"
	"time"

	"github.com/hupe1980/segmento/analytics"
)

// Analytics operation names passed to MetricsCollector.RecordAnalytics.
const (
	OpDistribution = "distribution"
	OpStats        = "stats"
	OpAllStats     = "all_stats"
	OpInfo         = "info"
	OpSummary      = "summary"
	OpPoints       = "points"
)

func (e *Engine) observe(op string, start time.Time, err error) {
	e.opts.metricsCollector.RecordAnalytics(op, time.Since(start), err)
	e.opts.logger.LogAnalytics(context.Background(), op, err)
}

// SegmentDistribution returns every segment with its record count, largest
// first; equal counts keep ascending cluster order. Counts sum to the size of
// the reference dataset.
func (e *Engine) SegmentDistribution() []analytics.SegmentCount {
	start := time.Now()
	out := e.analytics.Distribution()
	e.observe(OpDistribution, start, nil)
	return out
}

// SegmentStats returns per-feature mean, population standard deviation and
// count for one cluster, rounded to two decimals. features may be nil to
// select all numeric non-component columns; maxFeatures <= 0 uses the
// configured limit.
func (e *Engine) SegmentStats(cluster int, features []string, maxFeatures int) (analytics.SegmentStats, error) {
	start := time.Now()
	out, err := e.analytics.Stats(cluster, features, maxFeatures)
	err = translateError(StageAnalytics, err)
	e.observe(OpStats, start, err)
	return out, err
}

// AllSegmentStats returns SegmentStats for every cluster in index order.
func (e *Engine) AllSegmentStats(features []string, maxFeatures int) ([]analytics.SegmentStats, error) {
	start := time.Now()
	out, err := e.analytics.AllStats(features, maxFeatures)
	err = translateError(StageAnalytics, err)
	e.observe(OpAllStats, start, err)
	return out, err
}

// SegmentInfo returns the size, population share and common-feature averages
// of a cluster.
func (e *Engine) SegmentInfo(cluster int) (analytics.SegmentInfo, error) {
	start := time.Now()
	out, err := e.analytics.Info(cluster)
	err = translateError(StageAnalytics, err)
	e.observe(OpInfo, start, err)
	return out, err
}

// Summary returns dataset totals and the largest and smallest segments.
func (e *Engine) Summary() analytics.Summary {
	start := time.Now()
	out := e.analytics.Summary()
	e.observe(OpSummary, start, nil)
	return out
}

// Points returns reference records in component space. A negative cluster
// selects every record. The common features present in the dataset are
// attached as hover values.
func (e *Engine) Points(cluster int) ([]analytics.Point, error) {
	start := time.Now()
	out, err := e.analytics.Points(cluster, e.opts.commonFeatures)
	err = translateError("", err)
	e.observe(OpPoints, start, err)
	return out, err
}
