package segmento

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; cmd/segmentd ships such an adapter.
type MetricsCollector interface {
	// RecordLoad is called after each bundle load attempt.
	RecordLoad(duration time.Duration, err error)

	// RecordPredict is called after each single prediction.
	RecordPredict(duration time.Duration, err error)

	// RecordBatchPredict is called after each batch prediction.
	// count is the number of records attempted, failed the number rejected.
	RecordBatchPredict(count, failed int, duration time.Duration)

	// RecordAnalytics is called after each analytics query.
	// op names the query (distribution, stats, info, summary, points).
	RecordAnalytics(op string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(time.Duration, error)              {}
func (NoopMetricsCollector) RecordPredict(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchPredict(int, int, time.Duration)   {}
func (NoopMetricsCollector) RecordAnalytics(string, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount           atomic.Int64
	LoadErrors          atomic.Int64
	PredictCount        atomic.Int64
	PredictErrors       atomic.Int64
	PredictTotalNanos   atomic.Int64
	BatchCount          atomic.Int64
	BatchItems          atomic.Int64
	BatchFailed         atomic.Int64
	AnalyticsCount      atomic.Int64
	AnalyticsErrors     atomic.Int64
	AnalyticsTotalNanos atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PredictErrors.Add(1)
	}
}

// RecordBatchPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchPredict(count, failed int, duration time.Duration) {
	b.BatchCount.Add(1)
	b.BatchItems.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// RecordAnalytics implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAnalytics(op string, duration time.Duration, err error) {
	b.AnalyticsCount.Add(1)
	b.AnalyticsTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AnalyticsErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		PredictCount:      b.PredictCount.Load(),
		PredictErrors:     b.PredictErrors.Load(),
		PredictAvgNanos:   avg(b.PredictTotalNanos.Load(), b.PredictCount.Load()),
		BatchCount:        b.BatchCount.Load(),
		BatchItems:        b.BatchItems.Load(),
		BatchFailed:       b.BatchFailed.Load(),
		AnalyticsCount:    b.AnalyticsCount.Load(),
		AnalyticsErrors:   b.AnalyticsErrors.Load(),
		AnalyticsAvgNanos: avg(b.AnalyticsTotalNanos.Load(), b.AnalyticsCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount         int64
	LoadErrors        int64
	PredictCount      int64
	PredictErrors     int64
	PredictAvgNanos   int64
	BatchCount        int64
	BatchItems        int64
	BatchFailed       int64
	AnalyticsCount    int64
	AnalyticsErrors   int64
	AnalyticsAvgNanos int64
}
