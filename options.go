package segmento

import (
	"log/slog"
	"runtime"
	"slices"

	"github.com/hupe1980/segmento/analytics"
	"github.com/hupe1980/segmento/codec"
	"github.com/hupe1980/segmento/resource"
)

type options struct {
	codec             codec.Codec
	metricsCollector  MetricsCollector
	logger            *Logger
	commonFeatures    []string
	statsFeatureLimit int
	batchConcurrency  int
	analyticsCache    int64 // bytes; 0 disables
	blockCache        int64 // bytes; 0 disables
	resource          *resource.Controller
	manifestName      string
}

// Option configures Open and New.
type Option func(*options)

// WithCodec configures the codec used to encode cached analytics results.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &segmento.BasicMetricsCollector{}
//	eng, _ := segmento.Open(ctx, segmento.Local("./model"), segmento.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Predictions: %d, Avg latency: %dns\n", stats.PredictCount, stats.PredictAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := segmento.NewJSONLogger(slog.LevelInfo)
//	eng, _ := segmento.Open(ctx, src, segmento.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCommonFeatures sets the business features averaged in SegmentInfo.
// Features the dataset lacks are skipped. An empty list disables averages.
func WithCommonFeatures(features ...string) Option {
	return func(o *options) {
		o.commonFeatures = append([]string{}, features...)
	}
}

// WithStatsFeatureLimit caps the features reported by SegmentStats when the
// caller does not pass a limit.
func WithStatsFeatureLimit(n int) Option {
	return func(o *options) {
		o.statsFeatureLimit = n
	}
}

// WithBatchConcurrency bounds the records PredictBatch evaluates in parallel.
// Values < 1 select runtime.GOMAXPROCS(0).
func WithBatchConcurrency(n int) Option {
	return func(o *options) {
		o.batchConcurrency = n
	}
}

// WithAnalyticsCache memoises analytics results in an LRU cache of the given
// size in bytes, keyed by bundle version. 0 disables the cache.
func WithAnalyticsCache(bytes int64) Option {
	return func(o *options) {
		o.analyticsCache = bytes
	}
}

// WithBlockCache caches artifact blocks read from the store in memory.
// Useful for remote stores; 0 disables the cache.
func WithBlockCache(bytes int64) Option {
	return func(o *options) {
		o.blockCache = bytes
	}
}

// WithResourceController bounds memory, parallel work and load IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resource = rc
	}
}

// WithManifestName pins a manifest instead of following CURRENT.
func WithManifestName(name string) Option {
	return func(o *options) {
		o.manifestName = name
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:             codec.Default,
		metricsCollector:  NoopMetricsCollector{},
		logger:            NoopLogger(),
		commonFeatures:    slices.Clone(analytics.DefaultCommonFeatures),
		statsFeatureLimit: analytics.DefaultStatsFeatureLimit,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.batchConcurrency < 1 {
		o.batchConcurrency = runtime.GOMAXPROCS(0)
	}
	if o.statsFeatureLimit < 1 {
		o.statsFeatureLimit = analytics.DefaultStatsFeatureLimit
	}
	return o
}
