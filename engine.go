package segmento

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/segmento/analytics"
	"github.com/hupe1980/segmento/artifact"
	"github.com/hupe1980/segmento/blobstore"
	"github.com/hupe1980/segmento/internal/cache"
	"github.com/hupe1980/segmento/schema"
)

// analyzer is satisfied by *analytics.Engine and *analytics.Cached.
type analyzer interface {
	Distribution() []analytics.SegmentCount
	Stats(cluster int, features []string, maxFeatures int) (analytics.SegmentStats, error)
	AllStats(features []string, maxFeatures int) ([]analytics.SegmentStats, error)
	Info(cluster int) (analytics.SegmentInfo, error)
	Summary() analytics.Summary
	Points(cluster int, hover []string) ([]analytics.Point, error)
}

// Engine runs the inference pipeline and analytics over one immutable bundle.
// It is safe for concurrent use.
type Engine struct {
	bundle    *artifact.Bundle
	store     blobstore.BlobStore
	analytics analyzer
	opts      options

	analyticsCache cache.BlockCache
	blockCache     cache.BlockCache

	closeOnce sync.Once
	closed    atomic.Bool
}

// Open loads the bundle from src and returns a ready Engine.
// Load failures are returned as *ConfigurationError.
func Open(ctx context.Context, src Source, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)
	if src.store == nil {
		return nil, &ConfigurationError{cause: fmt.Errorf("no bundle source")}
	}

	store := src.store
	var blockCache cache.BlockCache
	if o.blockCache > 0 {
		blockCache = cache.NewShardedLRUBlockCache(o.blockCache, o.resource)
		store = blobstore.NewCachingStore(store, blockCache, blobstore.DefaultBlockSize)
	}

	start := time.Now()
	b, err := artifact.Load(ctx, store, artifact.LoadOptions{
		ManifestName: o.manifestName,
		Controller:   o.resource,
	})
	o.metricsCollector.RecordLoad(time.Since(start), err)
	if err != nil {
		err = translateError("", err)
		o.logger.LogLoad(ctx, o.manifestName, 0, 0, err)
		if blockCache != nil {
			_ = blockCache.Close()
		}
		return nil, err
	}

	e := newEngine(b, store, o)
	e.blockCache = blockCache
	o.logger.LogLoad(ctx, b.ManifestName, b.Manifest.Version, b.Catalog.Total(), nil)
	for _, w := range b.Warnings {
		o.logger.WarnContext(ctx, "bundle inconsistency", "manifest", b.ManifestName, "warning", w)
	}
	return e, nil
}

// New wraps an already loaded bundle. store may be nil, in which case
// Report is unavailable.
func New(b *artifact.Bundle, store blobstore.BlobStore, optFns ...Option) (*Engine, error) {
	if b == nil || b.Manifest == nil || b.Schema == nil || b.Standardizer == nil ||
		b.Projector == nil || b.Assigner == nil || b.Catalog == nil {
		return nil, &ConfigurationError{cause: fmt.Errorf("incomplete bundle")}
	}
	return newEngine(b, store, applyOptions(optFns)), nil
}

func newEngine(b *artifact.Bundle, store blobstore.BlobStore, o options) *Engine {
	e := &Engine{bundle: b, store: store, opts: o}

	base := analytics.New(b.Catalog, analytics.Options{
		CommonFeatures:    o.commonFeatures,
		StatsFeatureLimit: o.statsFeatureLimit,
	})
	if o.analyticsCache > 0 {
		e.analyticsCache = cache.NewLRUBlockCache(o.analyticsCache, o.resource)
		e.analytics = analytics.NewCached(base, e.analyticsCache, b.Manifest.Version, o.codec)
	} else {
		e.analytics = base
	}
	return e
}

// Version returns the bundle version.
func (e *Engine) Version() uint64 { return e.bundle.Manifest.Version }

// Bundle returns the loaded bundle.
func (e *Engine) Bundle() *artifact.Bundle { return e.bundle }

// Schema returns the feature names in canonical order.
func (e *Engine) Schema() []string { return e.bundle.Schema.Names() }

// Prediction is the result of classifying one record.
type Prediction struct {
	Cluster    int                   `json:"cluster"`
	Segment    string                `json:"segment"`
	Info       analytics.SegmentInfo `json:"segment_info"`
	Components []float64             `json:"components"`
}

// Predict validates rec and assigns it to a segment. Keys not in the schema
// are ignored.
func (e *Engine) Predict(ctx context.Context, rec schema.Record) (Prediction, error) {
	start := time.Now()
	p, _, err := e.predict(ctx, rec)
	e.opts.metricsCollector.RecordPredict(time.Since(start), err)
	e.opts.logger.LogPredict(ctx, p.Cluster, err)
	return p, err
}

type trace struct {
	standardized []float64
	components   []float64
}

func (e *Engine) predict(ctx context.Context, rec schema.Record) (Prediction, trace, error) {
	var tr trace
	if e.closed.Load() {
		return Prediction{}, tr, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, tr, err
	}

	vec, err := e.bundle.Schema.Validate(rec)
	if err != nil {
		return Prediction{}, tr, translateError("", err)
	}
	tr.standardized, err = e.bundle.Standardizer.Transform(vec.Raw())
	if err != nil {
		return Prediction{}, tr, translateError(StageStandardize, err)
	}
	tr.components, err = e.bundle.Projector.Project(tr.standardized)
	if err != nil {
		return Prediction{}, tr, translateError(StageProject, err)
	}
	if err := e.checkRange(tr); err != nil {
		return Prediction{}, tr, err
	}
	cluster, err := e.bundle.Assigner.Assign(tr.components)
	if err != nil {
		return Prediction{}, tr, translateError(StageAssign, err)
	}
	name, err := e.bundle.Catalog.NameOf(cluster)
	if err != nil {
		return Prediction{}, tr, translateError(StageCatalog, err)
	}
	info, err := e.analytics.Info(cluster)
	if err != nil {
		// The assigner produced the cluster, so the catalog must know it.
		return Prediction{}, tr, &InvariantError{Stage: StageAnalytics, cause: err}
	}

	return Prediction{
		Cluster:    cluster,
		Segment:    name,
		Info:       info,
		Components: tr.components,
	}, tr, nil
}

// checkRange rejects records whose values are finite but so large that the
// standardized or component vectors overflow. The feature with the largest
// standardized magnitude is reported when only the projection overflows.
func (e *Engine) checkRange(tr trace) error {
	largest := 0
	for i, z := range tr.standardized {
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return &ValidationError{Invalid: e.bundle.Schema.Names()[i], Reason: "value out of range"}
		}
		if math.Abs(z) > math.Abs(tr.standardized[largest]) {
			largest = i
		}
	}
	for _, c := range tr.components {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &ValidationError{Invalid: e.bundle.Schema.Names()[largest], Reason: "value out of range"}
		}
	}
	return nil
}

// CentroidDistance is the distance from a record to one segment centroid.
type CentroidDistance struct {
	Cluster  int     `json:"cluster"`
	Segment  string  `json:"segment"`
	Distance float64 `json:"distance"`
}

// Explanation details how a record was classified.
type Explanation struct {
	Prediction
	Standardized []float64 `json:"standardized"`
	// Distances to every centroid, nearest first, ties by lower index.
	Distances []CentroidDistance `json:"distances"`
}

// Explain predicts rec and reports the intermediate vectors and the
// distance to every centroid.
func (e *Engine) Explain(ctx context.Context, rec schema.Record) (Explanation, error) {
	p, tr, err := e.predict(ctx, rec)
	if err != nil {
		e.opts.logger.LogPredict(ctx, 0, err)
		return Explanation{}, err
	}

	cands, err := e.bundle.Assigner.Nearest(tr.components, 0)
	if err != nil {
		return Explanation{}, translateError(StageAssign, err)
	}
	out := Explanation{
		Prediction:   p,
		Standardized: tr.standardized,
		Distances:    make([]CentroidDistance, len(cands)),
	}
	for i, c := range cands {
		name, err := e.bundle.Catalog.NameOf(c.Cluster)
		if err != nil {
			return Explanation{}, translateError(StageCatalog, err)
		}
		out.Distances[i] = CentroidDistance{Cluster: c.Cluster, Segment: name, Distance: c.Distance}
	}
	return out, nil
}

// Centroids returns the centroid of every cluster in index order.
func (e *Engine) Centroids() [][]float64 {
	a := e.bundle.Assigner
	out := make([][]float64, a.K())
	for k := range out {
		out[k] = a.Centroid(k)
	}
	return out
}
