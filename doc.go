// Package segmento assigns customer records to precomputed market segments
// and reports descriptive statistics about those segments.
//
// A model bundle (feature schema, standardizer, PCA projection, centroids,
// segment labels and a labeled reference dataset) is loaded once from a blob
// store and never mutated. Every operation on the resulting Engine is a pure
// read over that bundle and is safe for concurrent use.
//
// # Quick Start
//
// Local mode:
//
//	ctx := context.Background()
//	eng, err := segmento.Open(ctx, segmento.Local("./model"))
//	pred, err := eng.Predict(ctx, schema.Record{"Age": 50, "Income": 70000})
//	fmt.Println(pred.Cluster, pred.Segment, pred.Info.Percentage)
//
// Cloud mode:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("segments/"))
//	eng, err := segmento.Open(ctx, segmento.Remote(store), segmento.WithBlockCache(64<<20))
//
// # Readiness
//
// Services should load through a Gate. A failed load leaves the gate not
// ready; every call then fails fast with ErrNotReady instead of serving
// partial state:
//
//	gate := segmento.OpenGate(ctx, segmento.Local("./model"))
//	eng, err := gate.Engine() // errors.Is(err, segmento.ErrNotReady)
//
// # Errors
//
//   - *ConfigurationError: a missing, malformed or inconsistent artifact.
//   - *ValidationError: a request record is missing features or carries a
//     non-numeric value. Extra keys are ignored.
//   - *InvariantError: loaded artifacts disagree at request time.
//   - ErrUnknownCluster: an analytics call named a cluster the model lacks.
//
// # Analytics
//
//	dist := eng.SegmentDistribution()       // by descending size
//	stats, _ := eng.SegmentStats(0, nil, 0) // mean/std/count per feature
//	info, _ := eng.SegmentInfo(0)           // size, share, common averages
package segmento
