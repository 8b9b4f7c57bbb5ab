package segmento

import (
	"context"
	"time"

	"github.com/hupe1980/segmento/schema"
	"golang.org/x/sync/errgroup"
)

// BatchResult holds per-record outcomes of PredictBatch, aligned with the
// input. Predictions[i] is the zero value when Errors[i] is non-nil.
type BatchResult struct {
	Predictions []Prediction
	Errors      []error
	Failed      int
}

// Err returns the error of record i.
func (r BatchResult) Err(i int) error { return r.Errors[i] }

// PredictBatch predicts every record independently. A rejected record never
// affects the others. Records are evaluated concurrently, bounded by
// WithBatchConcurrency and the resource controller's worker slots.
//
// If ctx is cancelled, records not yet evaluated fail with the context error.
func (e *Engine) PredictBatch(ctx context.Context, recs []schema.Record) BatchResult {
	start := time.Now()
	res := BatchResult{
		Predictions: make([]Prediction, len(recs)),
		Errors:      make([]error, len(recs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.batchConcurrency)
	for i, rec := range recs {
		g.Go(func() error {
			if err := e.opts.resource.AcquireWorker(gctx); err != nil {
				res.Errors[i] = err
				return nil
			}
			defer e.opts.resource.ReleaseWorker()

			p, _, err := e.predict(gctx, rec)
			if err != nil {
				res.Errors[i] = err
				return nil
			}
			res.Predictions[i] = p
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range res.Errors {
		if err != nil {
			res.Failed++
		}
	}
	e.opts.metricsCollector.RecordBatchPredict(len(recs), res.Failed, time.Since(start))
	e.opts.logger.LogBatchPredict(ctx, len(recs), res.Failed)
	return res
}
