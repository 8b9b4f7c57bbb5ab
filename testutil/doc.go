// Package testutil provides testing utilities for segmento.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	pts, labels := rng.ClusteredPoints(num, dim, centroids, 0.1)
//
// # Bundle Fixtures
//
//	store := blobstore.NewMemoryStore()
//	testutil.Publish(t, store, testutil.SmallInput())
//	bundle, err := artifact.Load(ctx, store, artifact.LoadOptions{})
package testutil
