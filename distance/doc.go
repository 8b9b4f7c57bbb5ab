// Package distance provides the vector distance calculations used to compare
// component-space points with cluster centroids.
//
// All functions operate on float64 slices and are pure, so they are safe for
// concurrent use.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default, order-equivalent to Euclidean)
//   - MetricEuclidean: Euclidean distance
//   - MetricCosine: Cosine distance (1 - cosine similarity)
//
// # Usage
//
//	d := distance.SquaredL2(a, b)
//	e := distance.Euclidean(a, b)
//	fn, _ := distance.Provider(distance.MetricL2)
package distance
