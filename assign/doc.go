// Package assign maps component-space points to the nearest of K fixed
// centroids.
//
// Centroids are supplied pre-fitted and never change after construction.
// Distances are Euclidean; ties resolve to the lower cluster index, so the
// result is fully deterministic.
package assign
