// Package analytics computes descriptive statistics of segments over the
// reference dataset: the size distribution, per-feature mean and population
// standard deviation, and the compact segment summary attached to
// predictions.
//
// Every computation is a fresh O(N) scan of the immutable catalog. Cached
// wraps an Engine with a byte-bounded result cache keyed by bundle version.
package analytics
