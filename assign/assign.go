package assign

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/segmento/distance"
)

// ErrNoCentroids is returned when an Assigner is built from an empty set.
var ErrNoCentroids = errors.New("assign: no centroids")

// ErrDimensionMismatch indicates a point or centroid of the wrong length.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("assign: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Assigner owns an immutable, ordered set of K centroids.
// Cluster index i refers to the i-th centroid.
type Assigner struct {
	dim       int
	centroids []float64 // flattened, K × dim
}

// New creates an Assigner. All centroids must share the same non-zero length
// and contain finite values.
func New(centroids [][]float64) (*Assigner, error) {
	if len(centroids) == 0 {
		return nil, ErrNoCentroids
	}
	dim := len(centroids[0])
	if dim == 0 {
		return nil, errors.New("assign: zero-length centroid")
	}
	a := &Assigner{dim: dim, centroids: make([]float64, 0, len(centroids)*dim)}
	for k, c := range centroids {
		if len(c) != dim {
			return nil, fmt.Errorf("assign: centroid %d: %w", k, &ErrDimensionMismatch{Expected: dim, Actual: len(c)})
		}
		for _, x := range c {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("assign: centroid %d has non-finite value", k)
			}
		}
		a.centroids = append(a.centroids, c...)
	}
	return a, nil
}

// K returns the number of clusters.
func (a *Assigner) K() int { return len(a.centroids) / a.dim }

// Dimension returns the component-space dimension.
func (a *Assigner) Dimension() int { return a.dim }

// Centroid returns a copy of centroid k.
func (a *Assigner) Centroid(k int) []float64 {
	return slices.Clone(a.centroid(k))
}

func (a *Assigner) centroid(k int) []float64 {
	return a.centroids[k*a.dim : (k+1)*a.dim]
}

// squaredDistances returns the squared Euclidean distance from point to every
// centroid, divided by scale². The scale is 1 unless a distance overflows, in
// which case every coordinate is divided by the largest magnitude involved so
// the comparison stays finite.
func (a *Assigner) squaredDistances(point []float64) (dists []float64, scale float64) {
	k := a.K()
	dists = make([]float64, k)
	finite := true
	for i := range k {
		dists[i] = distance.SquaredL2(point, a.centroid(i))
		if math.IsInf(dists[i], 1) {
			finite = false
		}
	}
	if finite {
		return dists, 1
	}

	for _, x := range point {
		scale = max(scale, math.Abs(x))
	}
	for _, x := range a.centroids {
		scale = max(scale, math.Abs(x))
	}
	if math.IsInf(scale, 0) || scale == 0 {
		return dists, 1
	}
	for i := range k {
		var sum float64
		for j, c := range a.centroid(i) {
			diff := point[j]/scale - c/scale
			sum += diff * diff
		}
		dists[i] = sum
	}
	return dists, scale
}

// Assign returns the index of the centroid closest to point.
// Equidistant centroids resolve to the lower index. The result is always in
// [0, K); a point whose distances are all NaN is assigned cluster 0.
func (a *Assigner) Assign(point []float64) (int, error) {
	if len(point) != a.dim {
		return -1, &ErrDimensionMismatch{Expected: a.dim, Actual: len(point)}
	}

	dists, _ := a.squaredDistances(point)
	best := 0
	minDist := math.Inf(1)
	for k, d := range dists {
		// Strict comparison keeps the first (lowest) index on exact ties
		// and never selects NaN.
		if d < minDist {
			minDist = d
			best = k
		}
	}
	return best, nil
}

// Candidate is a centroid together with its Euclidean distance to a point.
type Candidate struct {
	Cluster  int     `json:"cluster"`
	Distance float64 `json:"distance"`
}

// Nearest returns the n closest centroids ordered by ascending distance, ties
// by ascending index. NaN distances sort last. Distances beyond the float64
// range are reported as math.MaxFloat64. n <= 0 or n > K returns all K.
func (a *Assigner) Nearest(point []float64, n int) ([]Candidate, error) {
	if len(point) != a.dim {
		return nil, &ErrDimensionMismatch{Expected: a.dim, Actual: len(point)}
	}
	k := a.K()
	if n <= 0 || n > k {
		n = k
	}

	dists, scale := a.squaredDistances(point)
	out := make([]Candidate, k)
	for i, d := range dists {
		out[i] = Candidate{Cluster: i, Distance: d}
	}
	slices.SortStableFunc(out, func(x, y Candidate) int {
		return compareDistance(x.Distance, y.Distance)
	})

	out = out[:n]
	for i := range out {
		d := math.Sqrt(out[i].Distance) * scale
		if math.IsInf(d, 1) {
			d = math.MaxFloat64
		}
		out[i].Distance = d
	}
	return out, nil
}

// compareDistance orders distances ascending with NaN after every number.
func compareDistance(x, y float64) int {
	switch xNaN, yNaN := math.IsNaN(x), math.IsNaN(y); {
	case xNaN && yNaN:
		return 0
	case xNaN:
		return 1
	case yNaN:
		return -1
	}
	return cmp.Compare(x, y)
}
