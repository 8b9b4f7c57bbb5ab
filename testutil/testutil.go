package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG encapsulates a seeded random number generator.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float64, minVal, maxVal float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float64()*span
	}
}

// FillGaussian fills dst with samples from N(mean, std²).
func (r *RNG) FillGaussian(dst []float64, mean, std float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = mean + r.rand.NormFloat64()*std
	}
}

// Points generates num points with coordinates uniform in [-1, 1).
// Uses a single backing array.
func (r *RNG) Points(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	out := make([][]float64, num)
	for i := range num {
		p := data[i*dim : (i+1)*dim]
		for j := range p {
			p[j] = r.rand.Float64()*2 - 1
		}
		out[i] = p
	}
	return out
}

// Centroids generates k centroids spaced at least minGap apart, each
// coordinate uniform in [-scale, scale).
func (r *RNG) Centroids(k, dim int, scale, minGap float64) [][]float64 {
	out := make([][]float64, 0, k)
	for len(out) < k {
		c := make([]float64, dim)
		r.FillUniformRange(c, -scale, scale)
		ok := true
		for _, o := range out {
			if dist(c, o) < minGap {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// ClusteredPoints generates num points with Gaussian noise around the given
// centroids, assigned round-robin. It returns the points and the index of the
// centroid each was drawn from.
func (r *RNG) ClusteredPoints(num, dim int, centroids [][]float64, spread float64) ([][]float64, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	points := make([][]float64, num)
	labels := make([]int, num)
	for i := range num {
		c := i % len(centroids)
		p := data[i*dim : (i+1)*dim]
		for j := range p {
			p[j] = centroids[c][j] + r.rand.NormFloat64()*spread
		}
		points[i] = p
		labels[i] = c
	}
	return points, labels
}

func dist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
