package testutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/hupe1980/segmento/artifact"
	"github.com/hupe1980/segmento/blobstore"
	"github.com/hupe1980/segmento/codec"
	"github.com/stretchr/testify/require"
)

// SmallDataset is the reference dataset of SmallInput. Cluster 0 holds three
// records and cluster 1 two; "Income Level" is deliberately absent.
const SmallDataset = `Age,Income,Premium Amount,Coverage Amount,Region,PC1,PC2,Cluster,Cluster_Name
25,30000,1200,50000,North,-1.5,-1.0,0,Young Savers
30,42000,1500,60000,South,-1.0,-0.4,0,Young Savers
35,48000,1800,70000,East,-0.5,-0.1,0,Young Savers
50,70000,3000,150000,North,1.0,1.0,1,Established Professionals
60,90000,4200,210000,West,2.0,2.0,1,Established Professionals
`

// SmallInput returns a two-feature, two-cluster bundle: features Age and
// Income with mean [40, 50000] and scale [10, 20000], identity projection
// and centroids (0,0) and (2,2).
func SmallInput() artifact.Input {
	return artifact.Input{
		Features:   []string{"Age", "Income"},
		Scaler:     artifact.ScalerDoc{Mean: []float64{40, 50000}, Scale: []float64{10, 20000}},
		Projection: artifact.ProjectionDoc{Matrix: [][]float64{{1, 0}, {0, 1}}},
		Centroids:  [][]float64{{0, 0}, {2, 2}},
		Labels:     map[int]string{0: "Young Savers", 1: "Established Professionals"},
		Dataset:    []byte(SmallDataset),
		Report:     []byte("Segmentation report\n"),
	}
}

// SyntheticInput returns a bundle with dim features F1..Fdim, an identity
// standardizer and projection, k well separated centroids and perCluster
// reference records around each of them.
func SyntheticInput(rng *RNG, k, dim, perCluster int) artifact.Input {
	features := make([]string, dim)
	mean := make([]float64, dim)
	scale := make([]float64, dim)
	matrix := make([][]float64, dim)
	for i := range dim {
		features[i] = "F" + strconv.Itoa(i+1)
		scale[i] = 1
		matrix[i] = make([]float64, dim)
		matrix[i][i] = 1
	}

	centroids := rng.Centroids(k, dim, 10, 2)
	points, clusters := rng.ClusteredPoints(k*perCluster, dim, centroids, 0.1)

	labels := make(map[int]string, k)
	for c := range k {
		labels[c] = fmt.Sprintf("Segment %d", c)
	}

	var sb strings.Builder
	for _, f := range features {
		sb.WriteString(f)
		sb.WriteByte(',')
	}
	for i := range dim {
		fmt.Fprintf(&sb, "PC%d,", i+1)
	}
	sb.WriteString("Cluster,Cluster_Name\n")
	for i, p := range points {
		for range 2 {
			for _, x := range p {
				sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
				sb.WriteByte(',')
			}
		}
		fmt.Fprintf(&sb, "%d,%s\n", clusters[i], labels[clusters[i]])
	}

	return artifact.Input{
		Features:   features,
		Scaler:     artifact.ScalerDoc{Mean: mean, Scale: scale},
		Projection: artifact.ProjectionDoc{Matrix: matrix},
		Centroids:  centroids,
		Labels:     labels,
		Dataset:    []byte(sb.String()),
	}
}

// Publish writes in to store with zstd compression and fails the test on
// error.
func Publish(t testing.TB, store blobstore.BlobStore, in artifact.Input) *artifact.Manifest {
	t.Helper()
	m, err := artifact.Publish(context.Background(), store, in, artifact.PublishOptions{
		Compression: codec.CompressionZSTD,
	})
	require.NoError(t, err)
	return m
}

// NewStore returns a memory store holding SmallInput.
func NewStore(t testing.TB) *blobstore.MemoryStore {
	t.Helper()
	store := blobstore.NewMemoryStore()
	Publish(t, store, SmallInput())
	return store
}
