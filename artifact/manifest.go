package artifact

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/segmento/codec"
)

const (
	// CurrentName is the blob holding the active manifest name.
	CurrentName = "CURRENT"
	// ManifestPrefix starts every manifest blob name.
	ManifestPrefix = "MANIFEST-"
	// FormatVersion is the manifest layout written by Publish.
	FormatVersion = 1
)

// Artifact names used in errors and logs.
const (
	NameSchema     = "schema"
	NameScaler     = "scaler"
	NameProjection = "projection"
	NameCentroids  = "centroids"
	NameLabels     = "labels"
	NameDataset    = "dataset"
	NameReport     = "report"
	NameManifest   = "manifest"
)

// Manifest describes one published bundle.
type Manifest struct {
	Format    int        `json:"format"`
	Version   uint64     `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	Codec     string     `json:"codec"`
	Artifacts Artifacts  `json:"artifacts"`
	Dataset   DatasetRef `json:"dataset"`
	Report    *Ref       `json:"report,omitempty"`
}

// Artifacts references the fitted model artifacts.
type Artifacts struct {
	Schema     Ref `json:"schema"`
	Scaler     Ref `json:"scaler"`
	Projection Ref `json:"projection"`
	Centroids  Ref `json:"centroids"`
	Labels     Ref `json:"labels"`
}

// Ref locates one blob of the bundle.
type Ref struct {
	Path        string            `json:"path"`
	Compression codec.Compression `json:"compression,omitempty"`
	Checksum    string            `json:"checksum,omitempty"` // base64 CRC32C of the stored bytes
	Size        int64             `json:"size,omitempty"`
}

// DatasetRef locates the reference dataset and describes its columns.
type DatasetRef struct {
	Ref
	ClusterColumn   string `json:"cluster_column,omitempty"`
	NameColumn      string `json:"name_column,omitempty"`
	ComponentPrefix string `json:"component_prefix,omitempty"`
}

// SchemaDoc is the schema artifact.
type SchemaDoc struct {
	Features []string `json:"features"`
}

// ScalerDoc is the standardizer artifact.
type ScalerDoc struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ProjectionDoc is the projection artifact. Either Matrix
// (features × components, optional per-component Offset) or the fitted
// estimator layout Components (components × features, optional per-feature
// Mean) is set.
type ProjectionDoc struct {
	Matrix     [][]float64 `json:"matrix,omitempty"`
	Offset     []float64   `json:"offset,omitempty"`
	Components [][]float64 `json:"components,omitempty"`
	Mean       []float64   `json:"mean,omitempty"`
}

// CentroidsDoc is the assigner artifact.
type CentroidsDoc struct {
	Centroids [][]float64 `json:"centroids"`
}

// LabelsDoc maps decimal cluster indices to display names.
type LabelsDoc struct {
	Labels map[string]string `json:"labels"`
}

// ManifestName returns the blob name of a manifest version.
func ManifestName(version uint64) string {
	return fmt.Sprintf("%s%06d.json", ManifestPrefix, version)
}

// ParseManifestName extracts the version from a manifest blob name.
func ParseManifestName(name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, ManifestPrefix)
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".json")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func artifactDir(version uint64) string {
	return fmt.Sprintf("v%06d", version)
}
