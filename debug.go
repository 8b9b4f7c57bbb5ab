package segmento

// Snapshot describes the loaded bundle for introspection.
type Snapshot struct {
	Version      uint64         `json:"version"`
	Manifest     string         `json:"manifest"`
	Schema       []string       `json:"schema"`
	Components   int            `json:"components"`
	DatasetShape [2]int         `json:"dataset_shape"` // rows, columns
	Columns      []string       `json:"columns"`
	Clusters     []int          `json:"clusters"`
	Labels       map[int]string `json:"labels"`
}

// DebugSnapshot returns a description of the loaded bundle.
func (e *Engine) DebugSnapshot() Snapshot {
	b := e.bundle
	rows, cols := b.Catalog.Table().Shape()
	return Snapshot{
		Version:      b.Manifest.Version,
		Manifest:     b.ManifestName,
		Schema:       b.Schema.Names(),
		Components:   b.Projector.Components(),
		DatasetShape: [2]int{rows, cols},
		Columns:      b.Catalog.Table().Columns(),
		Clusters:     b.Catalog.Clusters(),
		Labels:       b.Catalog.Labels(),
	}
}
