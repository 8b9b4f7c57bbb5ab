package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/segmento/assign"
	"github.com/hupe1980/segmento/blobstore"
	"github.com/hupe1980/segmento/catalog"
	"github.com/hupe1980/segmento/codec"
	"github.com/hupe1980/segmento/dataset"
	"github.com/hupe1980/segmento/internal/hash"
	"github.com/hupe1980/segmento/projection"
	"github.com/hupe1980/segmento/resource"
	"github.com/hupe1980/segmento/schema"
	"github.com/hupe1980/segmento/standardize"
	"golang.org/x/sync/errgroup"
)

// Bundle is a loaded, mutually consistent artifact set.
type Bundle struct {
	Manifest     *Manifest
	ManifestName string
	Schema       *schema.Schema
	Standardizer *standardize.Standardizer
	Projector    *projection.Projector
	Assigner     *assign.Assigner
	Catalog      *catalog.Catalog

	// Warnings lists non-fatal inconsistencies, such as dataset rows whose
	// name column disagrees with the labels artifact.
	Warnings []string
}

// LoadOptions configures Load.
type LoadOptions struct {
	// ManifestName pins a manifest instead of resolving CURRENT.
	ManifestName string
	// Controller throttles reads and bounds parallel fetches. May be nil.
	Controller *resource.Controller
}

// Load reads the bundle CURRENT points to (or opts.ManifestName) and
// validates it. Every error is a *ConfigurationError.
func Load(ctx context.Context, store blobstore.BlobStore, opts LoadOptions) (*Bundle, error) {
	name := opts.ManifestName
	if name == "" {
		current, err := blobstore.ReadAll(ctx, store, CurrentName, opts.Controller)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, configErr(CurrentName, ErrNoBundle)
			}
			return nil, configErr(CurrentName, err)
		}
		name = strings.TrimSpace(string(current))
		if name == "" {
			return nil, configErrf(CurrentName, "empty pointer")
		}
	}

	m, err := ReadManifest(ctx, store, name, opts.Controller)
	if err != nil {
		return nil, err
	}

	cd, ok := codec.ByName(m.Codec)
	if !ok {
		return nil, configErrf(NameManifest, "unknown codec %q", m.Codec)
	}

	refs := []struct {
		name string
		ref  *Ref
	}{
		{NameSchema, &m.Artifacts.Schema},
		{NameScaler, &m.Artifacts.Scaler},
		{NameProjection, &m.Artifacts.Projection},
		{NameCentroids, &m.Artifacts.Centroids},
		{NameLabels, &m.Artifacts.Labels},
		{NameDataset, &m.Dataset.Ref},
	}
	blobs := make(map[string][]byte, len(refs))
	results := make([][]byte, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.Controller.Workers()))
	for i, r := range refs {
		g.Go(func() error {
			data, err := readRef(gctx, store, r.name, *r.ref, opts.Controller)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, r := range refs {
		blobs[r.name] = results[i]
	}

	b := &Bundle{Manifest: m, ManifestName: name}
	if err := b.build(cd, blobs); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadReport fetches the optional report of m. The report is not part of
// Load so that bundles with large reports stay cheap to open.
func ReadReport(ctx context.Context, store blobstore.BlobStore, m *Manifest, rc *resource.Controller) ([]byte, error) {
	if m.Report == nil {
		return nil, ErrNoReport
	}
	return readRef(ctx, store, NameReport, *m.Report, rc)
}

// ReadManifest reads and decodes a manifest blob.
func ReadManifest(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, store, name, rc)
	if err != nil {
		return nil, configErr(NameManifest, fmt.Errorf("read %s: %w", name, err))
	}
	var m Manifest
	if err := (codec.JSON{}).Unmarshal(data, &m); err != nil {
		return nil, configErr(NameManifest, fmt.Errorf("decode %s: %w", name, err))
	}
	if m.Format != FormatVersion {
		return nil, configErr(NameManifest, fmt.Errorf("%w: %d", ErrIncompatibleFormat, m.Format))
	}
	return &m, nil
}

func readRef(ctx context.Context, store blobstore.BlobStore, name string, ref Ref, rc *resource.Controller) ([]byte, error) {
	if ref.Path == "" {
		return nil, configErrf(name, "missing path")
	}
	comp, err := codec.ParseCompression(string(ref.Compression))
	if err != nil {
		return nil, configErr(name, err)
	}
	raw, err := blobstore.ReadAll(ctx, store, ref.Path, rc)
	if err != nil {
		return nil, configErr(name, fmt.Errorf("read %s: %w", ref.Path, err))
	}
	if ref.Checksum != "" {
		if sum := hash.CRC32CBase64(raw); sum != ref.Checksum {
			return nil, configErr(name, fmt.Errorf("%w: %s has %s, manifest records %s", ErrChecksumMismatch, ref.Path, sum, ref.Checksum))
		}
	}
	data, err := codec.Decompress(comp, raw)
	if err != nil {
		return nil, configErr(name, fmt.Errorf("decompress %s: %w", ref.Path, err))
	}
	return data, nil
}

func (b *Bundle) build(cd codec.Codec, blobs map[string][]byte) error {
	var sd SchemaDoc
	if err := cd.Unmarshal(blobs[NameSchema], &sd); err != nil {
		return configErr(NameSchema, err)
	}
	s, err := schema.New(sd.Features)
	if err != nil {
		return configErr(NameSchema, err)
	}
	b.Schema = s

	var sc ScalerDoc
	if err := cd.Unmarshal(blobs[NameScaler], &sc); err != nil {
		return configErr(NameScaler, err)
	}
	if len(sc.Mean) != s.Len() {
		return configErrf(NameScaler, "%d parameters for %d features", len(sc.Mean), s.Len())
	}
	std, err := standardize.New(sc.Mean, sc.Scale)
	if err != nil {
		return configErr(NameScaler, err)
	}
	b.Standardizer = std

	var pd ProjectionDoc
	if err := cd.Unmarshal(blobs[NameProjection], &pd); err != nil {
		return configErr(NameProjection, err)
	}
	var proj *projection.Projector
	switch {
	case len(pd.Matrix) > 0:
		proj, err = projection.New(pd.Matrix, pd.Offset)
	case len(pd.Components) > 0:
		proj, err = projection.FromComponents(pd.Components, pd.Mean)
	default:
		err = errors.New("neither matrix nor components given")
	}
	if err != nil {
		return configErr(NameProjection, err)
	}
	if proj.Features() != s.Len() {
		return configErrf(NameProjection, "%d input features, schema has %d", proj.Features(), s.Len())
	}
	b.Projector = proj

	var cdoc CentroidsDoc
	if err := cd.Unmarshal(blobs[NameCentroids], &cdoc); err != nil {
		return configErr(NameCentroids, err)
	}
	asg, err := assign.New(cdoc.Centroids)
	if err != nil {
		return configErr(NameCentroids, err)
	}
	if asg.Dimension() != proj.Components() {
		return configErrf(NameCentroids, "dimension %d, projection yields %d components", asg.Dimension(), proj.Components())
	}
	b.Assigner = asg

	var ld LabelsDoc
	if err := cd.Unmarshal(blobs[NameLabels], &ld); err != nil {
		return configErr(NameLabels, err)
	}
	labels, err := parseLabels(ld.Labels)
	if err != nil {
		return configErr(NameLabels, err)
	}

	dopts := dataset.DefaultOptions
	ref := b.Manifest.Dataset
	if ref.ClusterColumn != "" {
		dopts.ClusterColumn = ref.ClusterColumn
	}
	if ref.NameColumn != "" {
		dopts.NameColumn = ref.NameColumn
	}
	if ref.ComponentPrefix != "" {
		dopts.ComponentPrefix = ref.ComponentPrefix
	}
	tbl, err := dataset.ParseCSV(bytes.NewReader(blobs[NameDataset]), dopts)
	if err != nil {
		return configErr(NameDataset, err)
	}

	cat, err := catalog.New(labels, asg.K(), tbl)
	if err != nil {
		return configErr(NameLabels, err)
	}
	b.Catalog = cat

	if rows := cat.Mislabeled(); len(rows) > 0 {
		b.Warnings = append(b.Warnings, fmt.Sprintf(
			"dataset: %d rows carry a name that disagrees with the labels artifact (first row %d)",
			len(rows), rows[0]))
	}
	return nil
}

func parseLabels(in map[string]string) (map[int]string, error) {
	out := make(map[int]string, len(in))
	for _, k := range slices.Sorted(maps.Keys(in)) {
		c, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("invalid cluster index %q", k)
		}
		if _, dup := out[c]; dup {
			return nil, fmt.Errorf("duplicate cluster index %d", c)
		}
		out[c] = in[k]
	}
	return out, nil
}
