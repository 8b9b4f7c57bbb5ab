package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/segmento/blobstore"
	"github.com/hupe1980/segmento/codec"
	"github.com/hupe1980/segmento/internal/hash"
	"github.com/hupe1980/segmento/resource"
)

// Input is an in-memory artifact set to publish.
type Input struct {
	Features   []string
	Scaler     ScalerDoc
	Projection ProjectionDoc
	Centroids  [][]float64
	Labels     map[int]string

	// Dataset is the reference dataset as CSV with a header row.
	Dataset         []byte
	ClusterColumn   string
	NameColumn      string
	ComponentPrefix string

	// Report is an optional free-form segmentation report.
	Report []byte
}

// PublishOptions configures Publish.
type PublishOptions struct {
	// Codec encodes the artifact documents. nil uses codec.Default.
	Codec codec.Codec
	// Compression applies to every artifact blob.
	Compression codec.Compression
	// Version pins the bundle version. 0 picks the next free version.
	Version uint64
	// Controller throttles writes. May be nil.
	Controller *resource.Controller
}

// Publish writes in as a new bundle and points CURRENT at it.
// Publish does not validate in; use Load on the result for that.
func Publish(ctx context.Context, store blobstore.BlobStore, in Input, opts PublishOptions) (*Manifest, error) {
	cd := opts.Codec
	if cd == nil {
		cd = codec.Default
	}

	version := opts.Version
	if version == 0 {
		latest, err := LatestVersion(ctx, store)
		if err != nil {
			return nil, err
		}
		version = latest + 1
	}

	m := &Manifest{
		Format:    FormatVersion,
		Version:   version,
		CreatedAt: time.Now().UTC(),
		Codec:     cd.Name(),
	}
	w := &writer{
		store: store,
		dir:   artifactDir(version),
		comp:  opts.Compression,
		rc:    opts.Controller,
	}

	labels := make(map[string]string, len(in.Labels))
	for k, v := range in.Labels {
		labels[strconv.Itoa(k)] = v
	}

	docs := []struct {
		name string
		doc  any
		ref  *Ref
	}{
		{NameSchema, SchemaDoc{Features: in.Features}, &m.Artifacts.Schema},
		{NameScaler, in.Scaler, &m.Artifacts.Scaler},
		{NameProjection, in.Projection, &m.Artifacts.Projection},
		{NameCentroids, CentroidsDoc{Centroids: in.Centroids}, &m.Artifacts.Centroids},
		{NameLabels, LabelsDoc{Labels: labels}, &m.Artifacts.Labels},
	}
	for _, d := range docs {
		data, err := cd.Marshal(d.doc)
		if err != nil {
			return nil, fmt.Errorf("artifact: encode %s: %w", d.name, err)
		}
		ref, err := w.write(ctx, d.name+".json", data)
		if err != nil {
			return nil, err
		}
		*d.ref = ref
	}

	ref, err := w.write(ctx, NameDataset+".csv", in.Dataset)
	if err != nil {
		return nil, err
	}
	m.Dataset = DatasetRef{
		Ref:             ref,
		ClusterColumn:   in.ClusterColumn,
		NameColumn:      in.NameColumn,
		ComponentPrefix: in.ComponentPrefix,
	}

	if len(in.Report) > 0 {
		ref, err := w.write(ctx, NameReport+".txt", in.Report)
		if err != nil {
			return nil, err
		}
		m.Report = &ref
	}

	manifest, err := (codec.JSON{}).Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode manifest: %w", err)
	}
	name := ManifestName(version)
	if err := opts.Controller.AcquireIO(ctx, len(manifest)); err != nil {
		return nil, err
	}
	if err := store.Put(ctx, name, manifest); err != nil {
		return nil, fmt.Errorf("artifact: write %s: %w", name, err)
	}
	if err := store.Put(ctx, CurrentName, []byte(name)); err != nil {
		return nil, fmt.Errorf("artifact: write %s: %w", CurrentName, err)
	}
	return m, nil
}

// LatestVersion returns the version CURRENT points to, falling back to the
// highest manifest in the store. 0 means nothing was published.
func LatestVersion(ctx context.Context, store blobstore.BlobStore) (uint64, error) {
	current, err := blobstore.ReadAll(ctx, store, CurrentName, nil)
	switch {
	case err == nil:
		if v, ok := ParseManifestName(strings.TrimSpace(string(current))); ok {
			return v, nil
		}
	case !errors.Is(err, blobstore.ErrNotFound):
		return 0, fmt.Errorf("artifact: read %s: %w", CurrentName, err)
	}

	names, err := store.List(ctx, ManifestPrefix)
	if err != nil {
		return 0, fmt.Errorf("artifact: list manifests: %w", err)
	}
	var latest uint64
	for _, n := range names {
		if v, ok := ParseManifestName(path.Base(n)); ok && v > latest {
			latest = v
		}
	}
	return latest, nil
}

type writer struct {
	store blobstore.BlobStore
	dir   string
	comp  codec.Compression
	rc    *resource.Controller
}

func (w *writer) write(ctx context.Context, base string, data []byte) (Ref, error) {
	stored, err := codec.Compress(w.comp, data)
	if err != nil {
		return Ref{}, fmt.Errorf("artifact: compress %s: %w", base, err)
	}
	name := path.Join(w.dir, base+w.comp.Extension())

	blob, err := w.store.Create(ctx, name)
	if err != nil {
		return Ref{}, fmt.Errorf("artifact: create %s: %w", name, err)
	}
	out := resource.NewRateLimitedWriter(ctx, blob, w.rc)
	if _, err := out.Write(stored); err != nil {
		_ = blob.Close()
		return Ref{}, fmt.Errorf("artifact: write %s: %w", name, err)
	}
	if err := blob.Sync(); err != nil {
		_ = blob.Close()
		return Ref{}, fmt.Errorf("artifact: sync %s: %w", name, err)
	}
	if err := blob.Close(); err != nil {
		return Ref{}, fmt.Errorf("artifact: close %s: %w", name, err)
	}

	comp := w.comp
	if comp == codec.CompressionNone {
		comp = ""
	}
	return Ref{
		Path:        name,
		Compression: comp,
		Checksum:    hash.CRC32CBase64(stored),
		Size:        int64(len(stored)),
	}, nil
}
