package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segmento/artifact"
	"github.com/hupe1980/segmento/codec"
	"github.com/hupe1980/segmento/dataset"
)

type publishOptions struct {
	config          configFlags
	from            string
	codec           string
	compression     string
	version         uint64
	clusterColumn   string
	nameColumn      string
	componentPrefix string
}

// NewPublishCmd creates the publish command
func NewPublishCmd() *cobra.Command {
	opts := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish an exported artifact directory as a new bundle",
		Long: `Read the artifacts exported by the training notebook and publish them as a
new bundle version. CURRENT is only switched after every artifact and the
manifest are written, and the new bundle is loaded once to verify it.

The source directory holds schema.json, scaler.json, projection.json,
centroids.json, labels.json and dataset.csv, plus an optional report.txt.

Examples:
  segmentd publish --from ./export --dir ./model
  segmentd publish --from ./export --config /etc/segmentd.yaml --compression lz4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, opts)
		},
	}
	opts.config.bind(cmd)
	cmd.Flags().StringVar(&opts.from, "from", "", "Directory with the exported artifacts")
	cmd.Flags().StringVar(&opts.codec, "codec", codec.Default.Name(), "Artifact codec: json, go-json")
	cmd.Flags().StringVar(&opts.compression, "compression", string(codec.CompressionZSTD), "Artifact compression: none, zstd, lz4")
	cmd.Flags().Uint64Var(&opts.version, "version", 0, "Bundle version (0 picks the next free version)")
	cmd.Flags().StringVar(&opts.clusterColumn, "cluster-column", dataset.DefaultOptions.ClusterColumn, "Dataset column holding the cluster index")
	cmd.Flags().StringVar(&opts.nameColumn, "name-column", dataset.DefaultOptions.NameColumn, "Dataset column holding the segment name")
	cmd.Flags().StringVar(&opts.componentPrefix, "component-prefix", dataset.DefaultOptions.ComponentPrefix, "Prefix of component-space columns")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func runPublish(cmd *cobra.Command, opts *publishOptions) error {
	cfg, err := opts.config.load()
	if err != nil {
		return err
	}
	cd, ok := codec.ByName(opts.codec)
	if !ok {
		return fmt.Errorf("unknown codec %q", opts.codec)
	}
	comp, err := codec.ParseCompression(opts.compression)
	if err != nil {
		return err
	}

	in, err := readExport(opts.from)
	if err != nil {
		return err
	}
	in.ClusterColumn = opts.clusterColumn
	in.NameColumn = opts.nameColumn
	in.ComponentPrefix = opts.componentPrefix

	ctx := cmd.Context()
	store, err := cfg.Storage.OpenStore(ctx)
	if err != nil {
		return err
	}
	rc := cfg.Limits.Controller()

	m, err := artifact.Publish(ctx, store, in, artifact.PublishOptions{
		Codec:       cd,
		Compression: comp,
		Version:     opts.version,
		Controller:  rc,
	})
	if err != nil {
		return err
	}

	name := artifact.ManifestName(m.Version)
	b, err := artifact.Load(ctx, store, artifact.LoadOptions{ManifestName: name, Controller: rc})
	if err != nil {
		return fmt.Errorf("verify %s: %w", name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "published %s (version %d, %d segments, %d records)\n",
		name, m.Version, b.Assigner.K(), b.Catalog.Total())
	for _, w := range b.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}

// readExport reads an artifact directory written by the training notebook.
func readExport(dir string) (artifact.Input, error) {
	var (
		in        artifact.Input
		schemaDoc artifact.SchemaDoc
		centroids artifact.CentroidsDoc
		labels    artifact.LabelsDoc
	)
	docs := []struct {
		file string
		v    any
	}{
		{artifact.NameSchema + ".json", &schemaDoc},
		{artifact.NameScaler + ".json", &in.Scaler},
		{artifact.NameProjection + ".json", &in.Projection},
		{artifact.NameCentroids + ".json", &centroids},
		{artifact.NameLabels + ".json", &labels},
	}
	for _, d := range docs {
		data, err := os.ReadFile(filepath.Join(dir, d.file))
		if err != nil {
			return artifact.Input{}, err
		}
		if err := (codec.JSON{}).Unmarshal(data, d.v); err != nil {
			return artifact.Input{}, fmt.Errorf("decode %s: %w", d.file, err)
		}
	}

	in.Features = schemaDoc.Features
	in.Centroids = centroids.Centroids
	in.Labels = make(map[int]string, len(labels.Labels))
	for k, v := range labels.Labels {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return artifact.Input{}, fmt.Errorf("decode %s.json: cluster key %q is not an integer", artifact.NameLabels, k)
		}
		in.Labels[idx] = v
	}

	var err error
	if in.Dataset, err = os.ReadFile(filepath.Join(dir, artifact.NameDataset+".csv")); err != nil {
		return artifact.Input{}, err
	}
	in.Report, err = os.ReadFile(filepath.Join(dir, artifact.NameReport+".txt"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return artifact.Input{}, err
	}
	return in, nil
}
