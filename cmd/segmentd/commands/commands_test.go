package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segmento"
	"github.com/hupe1980/segmento/artifact"
	"github.com/hupe1980/segmento/blobstore"
	"github.com/hupe1980/segmento/codec"
	"github.com/hupe1980/segmento/internal/config"
	"github.com/hupe1980/segmento/internal/server"
	"github.com/hupe1980/segmento/testutil"
)

// writeExport lays out in the way the training notebook exports it.
func writeExport(t *testing.T, in artifact.Input) string {
	t.Helper()
	dir := t.TempDir()

	labels := artifact.LabelsDoc{Labels: map[string]string{}}
	for k, v := range in.Labels {
		labels.Labels[strconv.Itoa(k)] = v
	}
	files := map[string][]byte{
		"schema.json":     codec.MustMarshal(codec.JSON{}, artifact.SchemaDoc{Features: in.Features}),
		"scaler.json":     codec.MustMarshal(codec.JSON{}, in.Scaler),
		"projection.json": codec.MustMarshal(codec.JSON{}, in.Projection),
		"centroids.json":  codec.MustMarshal(codec.JSON{}, artifact.CentroidsDoc{Centroids: in.Centroids}),
		"labels.json":     codec.MustMarshal(codec.JSON{}, labels),
		"dataset.csv":     in.Dataset,
	}
	if len(in.Report) > 0 {
		files["report.txt"] = in.Report
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
	}
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// publishedBundle publishes SmallInput into a fresh local directory through
// the publish command.
func publishedBundle(t *testing.T) string {
	t.Helper()
	export := writeExport(t, testutil.SmallInput())
	bundle := t.TempDir()
	out, err := execute(t, NewPublishCmd(), "", "--from", export, "--dir", bundle)
	require.NoError(t, err)
	require.Equal(t, "published MANIFEST-000001.json (version 1, 2 segments, 5 records)\n", out)
	return bundle
}

func TestPublish(t *testing.T) {
	bundle := publishedBundle(t)

	current, err := os.ReadFile(filepath.Join(bundle, artifact.CurrentName))
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST-000001.json", strings.TrimSpace(string(current)))

	t.Run("NextVersion", func(t *testing.T) {
		export := writeExport(t, testutil.SmallInput())
		out, err := execute(t, NewPublishCmd(), "", "--from", export, "--dir", bundle, "--compression", "lz4", "--codec", "json")
		require.NoError(t, err)
		assert.Contains(t, out, "MANIFEST-000002.json (version 2")

		m, err := artifact.ReadManifest(context.Background(), blobstore.NewLocalStore(bundle), "MANIFEST-000002.json", nil)
		require.NoError(t, err)
		assert.Equal(t, "json", m.Codec)
		assert.Equal(t, codec.CompressionLZ4, m.Artifacts.Schema.Compression)
	})

	t.Run("MislabeledWarning", func(t *testing.T) {
		in := testutil.SmallInput()
		in.Dataset = []byte(strings.Replace(string(in.Dataset), "60,90000,4200,210000,West,2.0,2.0,1,Established Professionals",
			"60,90000,4200,210000,West,2.0,2.0,1,Young Savers", 1))
		out, err := execute(t, NewPublishCmd(), "", "--from", writeExport(t, in), "--dir", t.TempDir())
		require.NoError(t, err)
		assert.Contains(t, out, "warning:")
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := execute(t, NewPublishCmd(), "", "--dir", t.TempDir())
		require.Error(t, err, "--from is required")

		_, err = execute(t, NewPublishCmd(), "", "--from", t.TempDir(), "--dir", t.TempDir())
		require.Error(t, err)

		export := writeExport(t, testutil.SmallInput())
		_, err = execute(t, NewPublishCmd(), "", "--from", export, "--dir", t.TempDir(), "--codec", "xml")
		require.ErrorContains(t, err, "unknown codec")
		_, err = execute(t, NewPublishCmd(), "", "--from", export, "--dir", t.TempDir(), "--compression", "gzip")
		require.Error(t, err)

		bad := testutil.SmallInput()
		bad.Centroids = [][]float64{{0, 0, 0}}
		_, err = execute(t, NewPublishCmd(), "", "--from", writeExport(t, bad), "--dir", t.TempDir())
		require.ErrorIs(t, err, artifact.ErrConfiguration)
	})
}

func TestReadExport(t *testing.T) {
	in := testutil.SmallInput()
	in.Report = nil
	got, err := readExport(writeExport(t, in))
	require.NoError(t, err)
	assert.Equal(t, in.Features, got.Features)
	assert.Equal(t, in.Labels, got.Labels)
	assert.Equal(t, in.Centroids, got.Centroids)
	assert.Equal(t, in.Dataset, got.Dataset)
	assert.Empty(t, got.Report)

	dir := writeExport(t, in)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.json"), []byte(`{"labels":{"zero":"A"}}`), 0o600))
	_, err = readExport(dir)
	require.ErrorContains(t, err, "not an integer")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scaler.json"), []byte(`{`), 0o600))
	_, err = readExport(dir)
	require.ErrorContains(t, err, "decode scaler.json")
}

func TestPredictCmd(t *testing.T) {
	bundle := publishedBundle(t)

	t.Run("Stdin", func(t *testing.T) {
		out, err := execute(t, NewPredictCmd(), `{"Age": 60, "Income": 90000}`, "--dir", bundle)
		require.NoError(t, err)
		var p server.PredictResponse
		require.NoError(t, json.Unmarshal([]byte(out), &p))
		assert.Equal(t, 1, p.ClusterNumber)
		assert.Equal(t, "Established Professionals", p.ClusterName)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "records.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"Age": 25, "Income": 30000}, {"Age": 60, "Income": 90000}]`), 0o600))
		out, err := execute(t, NewPredictCmd(), "", "--dir", bundle, "--input", path)
		require.NoError(t, err)
		var items []server.BatchItem
		require.NoError(t, json.Unmarshal([]byte(out), &items))
		require.Len(t, items, 2)
		assert.Equal(t, 0, items[0].ClusterNumber)
		assert.Equal(t, 1, items[1].ClusterNumber)
	})

	t.Run("BatchFailure", func(t *testing.T) {
		out, err := execute(t, NewPredictCmd(), `[{"Age": 25, "Income": 30000}, {"Income": 1}]`, "--dir", bundle)
		require.ErrorContains(t, err, "1 of 2 records failed")
		assert.Contains(t, out, "VALIDATION_FAILED")
	})

	t.Run("Explain", func(t *testing.T) {
		out, err := execute(t, NewPredictCmd(), `{"Age": 40, "Income": 50000}`, "--dir", bundle, "--explain")
		require.NoError(t, err)
		var ex segmento.Explanation
		require.NoError(t, json.Unmarshal([]byte(out), &ex))
		assert.Len(t, ex.Distances, 2)
		assert.Equal(t, []float64{0, 0}, ex.Standardized)

		_, err = execute(t, NewPredictCmd(), `[{"Age": 40, "Income": 50000}]`, "--dir", bundle, "--explain")
		require.ErrorContains(t, err, "single record")
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := execute(t, NewPredictCmd(), `{"Income": 1}`, "--dir", bundle)
		require.ErrorIs(t, err, segmento.ErrValidation)
	})

	t.Run("NoBundle", func(t *testing.T) {
		_, err := execute(t, NewPredictCmd(), `{"Age": 1, "Income": 1}`, "--dir", t.TempDir())
		require.ErrorIs(t, err, segmento.ErrConfiguration)
	})
}

func TestInspectCmd(t *testing.T) {
	bundle := publishedBundle(t)

	out, err := execute(t, NewInspectCmd(), "", "--dir", bundle, "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Manifest:    MANIFEST-000001.json (version 1)")
	assert.Contains(t, out, "Features:    Age, Income")
	assert.Contains(t, out, "Dataset:     5 rows, 9 columns")
	assert.Contains(t, out, "60.00%")
	assert.Contains(t, out, "40.00%")
	assert.Contains(t, out, "4.08")

	out, err = execute(t, NewInspectCmd(), "", "--dir", bundle, "--json")
	require.NoError(t, err)
	var rep inspectReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 5, rep.Summary.TotalRecords)
	assert.Len(t, rep.Distribution, 2)
	assert.Empty(t, rep.Stats)

	out, err = execute(t, NewInspectCmd(), "", "--dir", bundle, "--manifest", "MANIFEST-000001.json")
	require.NoError(t, err)
	assert.Contains(t, out, "version 1")
}

func TestConfigFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segmentd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9999\"\nstorage:\n  backend: s3\n  bucket: b\n  manifest: MANIFEST-000004.json\n"), 0o600))

	f := configFlags{path: path, dir: "/srv/model"}
	cfg, err := f.load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, config.BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "/srv/model", cfg.Storage.Path)
	assert.Equal(t, "MANIFEST-000004.json", cfg.Storage.Manifest)

	f = configFlags{manifest: "MANIFEST-000002.json"}
	cfg, err = f.load()
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST-000002.json", cfg.Storage.Manifest)

	f = configFlags{path: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err = f.load()
	require.Error(t, err)
}

func TestServe(t *testing.T) {
	bundle := publishedBundle(t)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan net.Addr, 1)
	done := make(chan error, 1)
	opts := &serveOptions{
		config:  configFlags{dir: bundle},
		listen:  "127.0.0.1:0",
		maxBody: server.DefaultMaxBodyBytes,
	}
	go func() { done <- runServe(ctx, opts, ready) }()

	var addr net.Addr
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not start")
	}

	base := "http://" + addr.String()
	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(base+"/api/predict", "application/json", strings.NewReader(`{"Age": 25, "Income": 30000}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"cluster_name":"Young Savers"`)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `op="predict"`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

func TestServe_NotReady(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan net.Addr, 1)
	done := make(chan error, 1)
	opts := &serveOptions{config: configFlags{dir: t.TempDir()}, listen: "127.0.0.1:0"}
	go func() { done <- runServe(ctx, opts, ready) }()

	addr := <-ready
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
}

func TestServe_ListenError(t *testing.T) {
	opts := &serveOptions{config: configFlags{dir: t.TempDir()}, listen: "256.0.0.1:bad"}
	err := runServe(context.Background(), opts, nil)
	require.ErrorContains(t, err, "listen")
}
