package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segmento"
	"github.com/hupe1980/segmento/blobstore"
)

func TestParse(t *testing.T) {
	t.Setenv("SEGMENTO_TEST_SECRET", "s3cr3t")

	cfg, err := Parse([]byte(`
listen: ":9090"
log:
  level: debug
  format: json
storage:
  backend: minio
  endpoint: localhost:9000
  bucket: segments
  prefix: models/customers
  access_key: minioadmin
  secret_key: ${SEGMENTO_TEST_SECRET}
cache:
  analytics_bytes: 4096
  block_bytes: 65536
limits:
  workers: 2
  io_bytes_per_sec: 1048576
analytics:
  common_features: [Age]
  stats_feature_limit: 3
batch_concurrency: 8
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, FormatJSON, cfg.Log.Format)
	assert.Equal(t, BackendMinIO, cfg.Storage.Backend)
	assert.Equal(t, "s3cr3t", cfg.Storage.SecretKey)
	assert.Equal(t, int64(4096), cfg.Cache.AnalyticsBytes)
	assert.Equal(t, int64(2), cfg.Limits.Workers)
	assert.Equal(t, []string{"Age"}, cfg.Analytics.CommonFeatures)
	assert.Equal(t, 3, cfg.Analytics.StatsFeatureLimit)
	assert.Equal(t, 8, cfg.BatchConcurrency)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Nil(t, cfg.Analytics.CommonFeatures)

	cfg, err = Parse([]byte("analytics:\n  common_features: []\n"))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Analytics.CommonFeatures)
	assert.Empty(t, cfg.Analytics.CommonFeatures)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"EmptyListen", `listen: ""`},
		{"UnknownLevel", "log:\n  level: loud"},
		{"UnknownFormat", "log:\n  format: xml"},
		{"UnknownBackend", "storage:\n  backend: ftp"},
		{"LocalWithoutPath", "storage:\n  backend: local\n  path: \"\""},
		{"S3WithoutBucket", "storage:\n  backend: s3"},
		{"MinIOWithoutEndpoint", "storage:\n  backend: minio\n  bucket: b"},
		{"CommitTableOnMinIO", "storage:\n  backend: minio\n  bucket: b\n  endpoint: e\n  commit_table: t"},
		{"NegativeCache", "cache:\n  block_bytes: -1"},
		{"NegativeLimit", "limits:\n  workers: -1"},
		{"NegativeStatsLimit", "analytics:\n  stats_feature_limit: -2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Parse([]byte("listen: [unterminated"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segmentd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: local\n  path: /srv/model\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/model", cfg.Storage.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLogConfig_Logger(t *testing.T) {
	for _, format := range []string{FormatText, FormatJSON, ""} {
		l, err := LogConfig{Level: "warn", Format: format}.Logger()
		require.NoError(t, err)
		assert.True(t, l.Enabled(context.Background(), slog.LevelWarn))
		assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))
	}

	_, err := LogConfig{Level: "nope"}.Logger()
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLimitsConfig_Controller(t *testing.T) {
	rc := LimitsConfig{MemoryBytes: 1 << 20, Workers: 3, IOBytesPerSec: 1 << 10}.Controller()
	assert.Equal(t, 3, rc.Workers())
	assert.Equal(t, int64(1<<20), rc.Config().MemoryLimitBytes)
	assert.Equal(t, int64(1<<10), rc.Config().IOLimitBytesPerSec)
}

func TestConfig_Options(t *testing.T) {
	cfg := Default()
	base := len(cfg.Options(segmento.NoopLogger(), nil))

	cfg.Storage.Manifest = "MANIFEST-000001.json"
	cfg.Analytics.CommonFeatures = []string{}
	cfg.Analytics.StatsFeatureLimit = 2
	assert.Len(t, cfg.Options(segmento.NoopLogger(), nil), base+3)
}

func TestStorageConfig_OpenStore(t *testing.T) {
	dir := t.TempDir()

	store, err := StorageConfig{Backend: BackendLocal, Path: dir}.OpenStore(context.Background())
	require.NoError(t, err)
	local, ok := store.(*blobstore.LocalStore)
	require.True(t, ok)
	assert.Equal(t, dir, local.Root())

	store, err = StorageConfig{Backend: BackendMinIO, Endpoint: "localhost:9000", Bucket: "b"}.OpenStore(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = StorageConfig{Backend: "ftp"}.OpenStore(context.Background())
	require.ErrorIs(t, err, ErrInvalid)
}

func TestStorageConfig_Source(t *testing.T) {
	dir := t.TempDir()
	src, err := StorageConfig{Backend: BackendLocal, Path: dir}.Source(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local:"+dir, src.String())

	_, err = StorageConfig{Backend: BackendS3}.Source(context.Background())
	require.ErrorIs(t, err, ErrInvalid)
}
