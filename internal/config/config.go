// Package config holds the segmentd daemon configuration.
//
// The configuration is a YAML document. Environment variables referenced as
// ${NAME} are expanded before decoding so credentials can stay out of the
// file:
//
//	listen: ":8080"
//	log:
//	  level: info
//	  format: json
//	storage:
//	  backend: s3
//	  bucket: segments
//	  prefix: models/customers
//	  region: eu-central-1
//	  commit_table: segmento-commits
//	cache:
//	  analytics_bytes: 1048576
//	  block_bytes: 8388608
//	limits:
//	  io_bytes_per_sec: 10485760
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/segmento"
	"github.com/hupe1980/segmento/resource"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultListen is the address segmentd serves on when none is configured.
const DefaultListen = ":8080"

// ErrInvalid matches every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config is the root of the daemon configuration.
type Config struct {
	Listen           string          `yaml:"listen"`
	Log              LogConfig       `yaml:"log"`
	Storage          StorageConfig   `yaml:"storage"`
	Cache            CacheConfig     `yaml:"cache"`
	Limits           LimitsConfig    `yaml:"limits"`
	Analytics        AnalyticsConfig `yaml:"analytics"`
	BatchConcurrency int             `yaml:"batch_concurrency"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig locates the model bundle.
type StorageConfig struct {
	Backend string `yaml:"backend"`

	// Path is the bundle directory of the local backend.
	Path string `yaml:"path"`

	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`

	// CommitTable resolves CURRENT through DynamoDB (s3 backend only).
	CommitTable string `yaml:"commit_table"`

	// MinIO credentials.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`

	// Manifest pins a manifest instead of following CURRENT.
	Manifest string `yaml:"manifest"`
}

// CacheConfig sizes the in-memory caches. Zero disables a cache.
type CacheConfig struct {
	AnalyticsBytes int64 `yaml:"analytics_bytes"`
	BlockBytes     int64 `yaml:"block_bytes"`
}

// LimitsConfig feeds resource.Controller.
type LimitsConfig struct {
	MemoryBytes   int64 `yaml:"memory_bytes"`
	Workers       int64 `yaml:"workers"`
	IOBytesPerSec int64 `yaml:"io_bytes_per_sec"`
}

// AnalyticsConfig tunes segment analytics.
type AnalyticsConfig struct {
	// CommonFeatures overrides the features averaged per segment.
	// Absent keeps the defaults, an empty list disables averages.
	CommonFeatures    []string `yaml:"common_features"`
	StatsFeatureLimit int      `yaml:"stats_feature_limit"`
}

// Default returns a configuration serving ./model from local disk.
func Default() Config {
	return Config{
		Listen: DefaultListen,
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
		Storage: StorageConfig{
			Backend: BackendLocal,
			Path:    "./model",
		},
	}
}

// Load reads path, expands environment variables and decodes it over
// Default. The result is validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over Default and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.Listen == "" {
		return invalidf("listen must not be empty")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", FormatText, FormatJSON:
	default:
		return invalidf("unknown log format %q", c.Log.Format)
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Cache.AnalyticsBytes < 0 || c.Cache.BlockBytes < 0 {
		return invalidf("cache sizes must not be negative")
	}
	if c.Limits.MemoryBytes < 0 || c.Limits.Workers < 0 || c.Limits.IOBytesPerSec < 0 {
		return invalidf("limits must not be negative")
	}
	if c.Analytics.StatsFeatureLimit < 0 {
		return invalidf("stats_feature_limit must not be negative")
	}
	return nil
}

// Validate checks the backend specific fields.
func (s StorageConfig) Validate() error {
	switch s.Backend {
	case BackendLocal:
		if s.Path == "" {
			return invalidf("storage.path is required for the local backend")
		}
	case BackendS3:
		if s.Bucket == "" {
			return invalidf("storage.bucket is required for the s3 backend")
		}
	case BackendMinIO:
		if s.Bucket == "" || s.Endpoint == "" {
			return invalidf("storage.bucket and storage.endpoint are required for the minio backend")
		}
	default:
		return invalidf("unknown storage backend %q", s.Backend)
	}
	if s.CommitTable != "" && s.Backend != BackendS3 {
		return invalidf("storage.commit_table is only supported by the s3 backend")
	}
	return nil
}

// SlogLevel parses Level. An empty level means info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, invalidf("unknown log level %q", l.Level)
	}
	return level, nil
}

// Logger builds the configured segmento logger.
func (l LogConfig) Logger() (*segmento.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(l.Format, FormatJSON) {
		return segmento.NewJSONLogger(level), nil
	}
	return segmento.NewTextLogger(level), nil
}

// Controller builds the resource controller for load IO and batch workers.
func (l LimitsConfig) Controller() *resource.Controller {
	return resource.NewController(resource.Config{
		MemoryLimitBytes:   l.MemoryBytes,
		MaxWorkers:         l.Workers,
		IOLimitBytesPerSec: l.IOBytesPerSec,
	})
}

// Options translates the configuration into engine options. The logger and
// metrics collector are passed in because the caller owns them.
func (c Config) Options(logger *segmento.Logger, mc segmento.MetricsCollector) []segmento.Option {
	opts := []segmento.Option{
		segmento.WithLogger(logger),
		segmento.WithMetricsCollector(mc),
		segmento.WithAnalyticsCache(c.Cache.AnalyticsBytes),
		segmento.WithBlockCache(c.Cache.BlockBytes),
		segmento.WithResourceController(c.Limits.Controller()),
		segmento.WithBatchConcurrency(c.BatchConcurrency),
	}
	if c.Storage.Manifest != "" {
		opts = append(opts, segmento.WithManifestName(c.Storage.Manifest))
	}
	if c.Analytics.CommonFeatures != nil {
		opts = append(opts, segmento.WithCommonFeatures(c.Analytics.CommonFeatures...))
	}
	if c.Analytics.StatsFeatureLimit > 0 {
		opts = append(opts, segmento.WithStatsFeatureLimit(c.Analytics.StatsFeatureLimit))
	}
	return opts
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
