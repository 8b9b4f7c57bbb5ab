// Package commands implements the segmentd subcommands.
package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segmento"
	"github.com/hupe1980/segmento/internal/config"
)

// configFlags are shared by every subcommand.
type configFlags struct {
	path     string
	dir      string
	manifest string
}

func (f *configFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "Path to the segmentd YAML config")
	cmd.Flags().StringVar(&f.dir, "dir", "", "Use a local bundle directory instead of the configured storage")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "Pin a manifest (e.g. MANIFEST-000003.json) instead of CURRENT")
}

// load reads the config file, if any, and applies flag overrides.
func (f *configFlags) load() (config.Config, error) {
	cfg := config.Default()
	if f.path != "" {
		var err error
		if cfg, err = config.Load(f.path); err != nil {
			return config.Config{}, err
		}
	}
	if f.dir != "" {
		cfg.Storage = config.StorageConfig{
			Backend:  config.BackendLocal,
			Path:     f.dir,
			Manifest: cfg.Storage.Manifest,
		}
	}
	if f.manifest != "" {
		cfg.Storage.Manifest = f.manifest
	}
	return cfg, cfg.Validate()
}

func openEngine(ctx context.Context, cfg config.Config) (*segmento.Engine, error) {
	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, err
	}
	src, err := cfg.Storage.Source(ctx)
	if err != nil {
		return nil, err
	}
	return segmento.Open(ctx, src, cfg.Options(logger, nil)...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
