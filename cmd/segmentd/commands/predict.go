package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segmento/internal/server"
)

type predictOptions struct {
	config  configFlags
	input   string
	explain bool
}

// NewPredictCmd creates the predict command
func NewPredictCmd() *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify customer records",
		Long: `Read a JSON record, or an array of records, and print the assigned segments.

Examples:
  echo '{"Age": 42, "Income Level": 55000}' | segmentd predict --dir ./model
  segmentd predict --dir ./model --input customers.json
  segmentd predict --dir ./model --explain --input customer.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd, opts)
		},
	}
	opts.config.bind(cmd)
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "JSON input file, - for stdin")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Include standardized values and centroid distances")
	return cmd
}

func runPredict(cmd *cobra.Command, opts *predictOptions) error {
	cfg, err := opts.config.load()
	if err != nil {
		return err
	}
	data, err := readInput(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}
	recs, batch, err := server.DecodeRecords(data)
	if err != nil {
		return err
	}
	if batch && opts.explain {
		return errors.New("--explain accepts a single record")
	}

	ctx := cmd.Context()
	eng, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	out := cmd.OutOrStdout()
	switch {
	case batch:
		res := eng.PredictBatch(ctx, recs)
		if err := writeJSON(out, server.NewBatchItems(res)); err != nil {
			return err
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d of %d records failed", res.Failed, len(recs))
		}
		return nil
	case opts.explain:
		ex, err := eng.Explain(ctx, recs[0])
		if err != nil {
			return err
		}
		return writeJSON(out, ex)
	default:
		p, err := eng.Predict(ctx, recs[0])
		if err != nil {
			return err
		}
		return writeJSON(out, server.NewPredictResponse(p))
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
