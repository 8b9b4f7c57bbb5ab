package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segmento"
	"github.com/hupe1980/segmento/analytics"
)

type inspectOptions struct {
	config configFlags
	json   bool
	stats  bool
}

// inspectReport is the --json output of inspect.
type inspectReport struct {
	Snapshot     segmento.Snapshot        `json:"snapshot"`
	Summary      analytics.Summary        `json:"summary"`
	Distribution []analytics.SegmentCount `json:"distribution"`
	Stats        []analytics.SegmentStats `json:"stats,omitempty"`
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the loaded bundle and its segments",
		Long: `Load the bundle, run every consistency check and print what it contains.

Examples:
  segmentd inspect --dir ./model
  segmentd inspect --config /etc/segmentd.yaml --stats
  segmentd inspect --dir ./model --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	opts.config.bind(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print JSON instead of text")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Include per-segment feature statistics")
	return cmd
}

func runInspect(cmd *cobra.Command, opts *inspectOptions) error {
	cfg, err := opts.config.load()
	if err != nil {
		return err
	}
	eng, err := openEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	rep := inspectReport{
		Snapshot:     eng.DebugSnapshot(),
		Summary:      eng.Summary(),
		Distribution: eng.SegmentDistribution(),
	}
	if opts.stats {
		if rep.Stats, err = eng.AllSegmentStats(nil, 0); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeJSON(out, rep)
	}
	return printInspect(out, rep, eng.Bundle().Warnings)
}

func printInspect(out io.Writer, rep inspectReport, warnings []string) error {
	snap := rep.Snapshot
	fmt.Fprintf(out, "Manifest:    %s (version %d)\n", snap.Manifest, snap.Version)
	fmt.Fprintf(out, "Features:    %s\n", strings.Join(snap.Schema, ", "))
	fmt.Fprintf(out, "Components:  %d\n", snap.Components)
	fmt.Fprintf(out, "Dataset:     %d rows, %d columns\n", snap.DatasetShape[0], snap.DatasetShape[1])
	fmt.Fprintf(out, "Segments:    %d (largest %q, smallest %q)\n",
		rep.Summary.TotalSegments, rep.Summary.Largest, rep.Summary.Smallest)
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLUSTER\tNAME\tRECORDS\tSHARE")
	for _, sc := range rep.Distribution {
		share := 0.0
		if rep.Summary.TotalRecords > 0 {
			share = analytics.Round(float64(sc.Count)*100/float64(rep.Summary.TotalRecords), analytics.Precision)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f%%\n", sc.Cluster, sc.Name, sc.Count, share)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.Stats) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEGMENT\tFEATURE\tMEAN\tSTD\tCOUNT")
		for _, st := range rep.Stats {
			for _, f := range st.Features {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%d\n", st.Name, f.Feature, f.Mean, f.Std, f.Count)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}
