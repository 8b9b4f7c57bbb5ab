package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/segmento/cmd/segmentd/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "segmentd",
		Short: "Customer segmentation service",
		Long: `segmentd serves a fitted customer segmentation bundle.

Commands:
  segmentd serve     # HTTP API, dashboards and Prometheus metrics
  segmentd predict   # classify records from a file or stdin
  segmentd inspect   # describe the loaded bundle
  segmentd publish   # upload an exported artifact directory as a new bundle`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewServeCmd())
	rootCmd.AddCommand(commands.NewPredictCmd())
	rootCmd.AddCommand(commands.NewInspectCmd())
	rootCmd.AddCommand(commands.NewPublishCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
