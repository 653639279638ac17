package commands

import (
	"github.com/spf13/cobra"
)

// AllOptions holds options for the all command.
type AllOptions struct {
	Refresh bool
}

// NewAllCommand creates the all command, which runs the full pipeline.
func NewAllCommand() *cobra.Command {
	opts := &AllOptions{}

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run the full pipeline: extract, parse, materialize",
		Long: `Dump schema and routines from the source database, infer table lineage
from the dump, and apply the configured views. Each stage runs only if the
previous one succeeded.`,
		Example: `  # Full pipeline against the configured source
  proclens all

  # Full pipeline, calling every routine after the dump
  proclens all --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAll(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "Call every routine after dumping (executes user code)")

	return cmd
}

func runAll(cmd *cobra.Command, opts *AllOptions) error {
	if err := runExtract(cmd, &ExtractOptions{Refresh: opts.Refresh}); err != nil {
		return err
	}
	if err := runParse(cmd, nil); err != nil {
		return err
	}
	return runMaterialize(cmd, nil)
}
