package commands

import (
	"fmt"

	"github.com/proclens/proclens/internal/extract"
	"github.com/spf13/cobra"
)

// ExtractOptions holds options for the extract command.
type ExtractOptions struct {
	Refresh bool
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Dump schema and routine DDL from the source database",
		Long: `Connect to the configured source database and dump table DDL and stored
routine definitions as SQL files, along with a dump_meta.json manifest.

The dump is read-only. With --refresh, every discovered routine is called
after the dump, which executes user code on the source database.`,
		Example: `  # Dump schema and routines into the configured dump directory
  proclens extract

  # Dump and then call every routine to refresh derived tables
  proclens extract --refresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "Call every routine after dumping (executes user code)")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *ExtractOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	ad, cleanup, err := openAdapter(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	cc.Logger.Info("starting extraction", "dialect", ad.DialectName(), "dir", cc.Cfg.DumpDir)

	ex := extract.New(ad, cc.Logger)
	meta, err := ex.Dump(ctx, cc.Cfg.DumpDir)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if opts.Refresh {
		cc.Logger.Info("refreshing routines")
		if err := ex.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
	}

	if cc.Renderer.IsJSON() {
		return cc.Renderer.JSON(meta)
	}
	cc.Renderer.Success(fmt.Sprintf("Dumped %d tables and %d routines to %s",
		len(meta.Tables), len(meta.Routines), cc.Cfg.DumpDir))
	return nil
}
