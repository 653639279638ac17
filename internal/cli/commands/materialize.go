package commands

import (
	"fmt"

	"github.com/proclens/proclens/internal/materialize"
	"github.com/spf13/cobra"
)

// NewMaterializeCommand creates the materialize command.
func NewMaterializeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "materialize",
		Short: "Create or replace the configured views on the source database",
		Long: `Apply every view defined under the views key in proclens.yaml to the
source database with CREATE OR REPLACE VIEW. Views are applied in name order
and the first failure aborts the run.`,
		Example: `  # Apply all configured views
  proclens materialize`,
		Args: cobra.NoArgs,
		RunE: runMaterialize,
	}
}

func runMaterialize(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	defs := materialize.FromConfig(cc.Cfg.Views)
	if len(defs) == 0 {
		cc.Renderer.Warning("no views configured (add a views section to proclens.yaml)")
		return nil
	}

	ad, cleanup, err := openAdapter(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	m := materialize.New(ad, cc.Logger)
	if err := m.Apply(ctx, defs); err != nil {
		return fmt.Errorf("materialization failed: %w", err)
	}

	if cc.Renderer.IsJSON() {
		names := make([]string, 0, len(defs))
		for _, d := range defs {
			names = append(names, d.Name)
		}
		return cc.Renderer.JSON(map[string]any{"views": names})
	}
	cc.Renderer.Success(fmt.Sprintf("Applied %d views", len(defs)))
	return nil
}
