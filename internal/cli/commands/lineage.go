package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lineage <routine>",
		Short: "Show the tables a routine reads and writes",
		Long: `Display the read/write table lineage of one analyzed routine from the
lineage state database.`,
		Example: `  # Show lineage for a stored procedure
  proclens lineage sp_refresh_bookings

  # As JSON
  proclens lineage sp_refresh_bookings --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineageQuery(cmd, args[0])
		},
	}
}

func runLineageQuery(cmd *cobra.Command, name string) error {
	cc := NewCommandContext(cmd)

	store, cleanup, err := openStore(cc.Cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	l, err := store.RoutineLineage(name)
	if err != nil {
		return err
	}

	if cc.Renderer.IsJSON() {
		return cc.Renderer.JSON(map[string]any{"routine": name, "lineage": l})
	}

	cc.Renderer.Header("Lineage for " + name)
	cc.Renderer.KeyValue("Reads", formatTableList(l.Reads))
	cc.Renderer.KeyValue("Writes", formatTableList(l.Writes))
	return nil
}

func formatTableList(tables []string) string {
	if len(tables) == 0 {
		return "(none)"
	}
	return strings.Join(tables, ", ")
}
