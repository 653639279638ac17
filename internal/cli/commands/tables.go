package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/proclens/proclens/internal/cli/output"
	"github.com/proclens/proclens/internal/state"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Show per-table usage across all analyzed routines",
		Long: `Display, for every table referenced by at least one routine, which
routines read it and which write it.`,
		Example: `  # Per-table usage summary
  proclens tables

  # As a markdown table or JSON
  proclens tables --output markdown
  proclens tables --output json`,
		Args: cobra.NoArgs,
		RunE: runTables,
	}
}

func runTables(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)

	store, cleanup, err := openStore(cc.Cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := store.TableSummary()
	if err != nil {
		return err
	}

	if cc.Renderer.IsJSON() {
		byName := make(map[string]map[string][]string, len(summary))
		for _, row := range summary {
			byName[row.Name] = map[string][]string{
				"read_by":    row.ReadBy,
				"written_by": row.WrittenBy,
			}
		}
		return cc.Renderer.JSON(byName)
	}

	if len(summary) == 0 {
		cc.Renderer.Warning("no lineage recorded yet (run 'proclens parse' first)")
		return nil
	}

	renderTableSummary(cc.Renderer, summary)
	fmt.Fprintf(cc.Renderer.Out(), "(%d tables)\n", len(summary))
	return nil
}

func renderTableSummary(r *output.Renderer, summary []state.TableSummaryRow) {
	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Read By", "Written By"})

	for _, row := range summary {
		t.AppendRow(table.Row{
			row.Name,
			formatRoutineList(row.ReadBy),
			formatRoutineList(row.WrittenBy),
		})
	}

	if r.Mode() == output.ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}

func formatRoutineList(routines []string) string {
	if len(routines) == 0 {
		return "-"
	}
	return strings.Join(routines, ", ")
}
