package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/proclens/proclens/internal/extract"
	"github.com/proclens/proclens/internal/graph"
	"github.com/proclens/proclens/internal/lineage"
	"github.com/spf13/cobra"
)

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Infer table lineage from the dumped routine files",
		Long: `Load the dumped routine SQL files, infer which tables each routine reads
and writes, and aggregate per-table usage.

The result is persisted as JSON and into the lineage state database, and the
lineage graph is rendered with Graphviz. A missing Graphviz installation is
reported as a warning; the lineage JSON is persisted regardless.`,
		Example: `  # Analyze the dump directory with the configured file pattern
  proclens parse

  # Analyze a different dump location
  proclens parse --dump-dir exports/sql --pattern "proc_*.sql"`,
		Args: cobra.NoArgs,
		RunE: runParse,
	}
}

func runParse(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)

	routines, err := extract.LoadDumps(cc.Cfg.DumpDir, cc.Cfg.FilePattern)
	if err != nil {
		return err
	}
	if len(routines) == 0 {
		cc.Renderer.Warning(fmt.Sprintf("no routine dumps matching %q in %s (run 'proclens extract' first?)",
			cc.Cfg.FilePattern, cc.Cfg.DumpDir))
	}
	for _, r := range routines {
		cc.Logger.Debug("parsing routine", "routine", r.Name)
	}

	report := lineage.Analyze(routines)

	if err := writeReport(cc.Cfg.LineagePath(), report); err != nil {
		return err
	}
	cc.Logger.Info("lineage persisted", "path", cc.Cfg.LineagePath(),
		"routines", len(report.Procedures), "tables", len(report.Tables))

	store, cleanup, err := openStore(cc.Cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runID, err := store.SaveReport(report)
	if err != nil {
		return fmt.Errorf("failed to save lineage state: %w", err)
	}
	cc.Logger.Debug("lineage state saved", "run", runID)

	g, err := graph.Build(report)
	if err != nil {
		return fmt.Errorf("failed to build lineage graph: %w", err)
	}

	// Rendering is best-effort: a missing Graphviz backend must not fail the
	// parse, since the lineage JSON and state are already persisted.
	graphPath := cc.Cfg.GraphPath(cc.Cfg.GraphFormat)
	if err := os.MkdirAll(filepath.Dir(graphPath), 0750); err != nil {
		return fmt.Errorf("failed to create graph directory: %w", err)
	}
	renderer := graph.NewRenderer(cc.Cfg.GraphFormat)
	if err := renderer.Render(cmd.Context(), g, graphPath); err != nil {
		cc.Renderer.Warning(fmt.Sprintf("graph not rendered: %v", err))
	} else {
		cc.Logger.Info("graph rendered", "path", graphPath)
	}

	if cc.Renderer.IsJSON() {
		return cc.Renderer.JSON(report)
	}
	cc.Renderer.Success(fmt.Sprintf("Analyzed %d routines across %d tables; lineage written to %s",
		len(report.Procedures), len(report.Tables), cc.Cfg.LineagePath()))
	return nil
}

// writeReport persists the lineage report as indented JSON.
func writeReport(path string, report *lineage.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create parsed directory: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lineage: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write lineage file: %w", err)
	}
	return nil
}
