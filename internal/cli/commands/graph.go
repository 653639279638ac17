package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/proclens/proclens/internal/graph"
	"github.com/spf13/cobra"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	Format string
	Out    string
	Input  string
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build and export the lineage graph",
		Long: `Rebuild the lineage graph from the persisted lineage JSON and export it.

DOT export needs no external tooling; png and svg are rendered through the
Graphviz dot binary and report a missing installation as an environment
error.`,
		Example: `  # Render the graph as PNG into the configured graph directory
  proclens graph

  # Export Graphviz source instead
  proclens graph --format dot

  # Render SVG to an explicit location from an explicit lineage file
  proclens graph --format svg --out /tmp/lineage.svg --input lineage.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "Output format: dot|png|svg (default: configured graph_format)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output path (default: <graph-dir>/lineage_graph.<format>)")
	cmd.Flags().StringVar(&opts.Input, "input", "", "Lineage JSON to load (default: <parsed-dir>/<lineage-file>)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"dot", "png", "svg"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runGraph(cmd *cobra.Command, opts *GraphOptions) error {
	cc := NewCommandContext(cmd)

	input := opts.Input
	if input == "" {
		input = cc.Cfg.LineagePath()
	}
	report, err := loadReport(input)
	if err != nil {
		return err
	}

	g, err := graph.Build(report)
	if err != nil {
		return fmt.Errorf("failed to build lineage graph: %w", err)
	}

	if cc.Cfg.Verbose {
		for _, node := range g.Nodes() {
			cc.Logger.Debug("node", "name", node.Name, "type", string(node.Type))
		}
		for _, edge := range g.Edges() {
			cc.Logger.Debug("edge", "from", edge.From, "to", edge.To, "relation", string(edge.Relation))
		}
	}

	format := opts.Format
	if format == "" {
		format = cc.Cfg.GraphFormat
	}
	out := opts.Out
	if out == "" {
		out = cc.Cfg.GraphPath(format)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0750); err != nil {
		return fmt.Errorf("failed to create graph directory: %w", err)
	}

	if format == "dot" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer func() { _ = f.Close() }()
		if err := g.WriteDOT(f); err != nil {
			return err
		}
	} else {
		renderer := graph.NewRenderer(format)
		if err := renderer.Render(cmd.Context(), g, out); err != nil {
			return err
		}
	}

	if cc.Renderer.IsJSON() {
		return cc.Renderer.JSON(map[string]any{
			"path":   out,
			"format": format,
			"nodes":  g.NodeCount(),
			"edges":  g.EdgeCount(),
		})
	}
	cc.Renderer.Success(fmt.Sprintf("Graph with %d nodes and %d edges written to %s",
		g.NodeCount(), g.EdgeCount(), out))
	return nil
}
