package graph

import (
	"io"

	"github.com/emicklei/dot"
)

// DOT renders the graph as Graphviz source: left-to-right layout with the
// procedure nodes and table nodes partitioned into two labeled clusters and
// edges drawn with their relation color/label. Deterministic for a fixed
// graph; every node and edge appears exactly once.
func (g *Graph) DOT() string {
	dg := dot.NewGraph(dot.Directed)
	dg.Attr("rankdir", "LR")
	dg.Attr("bgcolor", "white")

	procs := dg.Subgraph("Stored Procedures", dot.ClusterOption{})
	procs.Attr("style", "filled")
	procs.Attr("color", "lightgray")

	tables := dg.Subgraph("Tables", dot.ClusterOption{})
	tables.Attr("style", "filled")
	tables.Attr("color", "lightgray")

	dotNodes := make(map[string]dot.Node, g.NodeCount())
	for _, node := range g.Nodes() {
		var dn dot.Node
		switch node.Type {
		case NodeProcedure:
			dn = procs.Node(node.Name).
				Attr("shape", "box").
				Attr("style", "filled,rounded").
				Attr("fillcolor", "lightblue").
				Attr("color", "blue")
		default:
			dn = tables.Node(node.Name).
				Attr("shape", "ellipse").
				Attr("style", "filled").
				Attr("fillcolor", "orange").
				Attr("color", "darkorange")
		}
		dn.Attr("fontname", "Arial")
		dn.Attr("fontsize", "10")
		dotNodes[node.Name] = dn
	}

	for _, edge := range g.Edges() {
		dg.Edge(dotNodes[edge.From], dotNodes[edge.To]).
			Attr("color", edge.Color).
			Attr("label", edge.Label).
			Attr("fontname", "Arial").
			Attr("fontsize", "8")
	}

	return dg.String()
}

// WriteDOT writes the Graphviz source to w.
func (g *Graph) WriteDOT(w io.Writer) error {
	_, err := io.WriteString(w, g.DOT())
	return err
}
