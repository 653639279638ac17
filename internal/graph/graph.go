// Package graph builds the directed procedure/table lineage graph and
// exports it for Graphviz rendering.
package graph

import (
	"fmt"
	"sort"

	"github.com/proclens/proclens/internal/lineage"
)

// NodeType classifies a graph node. It is fixed at node creation and must
// not conflict across re-adds.
type NodeType string

const (
	NodeProcedure NodeType = "procedure"
	NodeTable     NodeType = "table"
)

// Relation tags an edge with the relationship it encodes. It drives the
// rendering color/label only, not graph semantics.
type Relation string

const (
	RelationReads  Relation = "reads"
	RelationWrites Relation = "writes"
)

// Node is a procedure or table in the lineage graph, identified by name.
type Node struct {
	Name string
	Type NodeType
}

// Edge is a directed edge with rendering hints fixed at creation.
// Writes run procedure->table; reads run table->procedure, modeling
// "table feeds into procedure".
type Edge struct {
	From     string
	To       string
	Relation Relation
	Color    string
	Label    string
}

type edgeKey struct {
	from string
	to   string
}

// Graph is a directed graph of procedure and table nodes. It is rebuilt
// from scratch on every Build call and never updated incrementally.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[edgeKey]*Edge
	edgeOrder []edgeKey
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[edgeKey]*Edge),
	}
}

// TypeConflictError reports a name used as both a procedure and a table.
// That is an upstream naming assumption violation, not something to
// silently merge.
type TypeConflictError struct {
	Name      string
	Existing  NodeType
	Requested NodeType
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("node %q already exists as %s, cannot re-add as %s", e.Name, e.Existing, e.Requested)
}

// AddNode adds a node to the graph. Re-adding a node with the same type is
// a no-op; re-adding with a conflicting type fails.
func (g *Graph) AddNode(name string, typ NodeType) error {
	if existing, ok := g.nodes[name]; ok {
		if existing.Type != typ {
			return &TypeConflictError{Name: name, Existing: existing.Type, Requested: typ}
		}
		return nil
	}
	g.nodes[name] = &Node{Name: name, Type: typ}
	g.nodeOrder = append(g.nodeOrder, name)
	return nil
}

// AddEdge adds a directed edge with the rendering hints derived from the
// relation. Both endpoints must exist. Re-adding an existing (from, to)
// pair is a no-op.
func (g *Graph) AddEdge(from, to string, relation Relation) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("edge source node %q does not exist", from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("edge target node %q does not exist", to)
	}

	key := edgeKey{from: from, to: to}
	if _, ok := g.edges[key]; ok {
		return nil
	}

	edge := &Edge{From: from, To: to, Relation: relation}
	switch relation {
	case RelationWrites:
		edge.Color = "red"
		edge.Label = "writes"
	case RelationReads:
		edge.Color = "blue"
		edge.Label = "read by"
	default:
		return fmt.Errorf("unknown relation %q", relation)
	}

	g.edges[key] = edge
	g.edgeOrder = append(g.edgeOrder, key)
	return nil
}

// GetNode returns a node by name.
func (g *Graph) GetNode(name string) (*Node, bool) {
	node, ok := g.nodes[name]
	return node, ok
}

// GetEdge returns the edge between two nodes, if any.
func (g *Graph) GetEdge(from, to string) (*Edge, bool) {
	edge, ok := g.edges[edgeKey{from: from, to: to}]
	return edge, ok
}

// Nodes returns all nodes sorted by name, so comparisons are independent
// of insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}

// Edges returns all edges sorted by (from, to).
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Build constructs the lineage graph from an aggregated report: one
// procedure node per routine, one table node per referenced table, a writes
// edge procedure->table and a reads edge table->procedure per relationship.
// A name used as both a procedure and a table aborts the build with a
// *TypeConflictError; a corrupt graph is worse than no graph.
func Build(report *lineage.Report) (*Graph, error) {
	g := NewGraph()

	for _, name := range report.RoutineNames() {
		l := report.Procedures[name]

		if err := g.AddNode(name, NodeProcedure); err != nil {
			return nil, err
		}
		for _, table := range l.Writes {
			if err := g.AddNode(table, NodeTable); err != nil {
				return nil, err
			}
			if err := g.AddEdge(name, table, RelationWrites); err != nil {
				return nil, err
			}
		}
		for _, table := range l.Reads {
			if err := g.AddNode(table, NodeTable); err != nil {
				return nil, err
			}
			if err := g.AddEdge(table, name, RelationReads); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}
