package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/genealogy"
)

// =============================================================================
// Graph - Unified Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for unified graphs and result
// subgraphs. Used for classification files, API responses, and caching.
//
// The format is human-readable and designed for round-trip fidelity:
// decode → query → encode → decode produces identical graphs.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// =============================================================================
// Node - Code
// =============================================================================

// Node is a serialized code.
type Node struct {
	ID              string         `json:"id" bson:"id"`
	Label           string         `json:"label,omitempty" bson:"label,omitempty"` // Display label (defaults to ID)
	Classifications []string       `json:"classifications,omitempty" bson:"classifications,omitempty"`
	Meta            map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge - Parent/Child Relation
// =============================================================================

// Edge is a serialized relation from parent (From) to child (To).
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// =============================================================================
// DAG ↔ Graph Conversion
// =============================================================================

// FromDAG converts a DAG to its serialization format.
// Nodes are sorted by ID for deterministic output; edges keep graph order.
func FromDAG(g *dag.DAG) Graph {
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b *dag.Node) int { return strings.Compare(a.ID, b.ID) })

	out := Graph{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for i, n := range nodes {
		out.Nodes[i] = nodeFromDAG(n)
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	return out
}

// ToDAG converts a Graph to a DAG.
// Returns an error for duplicate or empty node IDs, edges that reference
// unknown nodes and self loops. Acyclicity is not checked.
func ToDAG(gj Graph) (*dag.DAG, error) {
	d := dag.New(nil)

	for _, nj := range gj.Nodes {
		meta := dag.Metadata(maps.Clone(nj.Meta))
		if meta == nil {
			meta = dag.Metadata{}
		}
		if nj.Label != "" {
			meta[dag.MetaLabel] = nj.Label
		}
		if len(nj.Classifications) > 0 {
			meta[dag.MetaClassifications] = slices.Clone(nj.Classifications)
		}
		if err := d.AddNode(dag.Node{ID: nj.ID, Meta: meta}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}

	for _, ej := range gj.Edges {
		if err := d.AddEdge(dag.Edge{From: ej.From, To: ej.To}); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err)
		}
	}

	return d, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Response - Query Result Serialization
// =============================================================================

// Response is the serialized form of a genealogy query result in one
// output shape. Exactly one of Codes, Edges and Graph is populated,
// matching Shape; Absent distinguishes "nothing to report" from an empty
// answer.
type Response struct {
	Op        string     `json:"op" bson:"op"`
	Shape     string     `json:"shape" bson:"shape"`
	Targets   []string   `json:"targets,omitempty" bson:"targets,omitempty"`
	Codes     []string   `json:"codes,omitempty" bson:"codes,omitempty"`
	Edges     []Edge     `json:"edges,omitempty" bson:"edges,omitempty"`
	Graph     *Graph     `json:"graph,omitempty" bson:"graph,omitempty"`
	Paths     [][]string `json:"paths,omitempty" bson:"paths,omitempty"`
	Truncated bool       `json:"truncated,omitempty" bson:"truncated,omitempty"`
	Unknown   []string   `json:"unknown,omitempty" bson:"unknown,omitempty"`
	Absent    bool       `json:"absent" bson:"absent"`
}

// FromResult renders res in the given shape.
func FromResult(res genealogy.Result, shape genealogy.Shape) Response {
	out := Response{
		Op:        string(res.Op),
		Shape:     string(shape),
		Targets:   res.Targets,
		Paths:     res.Paths,
		Truncated: res.Truncated,
		Unknown:   res.Unknown,
		Absent:    res.Absent,
	}
	switch shape {
	case genealogy.ShapeEdgeList:
		out.Edges = edgesFromDAG(res.EdgeList())
	case genealogy.ShapeGraph:
		g := FromDAG(res.Graph())
		out.Graph = &g
	default:
		out.Shape = string(genealogy.ShapeCodes)
		out.Codes = res.Codes
	}
	return out
}

// =============================================================================
// Internal Helpers
// =============================================================================

// nodeFromDAG converts a dag.Node to a serialization Node, lifting the
// well-known metadata keys into their own fields.
func nodeFromDAG(n *dag.Node) Node {
	node := Node{ID: n.ID}
	if label, ok := n.Meta[dag.MetaLabel].(string); ok {
		node.Label = label
	}
	switch cs := n.Meta[dag.MetaClassifications].(type) {
	case []string:
		node.Classifications = slices.Clone(cs)
	case []any:
		for _, c := range cs {
			if s, ok := c.(string); ok {
				node.Classifications = append(node.Classifications, s)
			}
		}
	}
	node.Meta = cleanMeta(n.Meta)
	return node
}

// cleanMeta returns a copy of metadata without the well-known keys.
// Returns nil if the result would be empty.
func cleanMeta(m map[string]any) map[string]any {
	var result map[string]any
	for k, v := range m {
		if k == dag.MetaLabel || k == dag.MetaClassifications {
			continue
		}
		if result == nil {
			result = make(map[string]any, len(m))
		}
		result[k] = v
	}
	return result
}

func edgesFromDAG(edges []dag.Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = Edge{From: e.From, To: e.To}
	}
	return out
}
