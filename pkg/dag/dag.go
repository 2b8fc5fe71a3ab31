package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	// All codes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [DAG.AddEdge] when From and To are the same
	// code. A code is never its own parent.
	ErrSelfLoop = errors.New("self loop")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	// Queries on a cyclic graph are undefined; Validate lets callers check
	// their input before building an engine on top of it.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Unbounded is the depth value meaning "no depth limit" for traversals.
const Unbounded = 0

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// It carries optional per-code information such as a display label or the
// classifications a code was seen in. Metadata maps are never nil after
// [DAG.AddNode] or [New].
type Metadata map[string]any

// Well-known metadata keys.
const (
	// MetaLabel holds the human-readable label of a code.
	MetaLabel = "label"
	// MetaClassifications lists the names of the classifications a code
	// was seen in, as a []string.
	MetaClassifications = "classifications"
)

// Direction selects which neighbors a lookup follows.
type Direction int

const (
	// Up follows edges towards the roots (parents, ancestors).
	Up Direction = iota
	// Down follows edges towards the leaves (children, descendants).
	Down
)

// String returns "up" or "down".
func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Up {
		return Down
	}
	return Up
}

// Node is a code in the unified graph.
//
// The zero value is not usable - ID must be set before adding to a DAG.
type Node struct {
	ID   string   // Code, compared by value
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Label returns the [MetaLabel] entry if present, otherwise the ID.
func (n Node) Label() string {
	if s, ok := n.Meta[MetaLabel].(string); ok && s != "" {
		return s
	}
	return n.ID
}

// Edge is a directed relation from a more general code (From) to a more
// specific one (To). Edges are comparable and used as set keys.
type Edge struct {
	From string // Parent code
	To   string // Child code
}

// DAG is the unified, deduplicated graph of one or more classifications.
// Nodes keep their insertion order so that every listing is deterministic.
//
// The zero value is not usable - use [New] or [Build] to create a DAG.
// A DAG is safe for concurrent reads once construction is finished; it is
// not safe to mutate it while other goroutines read it.
type DAG struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	edgeSet  map[Edge]struct{}
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		edgeSet:  make(map[Edge]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Build creates a DAG from a relation list. Endpoint nodes are created on
// demand, identical (From, To) pairs are kept once, and self loops and
// edges with an empty endpoint are skipped. Build does not check for
// cycles; see [DAG.Validate].
func Build(edges []Edge) *DAG {
	g := New(nil)
	for _, e := range edges {
		_ = g.Connect(e.From, e.To)
	}
	return g
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
	return nil
}

// ensureNode adds id if it is missing and returns the stored node.
func (d *DAG) ensureNode(id string) *Node {
	if n, ok := d.nodes[id]; ok {
		return n
	}
	_ = d.AddNode(Node{ID: id})
	return d.nodes[id]
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode if an endpoint is
// missing and ErrSelfLoop if both endpoints are the same code. Adding an
// edge that already exists is a no-op.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.From == e.To {
		return ErrSelfLoop
	}
	if _, dup := d.edgeSet[e]; dup {
		return nil
	}
	d.edgeSet[e] = struct{}{}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// Connect adds the edge from→to, creating missing endpoint nodes first.
// It returns ErrInvalidNodeID for an empty endpoint and ErrSelfLoop for
// from == to; in both cases the graph is left unchanged.
func (d *DAG) Connect(from, to string) error {
	if from == "" || to == "" {
		return ErrInvalidNodeID
	}
	if from == to {
		return ErrSelfLoop
	}
	d.ensureNode(from)
	d.ensureNode(to)
	return d.AddEdge(Edge{From: from, To: to})
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the stored nodes, so metadata changes affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, len(d.order))
	for i, id := range d.order {
		nodes[i] = d.nodes[id]
	}
	return nodes
}

// NodeIDs returns all codes in insertion order.
func (d *DAG) NodeIDs() []string { return slices.Clone(d.order) }

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the codes this node has edges to.
// Returns nil if the node has no children or doesn't exist. The returned
// slice should not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the codes that have edges to this node.
// Returns nil if the node has no parents or doesn't exist. The returned
// slice should not be modified.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// Neighbors returns the one-hop neighbors of id in the given direction:
// parents for [Up], children for [Down]. A code without such neighbors,
// or one that is not in the graph, yields nil.
func (d *DAG) Neighbors(id string, dir Direction) []string {
	if dir == Up {
		return d.incoming[id]
	}
	return d.outgoing[id]
}

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Contains reports whether id is an endpoint of the graph.
func (d *DAG) Contains(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// HasEdge reports whether the edge from→to exists.
func (d *DAG) HasEdge(from, to string) bool {
	_, ok := d.edgeSet[Edge{From: from, To: to}]
	return ok
}

// Roots returns the codes with no incoming edges, sorted ascending.
// Isolated nodes are both roots and leaves. Returns nil for an empty graph.
func (d *DAG) Roots() []string {
	var roots []string
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)
	return roots
}

// Leaves returns the codes with no outgoing edges, sorted ascending.
// Returns nil for an empty graph.
func (d *DAG) Leaves() []string {
	var leaves []string
	for _, id := range d.order {
		if len(d.outgoing[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	slices.Sort(leaves)
	return leaves
}

// Clone returns a deep copy of the graph, including node metadata maps
// (shallowly copied per node) and graph-level metadata.
func (d *DAG) Clone() *DAG {
	meta := make(Metadata, len(d.meta))
	for k, v := range d.meta {
		meta[k] = v
	}
	out := New(meta)
	for _, id := range d.order {
		n := d.nodes[id]
		m := make(Metadata, len(n.Meta))
		for k, v := range n.Meta {
			m[k] = v
		}
		_ = out.AddNode(Node{ID: id, Meta: m})
	}
	for _, e := range d.edges {
		_ = out.AddEdge(e)
	}
	return out
}

// Induced returns the subgraph formed by the given codes together with
// every edge of d whose endpoints are both in that set. Codes not present
// in d are ignored. Node metadata is shared with d.
func (d *DAG) Induced(ids []string) *DAG {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := d.nodes[id]; ok {
			keep[id] = true
		}
	}
	out := New(nil)
	for _, id := range d.order {
		if keep[id] {
			_ = out.AddNode(Node{ID: id, Meta: d.nodes[id].Meta})
		}
	}
	for _, e := range d.edges {
		if keep[e.From] && keep[e.To] {
			_ = out.AddEdge(e)
		}
	}
	return out
}

// Validate checks graph integrity and returns nil if valid: every edge
// connects existing nodes and there is no directed cycle. Returns
// ErrInvalidEdgeEndpoint or ErrGraphHasCycle.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		_, okS := d.nodes[e.From]
		_, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
	}
	if len(d.BackEdges()) > 0 {
		return ErrGraphHasCycle
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
// The returned map maps each ID to its index in the slice.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
