package genealogy

import (
	"slices"
	"strings"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
)

// Shape selects how a query result is presented to the caller.
type Shape string

// Output shapes.
const (
	// ShapeCodes is a deduplicated set of codes.
	ShapeCodes Shape = "codes"
	// ShapeEdgeList is the deduplicated edge list of the induced subgraph.
	ShapeEdgeList Shape = "edgelist"
	// ShapeGraph is the induced subgraph itself (nodes and edges).
	ShapeGraph Shape = "graph"
)

// DefaultShape is used when the caller does not pick one.
const DefaultShape = ShapeCodes

var shapeAliases = map[string]Shape{
	"codes":      ShapeCodes,
	"codes_only": ShapeCodes,
	"edgelist":   ShapeEdgeList,
	"edges":      ShapeEdgeList,
	"graph":      ShapeGraph,
}

// ParseShape converts a shape token into a Shape. The empty string maps to
// [DefaultShape]; any other unknown token is an INVALID_SHAPE error.
func ParseShape(s string) (Shape, error) {
	if s == "" {
		return DefaultShape, nil
	}
	if shape, ok := shapeAliases[strings.ToLower(s)]; ok {
		return shape, nil
	}
	return "", errors.New(errors.ErrCodeInvalidShape,
		"invalid shape: %q (must be one of: codes, edgelist, graph)", s)
}

// Result is the answer to a genealogy query.
//
// Codes holds the answer set sorted ascending. Targets holds the valid
// query codes after unknown ones were dropped; Unknown lists the dropped
// ones. Absent marks "nothing to report": either no valid target remained
// or the question has no answer (e.g. no common ancestor). A result that is
// not Absent but has no Codes is a legitimate empty answer.
//
// Paths is only filled by paths queries; Truncated marks that the path
// limit cut the enumeration short.
type Result struct {
	Op        Op
	Targets   []string
	Codes     []string
	Unknown   []string
	Absent    bool
	Paths     [][]string
	Truncated bool

	g        *dag.DAG
	subgraph *dag.DAG
}

// Empty reports whether the result holds no codes.
func (r Result) Empty() bool { return len(r.Codes) == 0 }

// Degraded reports whether unknown codes were dropped from the query.
func (r Result) Degraded() bool { return len(r.Unknown) > 0 }

// Graph returns the subgraph view of the result. Composite queries
// (complete family, in-between graph) return their own subgraph; every
// other query returns the subgraph induced by Targets ∪ Codes. Absent
// results return an empty graph.
func (r Result) Graph() *dag.DAG {
	if r.subgraph != nil {
		return r.subgraph
	}
	if r.Absent || r.g == nil {
		return dag.New(nil)
	}
	return r.g.Induced(union(r.Targets, r.Codes))
}

// EdgeList returns the edges of [Result.Graph].
func (r Result) EdgeList() []dag.Edge { return r.Graph().Edges() }

// Labels returns the label metadata of every code in the result, keyed by
// code. Codes without a label map to themselves.
func (r Result) Labels() map[string]string {
	out := make(map[string]string, len(r.Codes))
	for _, c := range r.Codes {
		out[c] = c
		if r.g == nil {
			continue
		}
		if n, ok := r.g.Node(c); ok {
			out[c] = n.Label()
		}
	}
	return out
}

func (e *Engine) result(op Op, targets, unknown, codes []string) Result {
	return Result{
		Op:      op,
		Targets: targets,
		Codes:   sortedSet(codes),
		Unknown: unknown,
		g:       e.g,
	}
}

func (e *Engine) absent(op Op, targets, unknown []string) Result {
	return Result{
		Op:      op,
		Targets: targets,
		Unknown: unknown,
		Absent:  true,
		g:       e.g,
	}
}

func sortedSet(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := slices.Clone(codes)
	slices.Sort(out)
	return slices.Compact(out)
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return sortedSet(out)
}
