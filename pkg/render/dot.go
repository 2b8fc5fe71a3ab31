package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/lineage/pkg/dag"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the node label and remaining metadata below the code.
	Detailed bool

	// Highlight lists codes drawn with a filled accent, typically the
	// targets of the query that produced the graph.
	Highlight []string

	// Title is drawn above the diagram when set.
	Title string

	// LeftToRight lays generations out horizontally instead of top down.
	LeftToRight bool
}

// ToDOT converts a graph to Graphviz DOT. Nodes and edges are emitted in
// sorted order so that equal graphs give byte-identical output.
func ToDOT(g *dag.DAG, opts Options) string {
	highlight := make(map[string]bool, len(opts.Highlight))
	for _, id := range opts.Highlight {
		highlight[id] = true
	}

	rankdir := "TB"
	if opts.LeftToRight {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  labelloc=t;\n  label=%q;\n", opts.Title)
	}
	buf.WriteString("\n")

	ids := g.NodeIDs()
	slices.Sort(ids)
	for _, id := range ids {
		n, _ := g.Node(id)
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(*n, opts.Detailed))}
		if highlight[id] {
			attrs = append(attrs, "fillcolor=\"#cfe2ff\"", "penwidth=2")
		}
		if label := ownLabel(*n); label != "" && !opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("tooltip=%q", label))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	edges := g.Edges()
	slices.SortFunc(edges, func(a, b dag.Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dag.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}

	parts := []string{n.ID}
	if label := ownLabel(n); label != "" {
		parts = append(parts, label)
	}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if k == dag.MetaLabel {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return strings.Join(parts, "\n")
}

// ownLabel returns the label stored on n, or "" when n has none or it
// repeats the code.
func ownLabel(n dag.Node) string {
	label, _ := n.Meta[dag.MetaLabel].(string)
	if label == n.ID {
		return ""
	}
	return label
}
