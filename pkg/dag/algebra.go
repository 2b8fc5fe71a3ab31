package dag

// Union merges graphs into a new DAG whose node and edge sets are the
// deduplicated unions of the inputs. Nil inputs are ignored. Node metadata
// is taken from the first graph that contains the node.
func Union(graphs ...*DAG) *DAG {
	out := New(nil)
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for _, id := range g.order {
			if !out.Contains(id) {
				_ = out.AddNode(Node{ID: id, Meta: g.nodes[id].Meta})
			}
		}
		for _, e := range g.edges {
			_ = out.AddEdge(e)
		}
	}
	return out
}

// Intersection returns the edges present in both a and b. The node set is
// the endpoints of the surviving edges, or, when keepAllVertices is set,
// the union of both node sets regardless of edge survival.
//
// A nil operand behaves like an empty graph.
func Intersection(a, b *DAG, keepAllVertices bool) *DAG {
	out := New(nil)
	if a == nil {
		a = New(nil)
	}
	if b == nil {
		b = New(nil)
	}

	if keepAllVertices {
		for _, g := range []*DAG{a, b} {
			for _, id := range g.order {
				if !out.Contains(id) {
					_ = out.AddNode(Node{ID: id, Meta: g.nodes[id].Meta})
				}
			}
		}
	}

	for _, e := range a.edges {
		if !b.HasEdge(e.From, e.To) {
			continue
		}
		for _, id := range [2]string{e.From, e.To} {
			if !out.Contains(id) {
				_ = out.AddNode(Node{ID: id, Meta: a.nodes[id].Meta})
			}
		}
		_ = out.AddEdge(e)
	}
	return out
}

// Equal reports whether a and b have the same node set and edge set,
// ignoring order and metadata.
func Equal(a, b *DAG) bool {
	if a.NodeCount() != b.NodeCount() || a.EdgeCount() != b.EdgeCount() {
		return false
	}
	for _, id := range a.order {
		if !b.Contains(id) {
			return false
		}
	}
	for _, e := range a.edges {
		if !b.HasEdge(e.From, e.To) {
			return false
		}
	}
	return true
}
