package dag

// BackEdges returns the edges that close a directed cycle, found by a
// depth-first search that starts from the roots and then from any node
// not yet visited. Removing them leaves the graph acyclic. An acyclic
// graph has no back edges.
//
// Classification data is expected to be acyclic; this is the diagnostic
// for input that is not.
func (d *DAG) BackEdges() []Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var back []Edge

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, Edge{From: id, To: child})
			}
		}
		color[id] = black
	}

	for _, id := range d.Roots() {
		if color[id] == white {
			dfs(id)
		}
	}
	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}

// BreakCycles returns a copy of d without its back edges, together with
// the edges that were dropped.
func (d *DAG) BreakCycles() (*DAG, []Edge) {
	back := d.BackEdges()
	if len(back) == 0 {
		return d.Clone(), nil
	}
	drop := make(map[Edge]bool, len(back))
	for _, e := range back {
		drop[e] = true
	}

	out := New(d.meta)
	for _, id := range d.order {
		_ = out.AddNode(Node{ID: id, Meta: d.nodes[id].Meta})
	}
	for _, e := range d.edges {
		if !drop[e] {
			_ = out.AddEdge(e)
		}
	}
	return out, back
}
