package dag

// TopologicalOrder returns the codes ordered so that every parent precedes
// its children, using Kahn's algorithm seeded with the roots in insertion
// order. Nodes on a cycle never reach in-degree zero and are appended at
// the end in insertion order, so the result always lists every node once.
//
// Time complexity is O(V + E).
func (d *DAG) TopologicalOrder() []string {
	inDegree := make(map[string]int, len(d.order))
	queue := make([]string, 0, len(d.order))
	for _, id := range d.order {
		degree := len(d.incoming[id])
		inDegree[id] = degree
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(d.order))
	seen := make(map[string]bool, len(d.order))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)
		seen[curr] = true

		for _, child := range d.outgoing[curr] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(order) < len(d.order) {
		for _, id := range d.order {
			if !seen[id] {
				order = append(order, id)
			}
		}
	}
	return order
}

// Depths assigns every code the length of the longest path from any root
// to it. Roots are at depth 0 and each node sits one below its deepest
// parent, so a smaller depth means "closer to a root" along every path.
func (d *DAG) Depths() map[string]int {
	depth := make(map[string]int, len(d.order))
	for _, id := range d.TopologicalOrder() {
		for _, child := range d.outgoing[id] {
			if dd := depth[id] + 1; dd > depth[child] {
				depth[child] = dd
			}
		}
	}
	return depth
}
