package dag_test

import (
	"fmt"

	"github.com/matzehuels/lineage/pkg/dag"
)

func ExampleBuild() {
	// Two classifications mention D with different parents
	g := dag.Build([]dag.Edge{
		{From: "A", To: "B"},
		{From: "A", To: "C"},
		{From: "B", To: "D"},
		{From: "C", To: "D"},
		{From: "B", To: "D"}, // duplicate, stored once
	})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Parents of D:", g.Neighbors("D", dag.Up))
	fmt.Println("Children of A:", g.Neighbors("A", dag.Down))
	// Output:
	// Nodes: 4
	// Edges: 4
	// Parents of D: [B C]
	// Children of A: [B C]
}

func ExampleDAG_Roots() {
	// Independent hierarchies and an isolated code
	g := dag.Build([]dag.Edge{
		{From: "X", To: "Y"},
		{From: "Z", To: "W"},
	})
	_ = g.AddNode(dag.Node{ID: "solo"})

	fmt.Println("Roots:", g.Roots())
	fmt.Println("Leaves:", g.Leaves())
	// Output:
	// Roots: [X Z solo]
	// Leaves: [W Y solo]
}

func ExampleDAG_Induced() {
	g := dag.Build([]dag.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "A", To: "C"},
		{From: "C", To: "D"},
	})

	sub := g.Induced([]string{"A", "C", "D"})
	fmt.Println("Edges:", sub.Edges())
	// Output:
	// Edges: [{A C} {C D}]
}

func ExampleIntersection() {
	a := dag.Build([]dag.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}})
	b := dag.Build([]dag.Edge{{From: "B", To: "C"}, {From: "C", To: "D"}})

	fmt.Println("Shared:", dag.Intersection(a, b, false).NodeIDs())
	fmt.Println("All vertices:", dag.Intersection(a, b, true).NodeCount())
	// Output:
	// Shared: [B C]
	// All vertices: 4
}

func ExampleIndex_IsAncestor() {
	g := dag.Build([]dag.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
	})
	ix := dag.NewIndex(g, true)

	a, _ := ix.ID("A")
	c, _ := ix.ID("C")
	fmt.Println("A above C:", ix.IsAncestor(a, c))
	fmt.Println("C above A:", ix.IsAncestor(c, a))
	fmt.Println("virtual root above C:", ix.IsAncestor(dag.VirtualRoot, c))
	// Output:
	// A above C: true
	// C above A: false
	// virtual root above C: true
}
