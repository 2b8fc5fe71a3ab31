// Package dag provides the unified graph that genealogy queries run on: a
// deduplicated directed acyclic graph of codes built from one or more
// classification relation lists.
//
// # Overview
//
// A classification is a set of (parent, child) relations between opaque
// codes. Several classifications may mention the same code with different
// neighbors, so the merged structure is a general DAG rather than a tree: a
// code may have several parents, reach several roots, and the graph may be
// disconnected.
//
// # Basic Usage
//
// Build a graph from a relation list with [Build], or create one with [New]
// and add nodes and edges explicitly:
//
//	g := dag.Build([]dag.Edge{
//	    {From: "A", To: "B"},
//	    {From: "A", To: "C"},
//	    {From: "B", To: "D"},
//	})
//	g.Neighbors("D", dag.Up)   // [B]
//	g.Roots()                  // [A]
//
// Duplicate relations are stored once. Self loops are rejected. Acyclicity
// is not checked on insertion; use [DAG.Validate] when the input is not
// trusted.
//
// # Graph Algebra
//
// [Union] merges graphs over their node and edge sets, [Intersection] keeps
// the shared edges, and [DAG.Induced] extracts the subgraph spanned by a set
// of codes. These are the building blocks for the subgraph-shaped query
// results in the genealogy package.
//
// # Reachability
//
// [NewIndex] precomputes ancestor bitsets in one topological pass so that
// ancestor tests become constant time. An index can reserve arena id 0 for
// a virtual root sitting above every real root; the lowest-common-ancestor
// resolver uses this to treat a multi-rooted graph as single-rooted without
// touching the caller's graph.
//
// # Concurrency
//
// Construction is not synchronized. Once built, a DAG and any [Index] over
// it can be read from many goroutines.
package dag
