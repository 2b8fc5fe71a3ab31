// Package genealogy answers family-tree questions about codes in a unified
// classification graph: parents, children, siblings, ancestors,
// descendants, lowest common ancestors, complete families and the
// in-between subgraph linking a set of codes.
//
// # Usage
//
//	eng := genealogy.New(g, genealogy.WithLogger(logger))
//	res, err := eng.Ancestors([]string{"E"}, dag.Unbounded)
//	// res.Codes: [A B C D]
//
// Every operation is also reachable through [Engine.Run] with a [Query],
// which is how the CLI and the HTTP API call the engine.
//
// # Depth
//
// Depth limits are measured along each path, not as a graph-wide distance.
// A code that sits one hop above a target on one path and three hops above
// it on another is within depth 1. The engine gets this by a breadth-first
// expansion layered by hop count; no path is materialized.
//
// # Unknown Codes
//
// Codes missing from the graph never fail a query. They are dropped,
// logged at warn level and listed in [Result.Unknown]. When no valid code
// is left the result is Absent, which callers should tell apart from a
// valid query that found nothing.
//
// # Result Shapes
//
// A [Result] carries the answer codes and can present itself as an edge
// list or a subgraph; see [Shape].
package genealogy
