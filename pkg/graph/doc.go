// Package graph provides the serialization types for unified graphs and
// query results.
//
// This package defines the canonical wire format for lineage data, used for
// JSON files, API responses, caching, and interoperability.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Graph], [Response]: Serialization types (this package)
//   - pkg/dag.DAG: Internal graph representation
//   - pkg/genealogy.Result: Internal query result
//
// Use [FromDAG]/[ToDAG] and [FromResult] to convert between them.
//
// # Graph Serialization
//
// Graphs use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "A", "label": "Infectious diseases"}, {"id": "A01"}],
//	  "edges": [{"from": "A", "to": "A01"}]
//	}
//
// The well-known node metadata (label, classifications) is lifted into
// dedicated fields; everything else travels in "meta".
//
// # Query Results
//
// A [Response] holds one result in one output shape: a code set, an edge
// list, or a subgraph. The same struct carries bson tags so results can be
// stored as documents unchanged.
package graph
