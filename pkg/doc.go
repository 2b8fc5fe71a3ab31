// Package pkg provides the core libraries for lineage, a genealogy query
// engine over hierarchical classifications.
//
// # Overview
//
// Lineage loads classifications such as ICD, ATC or NACE, where every code
// has zero or more parent codes, unifies them into one directed acyclic
// graph and answers questions about the codes' relatives. The pkg
// directory is organized into these areas:
//
//  1. [dag] - The graph store: nodes, edges, reachability and algebra
//  2. [genealogy] - The query engine (ancestors, LCA, family, paths, ...)
//  3. [classification] - Readers and stores (files, SQLite, MongoDB)
//  4. [cache] - File, Redis and null caches for graphs and responses
//  5. [pipeline] - Orchestration (load → unify → query → render)
//  6. [graph] - Serialization types for graphs and query responses
//  7. [render] - DOT and SVG output
//  8. [server] - The HTTP API
//  9. [observability] - Query, cache and HTTP hooks with a Prometheus backend
//
// # Architecture
//
// The typical data flow through lineage:
//
//	CSV/JSON/YAML/TOML files, SQLite, MongoDB
//	         ↓
//	    [classification] package (read, validate, unify)
//	         ↓
//	    [dag] package (unified graph + ancestor index)
//	         ↓
//	    [genealogy] package (answer a query)
//	         ↓
//	    [graph] / [render] packages (JSON, text, DOT, SVG)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/lineage/pkg/classification"
//	    "github.com/matzehuels/lineage/pkg/genealogy"
//	)
//
//	repo := classification.NewRepository()
//	_ = repo.LoadFiles("icd10.csv", "atc.csv")
//	g, _ := repo.Unify()
//
//	eng := genealogy.New(g)
//	res, _ := eng.Run(context.Background(), genealogy.Query{
//	    Op:    genealogy.OpLCA,
//	    Codes: []string{"A01.1", "A02.0"},
//	})
//
// The [pipeline] package wraps these steps with caching and is what the
// CLI and the HTTP server use.
//
// [dag]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/dag
// [genealogy]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/genealogy
// [classification]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/classification
// [cache]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/pipeline
// [graph]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/graph
// [render]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/render
// [server]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/lineage/pkg/observability
package pkg
