// Package pipeline runs genealogy queries end to end: load classification
// sources, build the unified graph, run the query and render the response.
//
// The CLI and the HTTP server both go through a [Runner] so that caching
// and defaults behave the same everywhere.
//
// # Stages
//
//  1. Load: read classification files, SQLite or MongoDB into a
//     [classification.Repository] and unify it into a [Snapshot]
//  2. Query: run a [genealogy.Query] against the snapshot and shape the
//     result as a [graph.Response]
//  3. Render: encode the response as text, JSON, DOT or SVG
//
// Stages 1 and 2 are cached. Unified graphs are keyed by the identity of
// their sources (path, size and modification time), so unchanged files are
// never parsed twice. Responses are keyed by the snapshot digest and the
// query parameters.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	snap, _, err := runner.LoadSnapshot(ctx, pipeline.Sources{Files: []string{"icd10.csv"}}, false)
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Query(ctx, snap, pipeline.Request{
//	    Query: genealogy.Query{Op: genealogy.OpAncestors, Codes: []string{"A01"}},
//	    Shape: genealogy.ShapeCodes,
//	})
package pipeline

import (
	"slices"
	"time"

	"github.com/matzehuels/lineage/pkg/classification"
	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/genealogy"
	"github.com/matzehuels/lineage/pkg/graph"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// DefaultFormat is used when the caller does not pick a format.
const DefaultFormat = FormatText

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: text, json, dot, svg)", format)
	}
	return nil
}

// NeedsGraph reports whether a format draws the result subgraph, which
// forces the graph shape.
func NeedsGraph(format string) bool {
	return format == FormatDOT || format == FormatSVG
}

// =============================================================================
// Sources
// =============================================================================

// Sources names where classifications come from. Files may name
// directories, which contribute every supported file inside them.
// Classifications restricts the unified graph to the named
// classifications; empty means all of them.
type Sources struct {
	Files           []string                    `toml:"files"`
	SQLite          string                      `toml:"sqlite"`
	Mongo           *classification.MongoConfig `toml:"mongo"`
	Classifications []string                    `toml:"classifications"`
}

// Empty reports whether no source is configured.
func (s Sources) Empty() bool {
	return len(s.Files) == 0 && s.SQLite == "" && s.Mongo == nil
}

// Validate checks that at least one source is set.
func (s Sources) Validate() error {
	if s.Empty() {
		return errors.New(errors.ErrCodeInvalidConfig,
			"no classification source: pass -c FILE, --sqlite DB or configure [sources]")
	}
	for _, name := range s.Classifications {
		if err := errors.ValidateName(name); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is an immutable unified graph with the engine that queries it.
// Snapshots are safe for concurrent use.
type Snapshot struct {
	// Graph is the unified graph.
	Graph *dag.DAG
	// Digest is the content hash of the serialized graph; it scopes
	// response cache keys.
	Digest string
	// Classifications lists the classifications merged into Graph.
	Classifications []string
	// Engine answers queries against Graph.
	Engine *genealogy.Engine
}

// NodeCount returns the number of codes in the snapshot.
func (s *Snapshot) NodeCount() int { return s.Graph.NodeCount() }

// =============================================================================
// Request / Result
// =============================================================================

// Request is one query against a snapshot.
type Request struct {
	Query genealogy.Query
	Shape genealogy.Shape
	// Refresh bypasses the response cache.
	Refresh bool
}

// ValidateAndSetDefaults resolves operation and shape aliases, normalizes
// the codes and validates the query. An empty shape becomes codes.
func (r *Request) ValidateAndSetDefaults() error {
	op, err := genealogy.ParseOp(string(r.Query.Op))
	if err != nil {
		return err
	}
	r.Query.Op = op
	if r.Shape, err = genealogy.ParseShape(string(r.Shape)); err != nil {
		return err
	}
	codes := make([]string, 0, len(r.Query.Codes))
	for _, c := range r.Query.Codes {
		codes = append(codes, genealogy.NormalizeCode(c))
	}
	r.Query.Codes = codes
	return r.Query.Validate()
}

// Result is the outcome of a pipeline query.
type Result struct {
	Response  graph.Response
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	NodeCount int
	QueryTime time.Duration
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	GraphHit bool // unified graph came from cache
	QueryHit bool // response came from cache
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}
