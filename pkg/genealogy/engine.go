package genealogy

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/dag"
)

// Engine answers genealogy queries over one unified graph.
//
// The engine never mutates its graph, so one Engine (and one graph) can
// serve concurrent queries. Every operation is synchronous and a pure
// function of the graph and its arguments.
type Engine struct {
	g      *dag.DAG
	logger *log.Logger
	lca    LCAOptions
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger that receives unknown-code warnings.
// The default logger discards everything.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLCAOptions sets the defaults used by [Engine.Run] for LCA queries.
func WithLCAOptions(o LCAOptions) Option {
	return func(e *Engine) { e.lca = o }
}

// New creates an engine over g. A nil graph behaves like an empty one.
func New(g *dag.DAG, opts ...Option) *Engine {
	if g == nil {
		g = dag.New(nil)
	}
	e := &Engine{
		g:      g,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the engine's unified graph.
func (e *Engine) Graph() *dag.DAG { return e.g }

// NormalizeCode returns the canonical string form of a code. Codes are
// opaque, so the only normalization is trimming surrounding whitespace;
// "007" and "7" stay distinct.
func NormalizeCode(code string) string { return strings.TrimSpace(code) }

// resolveTargets normalizes and deduplicates the query codes, then splits
// them into codes present in the graph and unknown ones. Unknown codes are
// reported through the logger and never abort the query.
func (e *Engine) resolveTargets(op Op, codes []string) (valid, unknown []string) {
	seen := make(map[string]bool, len(codes))
	for _, raw := range codes {
		c := NormalizeCode(raw)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if e.g.Contains(c) {
			valid = append(valid, c)
			continue
		}
		unknown = append(unknown, c)
		e.logger.Warn("unknown code dropped from query", "op", op, "code", c)
	}
	return valid, unknown
}
