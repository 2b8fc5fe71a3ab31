package genealogy

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/observability"
)

// Op names a genealogy query.
type Op string

// Supported operations.
const (
	OpParents     Op = "parents"
	OpChildren    Op = "children"
	OpSiblings    Op = "siblings"
	OpAncestors   Op = "ancestors"
	OpDescendants Op = "descendants"
	OpLCA         Op = "lca"
	OpFamily      Op = "family"
	OpBetween     Op = "between"
	OpRoots       Op = "roots"
	OpLeaves      Op = "leaves"
	OpPaths       Op = "paths"
)

// Ops lists every operation in the order the CLI and HTTP API present them.
var Ops = []Op{
	OpParents, OpChildren, OpSiblings,
	OpAncestors, OpDescendants,
	OpLCA, OpFamily, OpBetween,
	OpRoots, OpLeaves, OpPaths,
}

var opAliases = map[string]Op{
	"lowest_common_ancestors": OpLCA,
	"complete_family":         OpFamily,
	"in_between":              OpBetween,
	"in_between_graph":        OpBetween,
}

// ParseOp converts an operation name into an Op.
func ParseOp(s string) (Op, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, op := range Ops {
		if string(op) == s {
			return op, nil
		}
	}
	if op, ok := opAliases[s]; ok {
		return op, nil
	}
	return "", errors.New(errors.ErrCodeInvalidArgument, "unknown operation: %q", s)
}

// DefaultFamilyDepth is the ancestor expansion used by the CLI and the
// HTTP API when a family query does not set one.
const DefaultFamilyDepth = 1

// DefaultPathLimit caps the number of paths returned by a paths query.
const DefaultPathLimit = 100

// Query is a single request against an [Engine].
//
// MaxDepth follows the operation: for ancestors and descendants 0 means
// unbounded; for family it is the ancestor expansion and 0 means none.
// Other operations ignore it. Strategy overrides the engine's LCA
// strategy when set. Limit caps a paths query (DefaultPathLimit when 0).
type Query struct {
	Op       Op
	Codes    []string
	MaxDepth int
	Strategy Strategy
	Limit    int
}

// Validate checks the query before any traversal starts.
func (q Query) Validate() error {
	if _, err := ParseOp(string(q.Op)); err != nil {
		return err
	}
	if q.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidDepth, "max depth cannot be negative, got %d", q.MaxDepth)
	}
	if q.Limit < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "limit cannot be negative, got %d", q.Limit)
	}
	if q.Strategy != "" {
		if _, err := ParseStrategy(string(q.Strategy)); err != nil {
			return err
		}
	}
	switch q.Op {
	case OpRoots, OpLeaves:
		for _, c := range q.Codes {
			if err := errors.ValidateCode(c); err != nil {
				return err
			}
		}
		return nil
	case OpParents, OpChildren, OpSiblings:
		if len(q.Codes) != 1 {
			return errors.New(errors.ErrCodeInvalidArgument, "%s takes exactly one code, got %d", q.Op, len(q.Codes))
		}
	case OpPaths:
		if len(q.Codes) != 2 {
			return errors.New(errors.ErrCodeInvalidArgument, "paths takes exactly two codes (from, to), got %d", len(q.Codes))
		}
	}
	return errors.ValidateCodes("codes", q.Codes)
}

// Run validates q and dispatches it to the matching operation. Query
// hooks from the observability registry see every call.
func (e *Engine) Run(ctx context.Context, q Query) (Result, error) {
	if op, err := ParseOp(string(q.Op)); err == nil {
		q.Op = op
	}
	hooks := observability.Query()
	hooks.OnQueryStart(ctx, string(q.Op), len(q.Codes))
	start := time.Now()

	res, err := e.run(ctx, q)

	hooks.OnQueryComplete(ctx, string(q.Op), len(res.Codes), len(res.Unknown), time.Since(start), err)
	if err != nil {
		return Result{}, err
	}
	e.logger.Debug("query complete", "op", q.Op, "codes", len(res.Codes), "unknown", len(res.Unknown), "absent", res.Absent)
	return res, nil
}

func (e *Engine) run(ctx context.Context, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	switch q.Op {
	case OpParents:
		return e.Parents(q.Codes[0])
	case OpChildren:
		return e.Children(q.Codes[0])
	case OpSiblings:
		return e.Siblings(q.Codes[0])
	case OpAncestors:
		return e.Ancestors(q.Codes, q.MaxDepth)
	case OpDescendants:
		return e.Descendants(q.Codes, q.MaxDepth)
	case OpLCA:
		opts := e.lca
		if q.Strategy != "" {
			opts.Strategy = q.Strategy
		}
		return e.LowestCommonAncestors(ctx, q.Codes, opts)
	case OpFamily:
		return e.CompleteFamily(q.Codes, q.MaxDepth)
	case OpBetween:
		return e.InBetween(q.Codes)
	case OpRoots:
		return e.Roots(q.Codes)
	case OpLeaves:
		return e.Leaves(q.Codes)
	case OpPaths:
		limit := q.Limit
		if limit == 0 {
			limit = DefaultPathLimit
		}
		return e.Paths(ctx, q.Codes[0], q.Codes[1], limit)
	}
	return Result{}, errors.New(errors.ErrCodeUnsupported, "operation %q is not supported", q.Op)
}
