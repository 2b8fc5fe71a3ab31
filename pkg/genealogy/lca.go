package genealogy

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
)

// Strategy selects the LCA algorithm. Both strategies return the same set.
type Strategy string

const (
	// StrategyReachability answers from a bitset ancestor index built in
	// one topological pass over the work graph.
	StrategyReachability Strategy = "reachability"
	// StrategyPaths enumerates every super-root to target path, takes the
	// deepest shared node of every combination and filters the candidates
	// pairwise. Exponential on dense graphs; bounded by LCAOptions.
	StrategyPaths Strategy = "paths"
)

// ParseStrategy converts a strategy name. The empty string selects
// [StrategyReachability].
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", string(StrategyReachability):
		return StrategyReachability, nil
	case string(StrategyPaths):
		return StrategyPaths, nil
	}
	return "", errors.New(errors.ErrCodeInvalidArgument,
		"invalid strategy: %q (must be one of: reachability, paths)", s)
}

// Limits applied by [StrategyPaths] when LCAOptions leaves them unset.
const (
	DefaultMaxPaths        = 10_000
	DefaultMaxCombinations = 1_000_000
)

// ErrPathLimit is returned (wrapped) when [StrategyPaths] would enumerate
// more paths or combinations than allowed.
var ErrPathLimit = errors.New(errors.ErrCodeLimitExceeded, "path enumeration limit exceeded")

// LCAOptions configures [Engine.LowestCommonAncestors].
type LCAOptions struct {
	Strategy Strategy
	// MaxPaths caps the super-root to target paths enumerated per target.
	MaxPaths int
	// MaxCombinations caps the number of path combinations examined.
	MaxCombinations int
}

// ValidateAndSetDefaults checks the options and fills unset limits.
func (o *LCAOptions) ValidateAndSetDefaults() error {
	s, err := ParseStrategy(string(o.Strategy))
	if err != nil {
		return err
	}
	o.Strategy = s
	if o.MaxPaths < 0 || o.MaxCombinations < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "LCA limits cannot be negative")
	}
	if o.MaxPaths == 0 {
		o.MaxPaths = DefaultMaxPaths
	}
	if o.MaxCombinations == 0 {
		o.MaxCombinations = DefaultMaxCombinations
	}
	return nil
}

// LowestCommonAncestors returns the lowest common ancestors of targets:
// the common ancestors that are not themselves ancestors of another common
// ancestor. A target that is an ancestor of every other target is its own
// answer, so a single target yields itself. The result is an antichain and
// may hold several codes when the targets meet in independent branches.
//
// Work happens on the union of the targets' ancestor and descendant
// subgraphs, with a virtual super-root above every root of that union.
// The super-root is never reported; if it is the only common ancestor the
// result is Absent.
func (e *Engine) LowestCommonAncestors(ctx context.Context, targets []string, opts LCAOptions) (Result, error) {
	if err := errors.ValidateCodes("targets", targets); err != nil {
		return Result{}, err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Result{}, err
	}

	valid, unknown := e.resolveTargets(OpLCA, targets)
	if len(valid) == 0 {
		return e.absent(OpLCA, nil, unknown), nil
	}

	work := dag.Union(cone(e.g, valid, dag.Up), cone(e.g, valid, dag.Down))
	ix := dag.NewIndex(work, true)

	var (
		ids []int
		err error
	)
	switch opts.Strategy {
	case StrategyPaths:
		ids, err = lcaByPaths(ctx, work, ix, valid, opts)
	default:
		ids, err = lcaByReachability(ctx, ix, valid)
	}
	if err != nil {
		return Result{}, err
	}

	var codes []string
	for _, id := range ids {
		if id != dag.VirtualRoot {
			codes = append(codes, ix.Name(id))
		}
	}
	if len(codes) == 0 {
		e.logger.Debug("no common ancestor", "targets", valid)
		return e.absent(OpLCA, valid, unknown), nil
	}
	return e.result(OpLCA, valid, unknown, codes), nil
}

// lcaByReachability intersects the inclusive ancestor sets of all targets
// and keeps the members that are not a strict ancestor of another member.
func lcaByReachability(ctx context.Context, ix *dag.Index, targets []string) ([]int, error) {
	var common dag.Bitset
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, _ := ix.ID(t)
		if common == nil {
			common = ix.AncestorsOrSelf(id)
			continue
		}
		common.And(ix.AncestorsOrSelf(id))
	}

	// A member is dominated when it is a strict ancestor of another member.
	dominated := dag.NewBitset(ix.Size())
	common.Each(func(c int) { dominated.Or(ix.Ancestors(c)) })

	var out []int
	common.Each(func(c int) {
		if !dominated.Has(c) {
			out = append(out, c)
		}
	})
	return out, nil
}

// lcaByPaths is the literal path-combination algorithm. Per-target path
// enumeration runs concurrently; everything after the merge is sequential.
func lcaByPaths(ctx context.Context, work *dag.DAG, ix *dag.Index, targets []string, opts LCAOptions) ([]int, error) {
	perTarget := make([][][]int, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			paths, truncated, err := simplePaths(gctx, work, "", t, opts.MaxPaths)
			if err != nil {
				return err
			}
			if truncated {
				return errors.Wrap(errors.ErrCodeLimitExceeded, ErrPathLimit,
					"%s has more than %d paths from the super-root", t, opts.MaxPaths)
			}
			perTarget[i] = arenaPaths(ix, paths)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 1
	for _, paths := range perTarget {
		total *= len(paths)
		if total > opts.MaxCombinations {
			return nil, errors.Wrap(errors.ErrCodeLimitExceeded, ErrPathLimit,
				"more than %d path combinations", opts.MaxCombinations)
		}
	}

	// Membership sets let the combination scan test "node on path" in O(1).
	members := make([][]dag.Bitset, len(perTarget))
	for i, paths := range perTarget {
		members[i] = make([]dag.Bitset, len(paths))
		for j, p := range paths {
			set := dag.NewBitset(ix.Size())
			for _, id := range p {
				set.Set(id)
			}
			members[i][j] = set
		}
	}

	candidates := make(map[int]bool)
	choice := make([]int, len(perTarget))
	for n := 0; n < total; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if c, ok := apparentLCA(perTarget, members, choice); ok {
			candidates[c] = true
		}
		advance(choice, perTarget)
	}

	// Pairwise maximality filter: a candidate with a path to another
	// candidate is not lowest.
	var out []int
	for a := range candidates {
		lowest := true
		for b := range candidates {
			if a != b && reaches(work, ix, a, b) {
				lowest = false
				break
			}
		}
		if lowest {
			out = append(out, a)
		}
	}
	return out, nil
}

// arenaPaths converts root-first code paths into arena ids, prefixed with
// the virtual root.
func arenaPaths(ix *dag.Index, paths [][]string) [][]int {
	out := make([][]int, len(paths))
	for i, p := range paths {
		ids := make([]int, 0, len(p)+1)
		ids = append(ids, dag.VirtualRoot)
		for _, code := range p {
			id, _ := ix.ID(code)
			ids = append(ids, id)
		}
		out[i] = ids
	}
	return out
}

// apparentLCA scans the first chosen path from its target back toward the
// root and returns the first node that lies on every other chosen path.
func apparentLCA(perTarget [][][]int, members [][]dag.Bitset, choice []int) (int, bool) {
	first := perTarget[0][choice[0]]
	for i := len(first) - 1; i >= 0; i-- {
		node := first[i]
		shared := true
		for t := 1; t < len(perTarget); t++ {
			if !members[t][choice[t]].Has(node) {
				shared = false
				break
			}
		}
		if shared {
			return node, true
		}
	}
	return 0, false
}

// advance steps choice to the next combination, odometer style.
func advance(choice []int, perTarget [][][]int) {
	for i := len(choice) - 1; i >= 0; i-- {
		choice[i]++
		if choice[i] < len(perTarget[i]) {
			return
		}
		choice[i] = 0
	}
}

// reaches reports whether a directed path leads from a to b in work. The
// virtual root reaches every real node.
func reaches(work *dag.DAG, ix *dag.Index, a, b int) bool {
	if a == b || b == dag.VirtualRoot {
		return false
	}
	if a == dag.VirtualRoot {
		return true
	}
	from, to := ix.Name(a), ix.Name(b)
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range work.Children(id) {
			if c == to {
				return true
			}
			if !seen[c] {
				seen[c] = true
				stack = append(stack, c)
			}
		}
	}
	return false
}
