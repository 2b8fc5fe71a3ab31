package genealogy

import (
	"context"
	"slices"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
)

// Paths enumerates the simple directed paths from one code down to
// another, listed from → to. At most limit paths are returned (no cap when
// limit <= 0); [Result.Truncated] is set when more exist. Codes holds every
// code on a returned path and [Result.Graph] the union of their edges.
// Unrelated codes give an empty, non-absent result.
func (e *Engine) Paths(ctx context.Context, from, to string, limit int) (Result, error) {
	if err := errors.ValidateCodes("codes", []string{from, to}); err != nil {
		return Result{}, err
	}
	valid, unknown := e.resolveTargets(OpPaths, []string{from, to})
	from, to = NormalizeCode(from), NormalizeCode(to)
	if len(unknown) > 0 {
		return e.absent(OpPaths, valid, unknown), nil
	}

	paths, truncated, err := simplePaths(ctx, e.g, from, to, limit)
	if err != nil {
		return Result{}, err
	}

	sub := dag.New(nil)
	var codes []string
	for _, p := range paths {
		codes = append(codes, p...)
		for i := 1; i < len(p); i++ {
			_ = sub.Connect(p[i-1], p[i])
		}
	}
	res := e.result(OpPaths, valid, nil, codes)
	res.Paths = paths
	res.Truncated = truncated
	res.subgraph = e.labelled(sub)
	return res, nil
}

// simplePaths lists the directed paths ending at to, root-first. When from
// is empty every path starts at a root of g; otherwise it starts at from.
// The walk goes upward from to and only enters codes that can still reach
// from, so every branch completes a path and the limit bounds the work.
// truncated is true when more than limit paths exist (limit <= 0 is no
// cap). The context is checked once per completed path.
func simplePaths(ctx context.Context, g *dag.DAG, from, to string, limit int) (paths [][]string, truncated bool, err error) {
	var allowed map[string]bool
	if from != "" {
		allowed = map[string]bool{from: true}
		for _, d := range expand(g, []string{from}, dag.Down, dag.Unbounded) {
			allowed[d] = true
		}
		if !allowed[to] {
			return nil, false, nil
		}
	}

	// stack holds the walk from to upward.
	stack := []string{to}
	var walk func(id string) bool
	walk = func(id string) bool {
		parents := g.Parents(id)
		if (from == "" && len(parents) == 0) || id == from {
			if limit > 0 && len(paths) == limit {
				truncated = true
				return false
			}
			if err = ctx.Err(); err != nil {
				return false
			}
			p := slices.Clone(stack)
			slices.Reverse(p)
			paths = append(paths, p)
			return true
		}
		for _, parent := range parents {
			if allowed != nil && !allowed[parent] {
				continue
			}
			stack = append(stack, parent)
			ok := walk(parent)
			stack = stack[:len(stack)-1]
			if !ok {
				return false
			}
		}
		return true
	}
	walk(to)
	if err != nil {
		return nil, false, err
	}
	return paths, truncated, nil
}

// labelled copies node metadata from the engine graph into sub so labels
// survive in rendered subgraphs.
func (e *Engine) labelled(sub *dag.DAG) *dag.DAG {
	out := e.g.Induced(sub.NodeIDs())
	return dag.Intersection(out, sub, true)
}
