package genealogy

import (
	"cmp"
	"slices"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
)

// Ancestors returns every code above the targets, excluding the targets
// themselves.
//
// Depth is measured per path: with maxDepth = k a code is kept if it is
// one of the k nearest predecessors of a target on at least one
// root-to-target path. k = 1 gives the parents, k = 2 parents and
// grandparents, and so on. A code that is one hop above a target on one
// path and three hops on another is kept for every k >= 1.
//
// maxDepth = [dag.Unbounded] keeps every proper ancestor; a negative value
// is an INVALID_DEPTH error. Unknown targets are dropped and listed in
// [Result.Unknown]; if none remain the result is Absent.
func (e *Engine) Ancestors(targets []string, maxDepth int) (Result, error) {
	return e.traverse(OpAncestors, targets, dag.Up, maxDepth)
}

// Descendants is the downward mirror of [Engine.Ancestors]: with
// maxDepth = k a code is kept if it is one of the k nearest successors of
// a target on at least one target-to-leaf path.
func (e *Engine) Descendants(targets []string, maxDepth int) (Result, error) {
	return e.traverse(OpDescendants, targets, dag.Down, maxDepth)
}

func (e *Engine) traverse(op Op, targets []string, dir dag.Direction, maxDepth int) (Result, error) {
	if err := errors.ValidateCodes("targets", targets); err != nil {
		return Result{}, err
	}
	if maxDepth < 0 {
		return Result{}, errors.ValidateMaxDepth(maxDepth)
	}

	valid, unknown := e.resolveTargets(op, targets)
	if len(valid) == 0 {
		return e.absent(op, nil, unknown), nil
	}

	var codes []string
	if dir == dag.Down && maxDepth == dag.Unbounded {
		codes = e.descendantsByCoverage(valid)
	} else {
		codes = expand(e.g, valid, dir, maxDepth)
	}
	return e.result(op, valid, unknown, codes), nil
}

// expand runs a breadth-first search from all targets at once, layered by
// hop count, and returns every code first reached within maxDepth hops
// (all reachable codes when maxDepth is [dag.Unbounded]). BFS reaches each
// code at its shortest distance from any target, and a code sits within
// the k nearest positions of some root-to-target path exactly when such a
// shortest distance is at most k, so no path is ever materialized.
// Targets are never part of the result.
func expand(g *dag.DAG, targets []string, dir dag.Direction, maxDepth int) []string {
	isTarget := make(map[string]bool, len(targets))
	visited := make(map[string]bool, len(targets))
	frontier := make([]string, 0, len(targets))
	for _, t := range targets {
		isTarget[t] = true
		if !visited[t] {
			visited[t] = true
			frontier = append(frontier, t)
		}
	}

	var out []string
	for depth := 1; len(frontier) > 0; depth++ {
		if maxDepth != dag.Unbounded && depth > maxDepth {
			break
		}
		var next []string
		for _, id := range frontier {
			for _, nb := range g.Neighbors(id, dir) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				next = append(next, nb)
				if !isTarget[nb] {
					out = append(out, nb)
				}
			}
		}
		frontier = next
	}
	return out
}

// descendantsByCoverage computes unbounded descendants target by target,
// starting with the target closest to a root. Once a target's expansion is
// known, any later target already inside it is skipped: its descendants
// are a subset of what was collected.
func (e *Engine) descendantsByCoverage(targets []string) []string {
	depths := e.g.Depths()
	ordered := slices.Clone(targets)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return cmp.Compare(depths[a], depths[b])
	})

	isTarget := make(map[string]bool, len(targets))
	for _, t := range targets {
		isTarget[t] = true
	}

	covered := make(map[string]bool)
	var out []string
	for _, t := range ordered {
		if covered[t] {
			continue
		}
		covered[t] = true
		stack := []string{t}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, child := range e.g.Children(id) {
				if covered[child] {
					continue
				}
				covered[child] = true
				stack = append(stack, child)
				if !isTarget[child] {
					out = append(out, child)
				}
			}
		}
	}
	return out
}

// cone returns the induced subgraph of targets plus all their ancestors
// (dir = Up) or descendants (dir = Down).
func cone(g *dag.DAG, targets []string, dir dag.Direction) *dag.DAG {
	return g.Induced(append(slices.Clone(targets), expand(g, targets, dir, dag.Unbounded)...))
}
