package genealogy

import (
	"slices"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
)

// CompleteFamily returns the targets, their ancestors up to maxDepth, and
// every descendant of that extended set, as an induced subgraph. With the
// usual depth of 1 this is the targets with their parents, siblings,
// cousins and everything below them. maxDepth = 0 skips the ancestor
// expansion; a negative value is an INVALID_DEPTH error.
//
// Codes includes the targets themselves.
func (e *Engine) CompleteFamily(targets []string, maxDepth int) (Result, error) {
	if err := errors.ValidateCodes("targets", targets); err != nil {
		return Result{}, err
	}
	if maxDepth < 0 {
		return Result{}, errors.New(errors.ErrCodeInvalidDepth, "family depth cannot be negative, got %d", maxDepth)
	}

	valid, unknown := e.resolveTargets(OpFamily, targets)
	if len(valid) == 0 {
		return e.absent(OpFamily, nil, unknown), nil
	}

	extended := slices.Clone(valid)
	if maxDepth > 0 {
		extended = append(extended, expand(e.g, valid, dag.Up, maxDepth)...)
	}
	codes := append(slices.Clone(extended), expand(e.g, extended, dag.Down, dag.Unbounded)...)

	res := e.result(OpFamily, valid, unknown, codes)
	res.subgraph = e.g.Induced(res.Codes)
	return res, nil
}

// InBetween returns the edges that lie both in the targets' ancestor
// subgraph and in their descendant subgraph: the connective tissue between
// related targets. Unrelated targets, or a single one, give an empty
// result.
func (e *Engine) InBetween(targets []string) (Result, error) {
	if err := errors.ValidateCodes("targets", targets); err != nil {
		return Result{}, err
	}

	valid, unknown := e.resolveTargets(OpBetween, targets)
	if len(valid) == 0 {
		return e.absent(OpBetween, nil, unknown), nil
	}

	sub := dag.Intersection(cone(e.g, valid, dag.Up), cone(e.g, valid, dag.Down), false)
	res := e.result(OpBetween, valid, unknown, sub.NodeIDs())
	res.subgraph = sub
	return res, nil
}

// Roots returns the roots of the graph, or, when targets are given, the
// roots above them (targets that have no parents included).
func (e *Engine) Roots(targets []string) (Result, error) {
	return e.extrema(OpRoots, targets, dag.Up)
}

// Leaves returns the leaves of the graph, or, when targets are given, the
// leaves below them (targets that have no children included).
func (e *Engine) Leaves(targets []string) (Result, error) {
	return e.extrema(OpLeaves, targets, dag.Down)
}

func (e *Engine) extrema(op Op, targets []string, dir dag.Direction) (Result, error) {
	if len(targets) == 0 {
		if dir == dag.Up {
			return e.result(op, nil, nil, e.g.Roots()), nil
		}
		return e.result(op, nil, nil, e.g.Leaves()), nil
	}
	if err := errors.ValidateCodes("targets", targets); err != nil {
		return Result{}, err
	}

	valid, unknown := e.resolveTargets(op, targets)
	if len(valid) == 0 {
		return e.absent(op, nil, unknown), nil
	}

	var codes []string
	for _, id := range append(slices.Clone(valid), expand(e.g, valid, dir, dag.Unbounded)...) {
		if len(e.g.Neighbors(id, dir)) == 0 {
			codes = append(codes, id)
		}
	}
	return e.result(op, valid, unknown, codes), nil
}
