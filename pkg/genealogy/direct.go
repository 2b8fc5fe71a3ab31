package genealogy

import (
	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
)

// Parents returns the codes one hop above code. It is the same answer as
// Ancestors with a depth of 1 without running a traversal.
func (e *Engine) Parents(code string) (Result, error) {
	return e.direct(OpParents, code, dag.Up)
}

// Children returns the codes one hop below code.
func (e *Engine) Children(code string) (Result, error) {
	return e.direct(OpChildren, code, dag.Down)
}

// Siblings returns the children of code's parents, without code itself.
// A code with no parents has no siblings; that is an empty result, not an
// absent one. Parents and children are looked up in the same graph.
func (e *Engine) Siblings(code string) (Result, error) {
	target, res, ok, err := e.single(OpSiblings, code)
	if !ok {
		return res, err
	}

	var codes []string
	for _, p := range e.g.Parents(target) {
		for _, c := range e.g.Children(p) {
			if c != target {
				codes = append(codes, c)
			}
		}
	}
	return e.result(OpSiblings, []string{target}, nil, codes), nil
}

func (e *Engine) direct(op Op, code string, dir dag.Direction) (Result, error) {
	target, res, ok, err := e.single(op, code)
	if !ok {
		return res, err
	}
	return e.result(op, []string{target}, nil, e.g.Neighbors(target, dir)), nil
}

// single validates and resolves a one-code query. ok is false when the
// caller must return (res, err) as is.
func (e *Engine) single(op Op, code string) (target string, res Result, ok bool, err error) {
	if err := errors.ValidateCode(NormalizeCode(code)); err != nil {
		return "", Result{}, false, err
	}
	valid, unknown := e.resolveTargets(op, []string{code})
	if len(valid) == 0 {
		return "", e.absent(op, nil, unknown), false, nil
	}
	return valid[0], Result{}, true, nil
}
