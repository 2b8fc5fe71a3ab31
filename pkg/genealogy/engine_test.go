package genealogy

import (
	"bytes"
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
)

// diamond: A→B, A→C, B→D, C→D, D→E.
func diamond() *dag.DAG {
	return dag.Build([]dag.Edge{
		{From: "A", To: "B"},
		{From: "A", To: "C"},
		{From: "B", To: "D"},
		{From: "C", To: "D"},
		{From: "D", To: "E"},
	})
}

// forest: X→Y and Z→W, no shared ancestor.
func forest() *dag.DAG {
	return dag.Build([]dag.Edge{{From: "X", To: "Y"}, {From: "Z", To: "W"}})
}

// crossed: two parents P and Q shared by two children X and Y.
func crossed() *dag.DAG {
	return dag.Build([]dag.Edge{
		{From: "R", To: "P"},
		{From: "R", To: "Q"},
		{From: "P", To: "X"},
		{From: "Q", To: "X"},
		{From: "P", To: "Y"},
		{From: "Q", To: "Y"},
	})
}

func TestAncestorsDiamond(t *testing.T) {
	eng := New(diamond())

	res, err := eng.Ancestors([]string{"E"}, dag.Unbounded)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, res.Codes)
	assert.False(t, res.Absent)

	res, err = eng.Ancestors([]string{"D"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, res.Codes)

	res, err = eng.Descendants([]string{"A"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, res.Codes)

	res, err = eng.Descendants([]string{"A"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D"}, res.Codes)
}

func TestAncestorsPerPathDepth(t *testing.T) {
	// T is one hop below R directly and three hops below it via P1, P2.
	g := dag.Build([]dag.Edge{
		{From: "R", To: "P1"},
		{From: "P1", To: "P2"},
		{From: "P2", To: "T"},
		{From: "R", To: "T"},
	})
	eng := New(g)

	tests := []struct {
		depth int
		want  []string
	}{
		{1, []string{"P2", "R"}},
		{2, []string{"P1", "P2", "R"}},
		{3, []string{"P1", "P2", "R"}},
		{dag.Unbounded, []string{"P1", "P2", "R"}},
	}
	for _, tt := range tests {
		res, err := eng.Ancestors([]string{"T"}, tt.depth)
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Codes, "depth %d", tt.depth)
	}

	res, err := eng.Descendants([]string{"R"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "T"}, res.Codes)
}

func TestTraversalExcludesTargets(t *testing.T) {
	eng := New(diamond())

	res, err := eng.Ancestors([]string{"B", "D"}, dag.Unbounded)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, res.Codes)

	res, err = eng.Descendants([]string{"D", "A"}, dag.Unbounded)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "E"}, res.Codes)

	res, err = eng.Descendants([]string{"B", "C"}, dag.Unbounded)
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "E"}, res.Codes)
}

func TestTraversalValidation(t *testing.T) {
	eng := New(diamond())

	_, err := eng.Ancestors([]string{"E"}, -1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDepth), "got %v", err)

	_, err = eng.Descendants(nil, dag.Unbounded)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidArgument), "got %v", err)

	_, err = eng.Ancestors([]string{"E", ""}, dag.Unbounded)
	assert.True(t, errors.IsInvalid(err), "got %v", err)
}

func TestUnknownCodes(t *testing.T) {
	var buf bytes.Buffer
	eng := New(diamond(), WithLogger(log.New(&buf)))

	res, err := eng.Ancestors([]string{"Z"}, dag.Unbounded)
	require.NoError(t, err)
	assert.True(t, res.Absent)
	assert.Equal(t, []string{"Z"}, res.Unknown)
	assert.Empty(t, res.Codes)
	assert.Contains(t, buf.String(), "unknown code")

	res, err = eng.Ancestors([]string{"E", "Z"}, dag.Unbounded)
	require.NoError(t, err)
	assert.False(t, res.Absent)
	assert.True(t, res.Degraded())
	assert.Equal(t, []string{"A", "B", "C", "D"}, res.Codes)
	assert.Equal(t, []string{"E"}, res.Targets)
}

func TestEmptyIsNotAbsent(t *testing.T) {
	eng := New(diamond())

	res, err := eng.Ancestors([]string{"A"}, dag.Unbounded)
	require.NoError(t, err)
	assert.False(t, res.Absent)
	assert.True(t, res.Empty())

	res, err = eng.Parents("Z")
	require.NoError(t, err)
	assert.True(t, res.Absent)
}

func TestNormalizeCode(t *testing.T) {
	eng := New(dag.Build([]dag.Edge{{From: "007", To: "0071"}}))

	res, err := eng.Parents(" 0071 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"007"}, res.Codes)

	res, err = eng.Children("7")
	require.NoError(t, err)
	assert.True(t, res.Absent, "7 and 007 are different codes")
}

func TestRelationSymmetry(t *testing.T) {
	g := diamond()
	eng := New(g)
	for _, e := range g.Edges() {
		children, err := eng.Children(e.From)
		require.NoError(t, err)
		assert.Contains(t, children.Codes, e.To)

		parents, err := eng.Parents(e.To)
		require.NoError(t, err)
		assert.Contains(t, parents.Codes, e.From)
	}
}

func TestAncestorsAndDescendantsDisjoint(t *testing.T) {
	for _, g := range []*dag.DAG{diamond(), forest(), crossed()} {
		eng := New(g)
		for _, x := range g.NodeIDs() {
			anc, err := eng.Ancestors([]string{x}, dag.Unbounded)
			require.NoError(t, err)
			desc, err := eng.Descendants([]string{x}, dag.Unbounded)
			require.NoError(t, err)
			for _, c := range anc.Codes {
				assert.NotContains(t, desc.Codes, c, "%s is both above and below %s", c, x)
			}
		}
	}
}

func TestAncestorsDepthOneAreParents(t *testing.T) {
	for _, g := range []*dag.DAG{diamond(), forest(), crossed()} {
		eng := New(g)
		for _, x := range g.NodeIDs() {
			anc, err := eng.Ancestors([]string{x}, 1)
			require.NoError(t, err)
			parents, err := eng.Parents(x)
			require.NoError(t, err)
			assert.Equal(t, parents.Codes, anc.Codes, "code %s", x)
		}
	}
}

func TestSiblings(t *testing.T) {
	eng := New(diamond())

	tests := []struct {
		code string
		want []string
	}{
		{"D", nil},
		{"B", []string{"C"}},
		{"C", []string{"B"}},
		{"A", nil},
	}
	for _, tt := range tests {
		res, err := eng.Siblings(tt.code)
		require.NoError(t, err)
		assert.False(t, res.Absent)
		assert.Equal(t, tt.want, res.Codes, "siblings of %s", tt.code)
		assert.NotContains(t, res.Codes, tt.code)
	}

	for _, x := range crossed().NodeIDs() {
		res, err := New(crossed()).Siblings(x)
		require.NoError(t, err)
		assert.NotContains(t, res.Codes, x)
	}
}

func TestLowestCommonAncestors(t *testing.T) {
	tests := []struct {
		name    string
		g       *dag.DAG
		targets []string
		want    []string
		absent  bool
	}{
		{"siblings", diamond(), []string{"B", "C"}, []string{"A"}, false},
		{"target is ancestor", diamond(), []string{"D", "E"}, []string{"D"}, false},
		{"single target", diamond(), []string{"C"}, []string{"C"}, false},
		{"root and leaf", diamond(), []string{"A", "E"}, []string{"A"}, false},
		{"disconnected", forest(), []string{"Y", "W"}, nil, true},
		{"two branches", crossed(), []string{"X", "Y"}, []string{"P", "Q"}, false},
		{"with unknown", diamond(), []string{"B", "C", "nope"}, []string{"A"}, false},
	}
	for _, strategy := range []Strategy{StrategyReachability, StrategyPaths} {
		for _, tt := range tests {
			t.Run(string(strategy)+"/"+tt.name, func(t *testing.T) {
				res, err := New(tt.g).LowestCommonAncestors(context.Background(), tt.targets, LCAOptions{Strategy: strategy})
				require.NoError(t, err)
				assert.Equal(t, tt.absent, res.Absent)
				assert.Equal(t, tt.want, res.Codes)
			})
		}
	}
}

func TestLowestCommonAncestorsAntichain(t *testing.T) {
	g := dag.Build([]dag.Edge{
		{From: "R", To: "A"}, {From: "R", To: "B"},
		{From: "A", To: "C"}, {From: "B", To: "C"},
		{From: "A", To: "D"}, {From: "B", To: "D"},
		{From: "C", To: "E"}, {From: "D", To: "F"},
		{From: "R", To: "F"},
	})
	ix := dag.NewIndex(g, false)
	eng := New(g)

	for _, targets := range [][]string{{"E", "F"}, {"C", "D"}, {"E", "D"}, {"A", "F"}} {
		for _, strategy := range []Strategy{StrategyReachability, StrategyPaths} {
			res, err := eng.LowestCommonAncestors(context.Background(), targets, LCAOptions{Strategy: strategy})
			require.NoError(t, err)
			require.NotEmpty(t, res.Codes)
			for _, a := range res.Codes {
				for _, b := range res.Codes {
					ia, _ := ix.ID(a)
					ib, _ := ix.ID(b)
					assert.False(t, ix.IsAncestor(ia, ib), "%s is an ancestor of %s in LCA(%v)", a, b, targets)
				}
			}
		}
	}
}

func TestLowestCommonAncestorsStrategiesAgree(t *testing.T) {
	g := crossed()
	eng := New(g)
	ids := g.NodeIDs()
	for _, a := range ids {
		for _, b := range ids {
			fast, err := eng.LowestCommonAncestors(context.Background(), []string{a, b}, LCAOptions{})
			require.NoError(t, err)
			slow, err := eng.LowestCommonAncestors(context.Background(), []string{a, b}, LCAOptions{Strategy: StrategyPaths})
			require.NoError(t, err)
			assert.Equal(t, fast.Codes, slow.Codes, "LCA(%s, %s)", a, b)
		}
	}
}

func TestLowestCommonAncestorsLimits(t *testing.T) {
	eng := New(diamond())

	_, err := eng.LowestCommonAncestors(context.Background(), []string{"E", "D"},
		LCAOptions{Strategy: StrategyPaths, MaxPaths: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeLimitExceeded))
	assert.True(t, stderrors.Is(err, ErrPathLimit))

	_, err = eng.LowestCommonAncestors(context.Background(), []string{"E", "D"},
		LCAOptions{Strategy: StrategyPaths, MaxCombinations: 3})
	assert.True(t, stderrors.Is(err, ErrPathLimit), "got %v", err)

	_, err = eng.LowestCommonAncestors(context.Background(), []string{"E"}, LCAOptions{Strategy: "fastest"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidArgument))
}

func TestLowestCommonAncestorsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, strategy := range []Strategy{StrategyReachability, StrategyPaths} {
		_, err := New(diamond()).LowestCommonAncestors(ctx, []string{"B", "C"}, LCAOptions{Strategy: strategy})
		assert.ErrorIs(t, err, context.Canceled, "strategy %s", strategy)
	}
}

func TestCompleteFamily(t *testing.T) {
	g := diamond()
	eng := New(g)

	res, err := eng.CompleteFamily([]string{"D"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "E"}, res.Codes)

	res, err = eng.CompleteFamily([]string{"D"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D", "E"}, res.Codes)
	assert.Equal(t, 3, res.Graph().EdgeCount())

	res, err = eng.CompleteFamily([]string{"B"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, res.Codes)
	assert.True(t, dag.Equal(g, res.Graph()))

	_, err = eng.CompleteFamily([]string{"B"}, -1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDepth))
}

func TestCompleteFamilyWithoutExpansion(t *testing.T) {
	for _, g := range []*dag.DAG{diamond(), crossed()} {
		eng := New(g)
		for _, x := range g.NodeIDs() {
			fam, err := eng.CompleteFamily([]string{x}, 0)
			require.NoError(t, err)
			desc, err := eng.Descendants([]string{x}, dag.Unbounded)
			require.NoError(t, err)
			assert.Equal(t, union(desc.Codes, []string{x}), fam.Codes, "code %s", x)
		}
	}
}

func TestInBetween(t *testing.T) {
	eng := New(diamond())

	res, err := eng.InBetween([]string{"B", "E"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "E"}, res.Codes)
	assert.ElementsMatch(t, []dag.Edge{{From: "B", To: "D"}, {From: "D", To: "E"}}, res.EdgeList())

	res, err = eng.InBetween([]string{"A", "E"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, res.Codes)

	res, err = eng.InBetween([]string{"B", "C"})
	require.NoError(t, err)
	assert.False(t, res.Absent)
	assert.True(t, res.Empty())
}

func TestRootsAndLeaves(t *testing.T) {
	eng := New(dag.Union(diamond(), forest()))

	res, err := eng.Roots(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "X", "Z"}, res.Codes)

	res, err = eng.Roots([]string{"E", "Y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "X"}, res.Codes)

	res, err = eng.Roots([]string{"A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, res.Codes)

	res, err = eng.Leaves([]string{"B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, res.Codes)

	res, err = eng.Leaves(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"E", "W", "Y"}, res.Codes)
}

func TestPaths(t *testing.T) {
	eng := New(diamond())
	ctx := context.Background()

	res, err := eng.Paths(ctx, "A", "E", 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B", "D", "E"}, {"A", "C", "D", "E"}}, res.Paths)
	assert.False(t, res.Truncated)
	assert.Equal(t, 5, res.Graph().EdgeCount())

	res, err = eng.Paths(ctx, "A", "E", 1)
	require.NoError(t, err)
	assert.Len(t, res.Paths, 1)
	assert.True(t, res.Truncated)
	assert.Equal(t, 3, res.Graph().EdgeCount())

	res, err = eng.Paths(ctx, "B", "C", 0)
	require.NoError(t, err)
	assert.Empty(t, res.Paths)
	assert.False(t, res.Absent)

	res, err = eng.Paths(ctx, "A", "nope", 0)
	require.NoError(t, err)
	assert.True(t, res.Absent)
}

func TestResultShapes(t *testing.T) {
	eng := New(diamond())

	res, err := eng.Ancestors([]string{"D"}, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []dag.Edge{{From: "B", To: "D"}, {From: "C", To: "D"}}, res.EdgeList())
	assert.Equal(t, 3, res.Graph().NodeCount())

	absent, err := eng.Ancestors([]string{"nope"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, absent.Graph().NodeCount())
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		in      string
		want    Shape
		wantErr bool
	}{
		{"", ShapeCodes, false},
		{"codes", ShapeCodes, false},
		{"codes_only", ShapeCodes, false},
		{"EdgeList", ShapeEdgeList, false},
		{"graph", ShapeGraph, false},
		{"tree", "", true},
	}
	for _, tt := range tests {
		got, err := ParseShape(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidShape), "ParseShape(%q)", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestConcurrentQueries(t *testing.T) {
	eng := New(crossed())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := eng.LowestCommonAncestors(context.Background(), []string{"X", "Y"}, LCAOptions{})
			assert.NoError(t, err)
			assert.Equal(t, []string{"P", "Q"}, res.Codes)
		}()
	}
	wg.Wait()
}
