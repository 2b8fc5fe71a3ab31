package genealogy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/observability"
)

type recordingHooks struct {
	observability.NoopQueryHooks
	started   []string
	completed []string
	errs      []error
}

func (r *recordingHooks) OnQueryStart(_ context.Context, op string, _ int) {
	r.started = append(r.started, op)
}

func (r *recordingHooks) OnQueryComplete(_ context.Context, op string, _, _ int, _ time.Duration, err error) {
	r.completed = append(r.completed, op)
	r.errs = append(r.errs, err)
}

func TestParseOp(t *testing.T) {
	for _, op := range Ops {
		got, err := ParseOp(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	got, err := ParseOp("Lowest_Common_Ancestors")
	require.NoError(t, err)
	assert.Equal(t, OpLCA, got)

	got, err = ParseOp("in_between")
	require.NoError(t, err)
	assert.Equal(t, OpBetween, got)

	_, err = ParseOp("cousins")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidArgument))
}

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		code errors.Code
	}{
		{"valid ancestors", Query{Op: OpAncestors, Codes: []string{"E"}}, ""},
		{"roots without codes", Query{Op: OpRoots}, ""},
		{"unknown op", Query{Op: "cousins", Codes: []string{"E"}}, errors.ErrCodeInvalidArgument},
		{"negative depth", Query{Op: OpAncestors, Codes: []string{"E"}, MaxDepth: -1}, errors.ErrCodeInvalidDepth},
		{"no codes", Query{Op: OpDescendants}, errors.ErrCodeInvalidArgument},
		{"parents takes one", Query{Op: OpParents, Codes: []string{"A", "B"}}, errors.ErrCodeInvalidArgument},
		{"paths takes two", Query{Op: OpPaths, Codes: []string{"A"}}, errors.ErrCodeInvalidArgument},
		{"bad strategy", Query{Op: OpLCA, Codes: []string{"A"}, Strategy: "guess"}, errors.ErrCodeInvalidArgument},
		{"negative limit", Query{Op: OpPaths, Codes: []string{"A", "E"}, Limit: -1}, errors.ErrCodeInvalidArgument},
		{"control char", Query{Op: OpLeaves, Codes: []string{"A\x00"}}, errors.ErrCodeInvalidCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.code, errors.GetCode(err), "got %v", err)
		})
	}
}

func TestRunDispatchesEveryOp(t *testing.T) {
	eng := New(diamond())
	ctx := context.Background()

	tests := []struct {
		q    Query
		want []string
	}{
		{Query{Op: OpParents, Codes: []string{"D"}}, []string{"B", "C"}},
		{Query{Op: OpChildren, Codes: []string{"A"}}, []string{"B", "C"}},
		{Query{Op: OpSiblings, Codes: []string{"B"}}, []string{"C"}},
		{Query{Op: OpAncestors, Codes: []string{"E"}, MaxDepth: 2}, []string{"B", "C", "D"}},
		{Query{Op: OpDescendants, Codes: []string{"B"}}, []string{"D", "E"}},
		{Query{Op: OpLCA, Codes: []string{"B", "C"}, Strategy: StrategyPaths}, []string{"A"}},
		{Query{Op: OpFamily, Codes: []string{"D"}, MaxDepth: DefaultFamilyDepth}, []string{"B", "C", "D", "E"}},
		{Query{Op: OpBetween, Codes: []string{"B", "E"}}, []string{"B", "D", "E"}},
		{Query{Op: OpRoots}, []string{"A"}},
		{Query{Op: OpLeaves, Codes: []string{"C"}}, []string{"E"}},
		{Query{Op: OpPaths, Codes: []string{"B", "E"}}, []string{"B", "D", "E"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.q.Op), func(t *testing.T) {
			res, err := eng.Run(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.q.Op, res.Op)
			assert.Equal(t, tt.want, res.Codes)
		})
	}
}

func TestRunCallsQueryHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetQueryHooks(hooks)
	defer observability.Reset()

	eng := New(diamond())
	_, err := eng.Run(context.Background(), Query{Op: "ANCESTORS", Codes: []string{"E"}})
	require.NoError(t, err)
	_, err = eng.Run(context.Background(), Query{Op: OpAncestors, Codes: []string{"E"}, MaxDepth: -2})
	require.Error(t, err)

	assert.Equal(t, []string{"ancestors", "ancestors"}, hooks.started)
	assert.Equal(t, []string{"ancestors", "ancestors"}, hooks.completed)
	assert.NoError(t, hooks.errs[0])
	assert.True(t, errors.Is(hooks.errs[1], errors.ErrCodeInvalidDepth))
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(diamond()).Run(ctx, Query{Op: OpParents, Codes: []string{"D"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineLCADefaults(t *testing.T) {
	eng := New(diamond(), WithLCAOptions(LCAOptions{Strategy: StrategyPaths, MaxPaths: 1}))

	_, err := eng.Run(context.Background(), Query{Op: OpLCA, Codes: []string{"E", "D"}})
	assert.True(t, errors.Is(err, errors.ErrCodeLimitExceeded), "got %v", err)

	res, err := eng.Run(context.Background(), Query{Op: OpLCA, Codes: []string{"E", "D"}, Strategy: StrategyReachability})
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, res.Codes)
}
