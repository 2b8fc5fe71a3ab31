package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/genealogy"
	"github.com/matzehuels/lineage/pkg/pipeline"
	"github.com/matzehuels/lineage/pkg/render"
)

// queryOpts holds the flags shared by every query command.
type queryOpts struct {
	shape    string // codes, edgelist or graph (default from config)
	format   string // text, json, dot or svg (default from config)
	output   string // write to a file instead of stdout
	detailed bool   // label DOT/SVG nodes with every metadata field
	maxDepth int    // ancestors, descendants, family
	strategy string // lca
	limit    int    // paths
}

// opSpec describes one query command.
type opSpec struct {
	op    genealogy.Op
	use   string
	short string
	long  string
	args  cobra.PositionalArgs

	depth    bool // accepts --max-depth
	strategy bool // accepts --strategy
	limit    bool // accepts --limit
}

var opSpecs = []opSpec{
	{
		op:    genealogy.OpParents,
		use:   "parents <code>",
		short: "List the direct parents of a code",
		args:  cobra.ExactArgs(1),
	},
	{
		op:    genealogy.OpChildren,
		use:   "children <code>",
		short: "List the direct children of a code",
		args:  cobra.ExactArgs(1),
	},
	{
		op:    genealogy.OpSiblings,
		use:   "siblings <code>",
		short: "List codes that share a parent with a code",
		args:  cobra.ExactArgs(1),
	},
	{
		op:    genealogy.OpAncestors,
		use:   "ancestors <code>...",
		short: "List every ancestor of the given codes",
		long: `List every ancestor of the given codes.

With --max-depth N only ancestors within N generations of a code are listed.
Without it the walk goes up to the roots.`,
		args:  cobra.MinimumNArgs(1),
		depth: true,
	},
	{
		op:    genealogy.OpDescendants,
		use:   "descendants <code>...",
		short: "List every descendant of the given codes",
		args:  cobra.MinimumNArgs(1),
		depth: true,
	},
	{
		op:    genealogy.OpLCA,
		use:   "lca <code>...",
		short: "Find the lowest common ancestors of the given codes",
		long: `Find the lowest common ancestors of the given codes: the common ancestors
that are not above another common ancestor. Codes that meet in independent
branches can have several.

The reachability strategy (default) answers from an ancestor index. The paths
strategy enumerates root-to-code paths and is bounded by enumeration limits.`,
		args:     cobra.MinimumNArgs(1),
		strategy: true,
	},
	{
		op:    genealogy.OpFamily,
		use:   "family <code>...",
		short: "Show the complete family of the given codes",
		long: `Show the complete family of the given codes: the codes, their ancestors up
to --max-depth generations (default 1) and everything below that set.
--max-depth 0 skips the ancestors.`,
		args:  cobra.MinimumNArgs(1),
		depth: true,
	},
	{
		op:    genealogy.OpBetween,
		use:   "between <code>...",
		short: "Show the graph connecting related codes",
		args:  cobra.MinimumNArgs(1),
	},
	{
		op:    genealogy.OpRoots,
		use:   "roots [code]...",
		short: "List roots of the graph, or the roots above the given codes",
		args:  cobra.ArbitraryArgs,
	},
	{
		op:    genealogy.OpLeaves,
		use:   "leaves [code]...",
		short: "List leaves of the graph, or the leaves below the given codes",
		args:  cobra.ArbitraryArgs,
	},
	{
		op:    genealogy.OpPaths,
		use:   "paths <from> <to>",
		short: "List the paths leading from one code down to another",
		args:  cobra.ExactArgs(2),
		limit: true,
	},
}

// queryCommands creates one command per genealogy operation.
func (c *CLI) queryCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, len(opSpecs))
	for i, def := range opSpecs {
		cmds[i] = c.queryCommand(def)
	}
	return cmds
}

func (c *CLI) queryCommand(def opSpec) *cobra.Command {
	var opts queryOpts

	cmd := &cobra.Command{
		Use:               def.use,
		Short:             def.short,
		Long:              def.long,
		Args:              def.args,
		GroupID:           groupQuery,
		ValidArgsFunction: c.completeCodes,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(cmd, def, args, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.shape, "shape", "", "result shape: codes, edgelist or graph")
	f.StringVarP(&opts.format, "format", "f", "", "output format: text, json, dot or svg")
	f.StringVarP(&opts.output, "output", "o", "", "write the result to a file")
	f.BoolVar(&opts.detailed, "detailed", false, "show node metadata in dot/svg output")
	if def.depth {
		f.IntVarP(&opts.maxDepth, "max-depth", "d", 0, "generations to follow (must be at least 1; 0 allowed for family)")
	}
	if def.strategy {
		f.StringVar(&opts.strategy, "strategy", "", "LCA strategy: reachability or paths")
	}
	if def.limit {
		f.IntVar(&opts.limit, "limit", 0, "maximum number of paths to list")
	}
	return cmd
}

// buildRequest turns flags and config defaults into a validated request.
func (c *CLI) buildRequest(cmd *cobra.Command, def opSpec, codes []string, opts *queryOpts) (pipeline.Request, string, error) {
	defaults := c.Config.Defaults

	format := opts.format
	if format == "" {
		format = defaults.Format
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return pipeline.Request{}, "", err
	}

	shape := opts.shape
	if shape == "" {
		shape = defaults.Shape
	}
	if pipeline.NeedsGraph(format) {
		shape = string(genealogy.ShapeGraph)
	}

	req := pipeline.Request{
		Query:   genealogy.Query{Op: def.op, Codes: codes},
		Shape:   genealogy.Shape(shape),
		Refresh: c.refresh,
	}

	if def.depth {
		if cmd.Flags().Changed("max-depth") {
			if def.op != genealogy.OpFamily {
				if err := errors.ValidateMaxDepth(opts.maxDepth); err != nil {
					return req, "", err
				}
			}
			req.Query.MaxDepth = opts.maxDepth
		} else if def.op == genealogy.OpFamily {
			req.Query.MaxDepth = defaults.familyDepth()
		}
	}
	if def.strategy {
		strategy := opts.strategy
		if strategy == "" {
			strategy = defaults.Strategy
		}
		req.Query.Strategy = genealogy.Strategy(strategy)
	}
	if def.limit {
		req.Query.Limit = defaults.MaxPaths
		if cmd.Flags().Changed("limit") {
			req.Query.Limit = opts.limit
		}
	}

	if err := req.ValidateAndSetDefaults(); err != nil {
		return req, "", err
	}
	return req, format, nil
}

func (c *CLI) runQuery(cmd *cobra.Command, def opSpec, codes []string, opts *queryOpts) error {
	ctx := cmd.Context()

	req, format, err := c.buildRequest(cmd, def, codes, opts)
	if err != nil {
		return err
	}

	runner, ch, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	snap, err := c.loadSnapshot(ctx, runner)
	if err != nil {
		return err
	}

	res, err := runner.Query(ctx, snap, req)
	if err != nil {
		return err
	}
	resp := res.Response
	for _, code := range resp.Unknown {
		printWarning("unknown code: %s", code)
	}
	c.Logger.Debug("query done",
		"op", resp.Op,
		"codes", len(resp.Codes),
		"absent", resp.Absent,
		"cached", res.CacheInfo.QueryHit,
		"took", res.Stats.QueryTime)

	data, err := pipeline.Render(ctx, resp, format, render.Options{Detailed: opts.detailed})
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("%s", pipeline.Title(resp))
	printFile(opts.output)
	printStats(len(resp.Codes), snap.NodeCount(), res.CacheInfo.QueryHit)
	return nil
}

// loadSnapshot loads the configured sources into a unified graph, showing
// a spinner while it works.
func (c *CLI) loadSnapshot(ctx context.Context, runner *pipeline.Runner) (*pipeline.Snapshot, error) {
	spinner := newSpinnerWithContext(ctx, "Loading classifications...")
	spinner.Start()
	prog := newProgress(c.Logger)

	snap, hit, err := runner.LoadSnapshot(ctx, c.Config.Sources, c.refresh)
	spinner.Stop()
	if err != nil {
		return nil, err
	}

	prog.done(fmt.Sprintf("Unified %d codes from %s (cached: %v)",
		snap.NodeCount(), strings.Join(snap.Classifications, ", "), hit))
	return snap, nil
}
