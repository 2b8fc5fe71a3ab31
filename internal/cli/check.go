package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/errors"
)

// checkCommand reports graph statistics and fails on cycles, which the
// query engine does not support.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		Short:   "Report statistics of the unified graph and detect cycles",
		Args:    cobra.NoArgs,
		GroupID: groupData,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, ch, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer ch.Close()

			snap, err := c.loadSnapshot(ctx, runner)
			if err != nil {
				return err
			}
			g := snap.Graph

			printKeyValue("classifications", strings.Join(snap.Classifications, ", "))
			printKeyValue("codes", strconv.Itoa(g.NodeCount()))
			printKeyValue("relations", strconv.Itoa(g.EdgeCount()))
			printKeyValue("roots", strconv.Itoa(len(g.Roots())))
			printKeyValue("leaves", strconv.Itoa(len(g.Leaves())))
			printKeyValue("digest", snap.Digest[:12])

			back := g.BackEdges()
			if len(back) == 0 {
				printSuccess("No cycles")
				return nil
			}
			for _, e := range back {
				printWarning("cycle closed by %s -> %s", e.From, e.To)
			}
			return errors.New(errors.ErrCodeInvalidArgument,
				"graph has %d cycle-closing relations; queries on cyclic input are undefined", len(back))
		},
	}
}
