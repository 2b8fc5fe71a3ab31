package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/observability"
	"github.com/matzehuels/lineage/pkg/server"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve genealogy queries over HTTP",
		Long: `Serve genealogy queries over HTTP.

Every query command is available as GET /v1/<command>?code=...; see
GET /v1/classifications for the loaded data and /metrics for Prometheus.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+server.DefaultAddr+")")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewPrometheus(reg)
	observability.SetQueryHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)

	runner, ch, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	spinner := newSpinnerWithContext(ctx, "Loading classifications...")
	spinner.Start()
	repo, err := runner.LoadRepository(ctx, c.Config.Sources)
	spinner.Stop()
	if err != nil {
		return err
	}

	srv := server.New(runner, repo,
		server.WithLogger(c.Logger),
		server.WithGatherer(reg))

	printSuccess("Loaded %d classifications", repo.Len())
	printInfo("Listening on %s", StyleHighlight.Render("http://"+addr))
	printDetail("Try: curl 'http://%s/v1/roots'", addr)
	return srv.ListenAndServe(ctx, addr)
}
