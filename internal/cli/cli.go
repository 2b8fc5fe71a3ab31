package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/buildinfo"
	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "lineage"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config Config

	configPath string
	files      []string
	sqlite     string
	only       []string
	noCache    bool
	refresh    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Lineage answers genealogy queries over hierarchical classifications",
		Long: `Lineage loads one or more hierarchical classifications (ICD, ATC, NACE, ...)
into a single graph and answers genealogy questions about their codes:
parents, ancestors, lowest common ancestors, complete families and the paths
that connect them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/lineage/config.toml)")
	pf.StringSliceVarP(&c.files, "classification", "c", nil, "classification file or directory (repeatable)")
	pf.StringVar(&c.sqlite, "sqlite", "", "SQLite database with imported classifications")
	pf.StringSliceVar(&c.only, "only", nil, "restrict the graph to the named classifications")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable caching")
	pf.BoolVar(&c.refresh, "refresh", false, "ignore cached results and recompute")

	root.AddGroup(
		&cobra.Group{ID: groupQuery, Title: "Query Commands:"},
		&cobra.Group{ID: groupData, Title: "Data Commands:"},
	)
	for _, cmd := range c.queryCommands() {
		root.AddCommand(cmd)
	}
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Command groups shown in help output.
const (
	groupQuery = "query"
	groupData  = "data"
)

// loadConfig reads the config file and lays the source flags over it.
func (c *CLI) loadConfig() error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if len(c.files) > 0 || c.sqlite != "" {
		cfg.Sources.Files = c.files
		cfg.Sources.SQLite = c.sqlite
		cfg.Sources.Mongo = nil
	}
	if len(c.only) > 0 {
		cfg.Sources.Classifications = c.only
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The caller closes the
// returned cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, cache.Cache, error) {
	ch, err := c.newCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	runner := pipeline.NewRunner(cache.Instrument(ch), nil, c.Logger)
	runner.QueryTTL = c.Config.Cache.TTL
	runner.GraphTTL = 24 * c.Config.Cache.TTL
	return runner, ch, nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case cacheNone:
		return cache.NewNullCache(), nil
	case cacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{URL: c.Config.Cache.RedisURL})
	}
	dir := c.Config.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/lineage/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
