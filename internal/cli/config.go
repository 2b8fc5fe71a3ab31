package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/genealogy"
	"github.com/matzehuels/lineage/pkg/pipeline"
	"github.com/matzehuels/lineage/pkg/server"
)

// Cache backends.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// Config is the lineage configuration file. Flags override every value.
//
//	[sources]
//	files = ["~/data/icd10.csv", "~/data/atc/"]
//	sqlite = "~/data/lineage.db"
//
//	[defaults]
//	shape = "codes"
//	format = "text"
//	strategy = "reachability"
//	max_paths = 100
//	family_depth = 1
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "2h"
//
//	[server]
//	addr = "127.0.0.1:8080"
type Config struct {
	Sources  pipeline.Sources `toml:"sources"`
	Defaults Defaults         `toml:"defaults"`
	Cache    CacheConfig      `toml:"cache"`
	Server   ServerConfig     `toml:"server"`
}

// Defaults are the query settings used when a flag is not given.
type Defaults struct {
	Shape       string `toml:"shape"`
	Format      string `toml:"format"`
	Strategy    string `toml:"strategy"`
	MaxPaths    int    `toml:"max_paths"`
	FamilyDepth *int   `toml:"family_depth"` // nil means DefaultFamilyDepth; 0 is valid
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend  string        `toml:"backend"` // file (default), redis or none
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"` // response TTL; graphs live 24 times longer
}

// ServerConfig configures "lineage serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// defaultConfigPath returns $XDG_CONFIG_HOME/lineage/config.toml, falling
// back to the platform config directory.
func defaultConfigPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// loadConfig reads the config file at path. An empty path means the
// default location, where a missing file is not an error. Unknown keys
// are rejected so typos do not go unnoticed.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return defaultConfig(), nil
		}
		path = p
	}

	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case os.IsNotExist(err) && !explicit:
		return defaultConfig(), nil
	case os.IsNotExist(err):
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
	case err != nil:
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig,
			"unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.Sources.Files = expandPaths(cfg.Sources.Files)
	if cfg.Sources.SQLite != "" {
		cfg.Sources.SQLite = expandHome(cfg.Sources.SQLite)
	}
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, cfg.Validate()
}

func defaultConfig() Config {
	return Config{
		Defaults: Defaults{
			Shape:    string(genealogy.DefaultShape),
			Format:   pipeline.DefaultFormat,
			Strategy: string(genealogy.StrategyReachability),
			MaxPaths: genealogy.DefaultPathLimit,
		},
		Cache: CacheConfig{
			Backend: cacheFile,
			TTL:     cache.QueryTTL,
		},
		Server: ServerConfig{Addr: server.DefaultAddr},
	}
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if _, err := genealogy.ParseShape(c.Defaults.Shape); err != nil {
		return err
	}
	if err := pipeline.ValidateFormat(c.Defaults.Format); err != nil {
		return err
	}
	if _, err := genealogy.ParseStrategy(c.Defaults.Strategy); err != nil {
		return err
	}
	if c.Defaults.MaxPaths < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "defaults.max_paths cannot be negative")
	}
	if d := c.Defaults.FamilyDepth; d != nil && *d < 0 {
		return errors.New(errors.ErrCodeInvalidDepth, "defaults.family_depth cannot be negative, got %d", *d)
	}
	if c.Sources.Mongo != nil {
		if err := c.Sources.Mongo.ValidateAndSetDefaults(); err != nil {
			return err
		}
	}

	switch c.Cache.Backend {
	case cacheFile, cacheNone:
	case cacheRedis:
		if err := errors.ValidateURL(c.Cache.RedisURL, "redis", "rediss"); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid cache backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must be positive")
	}
	return nil
}

// familyDepth returns the configured family depth.
func (d Defaults) familyDepth() int {
	if d.FamilyDepth == nil {
		return genealogy.DefaultFamilyDepth
	}
	return *d.FamilyDepth
}

func expandPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = expandHome(p)
	}
	return out
}

// expandHome replaces a leading "~/" with the home directory.
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
