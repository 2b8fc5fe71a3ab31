package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/classification"
	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/genealogy"
	"github.com/matzehuels/lineage/pkg/graph"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no query state; multiple goroutines can use the same
// Runner and the same snapshots.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// LCA configures the engines of snapshots built by this runner.
	LCA genealogy.LCAOptions
	// GraphTTL and QueryTTL bound the lifetime of cached unified graphs
	// and responses.
	GraphTTL time.Duration
	QueryTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		GraphTTL: cache.GraphTTL,
		QueryTTL: cache.QueryTTL,
	}
}

// =============================================================================
// Stage 1: Load
// =============================================================================

// LoadRepository reads every configured source into a new repository.
func (r *Runner) LoadRepository(ctx context.Context, src Sources) (*classification.Repository, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	repo := classification.NewRepository(classification.WithLogger(r.Logger))

	if len(src.Files) > 0 {
		if err := repo.LoadFiles(src.Files...); err != nil {
			return nil, err
		}
	}
	if src.SQLite != "" {
		store, err := classification.OpenSQLite(ctx, src.SQLite)
		if err != nil {
			return nil, err
		}
		err = repo.LoadSource(ctx, store, src.Classifications...)
		store.Close()
		if err != nil {
			return nil, fmt.Errorf("load sqlite %s: %w", src.SQLite, err)
		}
	}
	if src.Mongo != nil {
		store, err := classification.OpenMongo(ctx, *src.Mongo)
		if err != nil {
			return nil, err
		}
		err = repo.LoadSource(ctx, store, src.Classifications...)
		store.Close()
		if err != nil {
			return nil, fmt.Errorf("load mongodb: %w", err)
		}
	}

	r.Logger.Debug("classifications loaded", "names", repo.Names())
	return repo, nil
}

// Snapshot unifies the named classifications of repo (all of them when no
// name is given) and wraps the result with an engine.
func (r *Runner) Snapshot(ctx context.Context, repo *classification.Repository, names ...string) (*Snapshot, error) {
	g, err := repo.UnifyContext(ctx, names...)
	if err != nil {
		return nil, err
	}
	return r.newSnapshot(g)
}

// LoadSnapshot loads the sources and builds their unified graph. When the
// sources are files or a SQLite database the graph is cached under a key
// derived from their paths, sizes and modification times; refresh skips
// the lookup. The returned bool reports a cache hit.
func (r *Runner) LoadSnapshot(ctx context.Context, src Sources, refresh bool) (*Snapshot, bool, error) {
	if err := src.Validate(); err != nil {
		return nil, false, err
	}

	identity, cacheable := sourceIdentity(src)
	key := r.Keyer.GraphKey(cache.Hash([]byte(identity)))

	if cacheable && !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if g, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
				snap, err := r.newSnapshot(g)
				if err == nil {
					r.Logger.Debug("unified graph from cache", "nodes", g.NodeCount())
					return snap, true, nil
				}
			}
		}
	}

	repo, err := r.LoadRepository(ctx, src)
	if err != nil {
		return nil, false, err
	}
	snap, err := r.Snapshot(ctx, repo, src.Classifications...)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if data, err := graph.MarshalGraph(snap.Graph); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.GraphTTL); err != nil {
				r.Logger.Warn("graph cache write failed", "error", err)
			}
		}
	}
	return snap, false, nil
}

func (r *Runner) newSnapshot(g *dag.DAG) (*Snapshot, error) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "serialize unified graph")
	}
	names, ok := g.Meta()[dag.MetaClassifications].([]string)
	if !ok {
		// Graphs read back from the cache carry the names on their nodes only.
		seen := map[string]bool{}
		for _, n := range g.Nodes() {
			cs, _ := n.Meta[dag.MetaClassifications].([]string)
			for _, c := range cs {
				if !seen[c] {
					seen[c] = true
					names = append(names, c)
				}
			}
		}
		slices.Sort(names)
	}
	return &Snapshot{
		Graph:           g,
		Digest:          cache.Hash(data),
		Classifications: names,
		Engine: genealogy.New(g,
			genealogy.WithLogger(r.Logger),
			genealogy.WithLCAOptions(r.LCA)),
	}, nil
}

// sourceIdentity describes the sources for cache keying. It returns false
// when a source cannot be identified without reading it (MongoDB) or a
// file cannot be stat'ed; such loads are not cached.
func sourceIdentity(src Sources) (string, bool) {
	if src.Mongo != nil {
		return "", false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "classifications=%s\n", strings.Join(sortedCopy(src.Classifications), ","))

	var files []string
	for _, p := range src.Files {
		info, err := os.Stat(p)
		if err != nil {
			return "", false
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return "", false
		}
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	if src.SQLite != "" {
		files = append(files, src.SQLite)
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return "", false
		}
		info, err := os.Stat(f)
		if err != nil {
			return "", false
		}
		fmt.Fprintf(&b, "%s %d %d\n", abs, info.Size(), info.ModTime().UnixNano())
	}
	return b.String(), true
}

// =============================================================================
// Stage 2: Query
// =============================================================================

// Query runs req against snap. Successful responses are cached under the
// snapshot digest and the query parameters; errors are never cached.
func (r *Runner) Query(ctx context.Context, snap *Snapshot, req Request) (*Result, error) {
	if err := req.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	q := req.Query
	key := r.Keyer.QueryKey(snap.Digest, cache.QueryKeyOpts{
		Op:       string(q.Op),
		Codes:    q.Codes,
		MaxDepth: q.MaxDepth,
		Strategy: string(q.Strategy),
		Limit:    q.Limit,
		Shape:    string(req.Shape),
	})
	result := &Result{Stats: Stats{NodeCount: snap.NodeCount()}}

	if !req.Refresh {
		var resp graph.Response
		if err := cache.GetJSON(ctx, r.Cache, key, &resp); err == nil {
			result.Response = resp
			result.CacheInfo.QueryHit = true
			return result, nil
		}
	}

	start := time.Now()
	res, err := snap.Engine.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	result.Stats.QueryTime = time.Since(start)
	result.Response = graph.FromResult(res, req.Shape)

	if err := cache.SetJSON(ctx, r.Cache, key, result.Response, r.QueryTTL); err != nil {
		r.Logger.Warn("response cache write failed", "error", err)
	}
	return result, nil
}
