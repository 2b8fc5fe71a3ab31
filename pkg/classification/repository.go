package classification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/dag"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/observability"
)

// Repository holds named classifications and builds unified graphs from
// them. It is the explicit handle queries are run against: there is no
// process-wide "active" classification.
//
// A Repository is safe for concurrent use.
type Repository struct {
	mu     sync.RWMutex
	items  map[string]*Classification
	logger *log.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger that receives warnings about dropped
// relations. The default logger discards everything.
func WithLogger(l *log.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRepository creates an empty repository.
func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		items:  make(map[string]*Classification),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add normalizes c and stores it under its name, replacing any earlier
// classification with the same name. Self loops and relations with an
// empty endpoint are dropped with a warning.
func (r *Repository) Add(c Classification) error {
	c.Relations = slices.Clone(c.Relations)
	for _, d := range c.normalize() {
		r.logger.Warn("relation dropped", "classification", c.Name, "parent", d.Parent, "child", d.Child)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[c.Name]; exists {
		r.logger.Debug("classification replaced", "name", c.Name)
	}
	r.items[c.Name] = &c
	return nil
}

// Get returns a copy of the named classification.
func (r *Repository) Get(name string) (Classification, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[name]
	if !ok {
		return Classification{}, false
	}
	return *c, true
}

// Remove deletes the named classification. Removing a missing name is a
// no-op.
func (r *Repository) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, name)
}

// Names returns the stored classification names, sorted.
func (r *Repository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of stored classifications.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Digest returns a content hash over the named classifications (all of
// them when names is empty), suitable as a cache key for the unified graph.
func (r *Repository) Digest(names ...string) (string, error) {
	items, err := r.selected(names)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, c := range items {
		h.Write([]byte(c.Digest()))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Unify builds the unified graph of the named classifications, or of all
// stored classifications when no name is given. Nodes carry the labels of
// the classifications (first one wins) and the list of classifications
// each code appears in. A name that is not stored is a
// CLASSIFICATION_NOT_FOUND error.
func (r *Repository) Unify(names ...string) (*dag.DAG, error) {
	return r.UnifyContext(context.Background(), names...)
}

// UnifyContext is Unify with a context for the graph-load hooks.
func (r *Repository) UnifyContext(ctx context.Context, names ...string) (*dag.DAG, error) {
	start := time.Now()
	items, err := r.selected(names)
	if err != nil {
		observability.Query().OnGraphLoad(ctx, len(names), 0, 0, time.Since(start), err)
		return nil, err
	}

	g := dag.New(dag.Metadata{dag.MetaClassifications: classificationNames(items)})
	for _, c := range items {
		for _, rel := range c.Relations {
			_ = g.Connect(rel.Parent, rel.Child)
			tagNode(g, rel.Parent, c.Name)
			tagNode(g, rel.Child, c.Name)
		}
		for code, label := range c.Labels {
			if n, ok := g.Node(code); ok {
				if _, has := n.Meta[dag.MetaLabel]; !has && label != "" {
					n.Meta[dag.MetaLabel] = label
				}
			}
		}
	}

	observability.Query().OnGraphLoad(ctx, len(items), g.NodeCount(), g.EdgeCount(), time.Since(start), nil)
	r.logger.Debug("unified graph built", "classifications", len(items), "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

func (r *Repository) selected(names []string) ([]*Classification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(names) == 0 {
		all := make([]string, 0, len(r.items))
		for name := range r.items {
			all = append(all, name)
		}
		slices.Sort(all)
		names = all
	}

	var out []*Classification
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		c, ok := r.items[name]
		if !ok {
			return nil, errors.New(errors.ErrCodeClassification, "classification not found: %s", name)
		}
		out = append(out, c)
	}
	return out, nil
}

func tagNode(g *dag.DAG, code, classification string) {
	n, ok := g.Node(code)
	if !ok {
		return
	}
	names, _ := n.Meta[dag.MetaClassifications].([]string)
	if !slices.Contains(names, classification) {
		n.Meta[dag.MetaClassifications] = append(names, classification)
	}
}

func classificationNames(items []*Classification) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Name
	}
	return out
}
