package classification

import (
	"context"
	"os"
	"path/filepath"
	"slices"
)

// Source loads classifications from persistent storage.
type Source interface {
	// Names lists the classifications available in the source, sorted.
	Names(ctx context.Context) ([]string, error)
	// Load reads one classification. A missing name is a
	// CLASSIFICATION_NOT_FOUND error.
	Load(ctx context.Context, name string) (Classification, error)
}

// Store is a Source that can also persist classifications.
type Store interface {
	Source
	Save(ctx context.Context, c Classification) error
	Delete(ctx context.Context, name string) error
	Close() error
}

// LoadSource adds the named classifications from src to the repository,
// or every classification src holds when no name is given.
func (r *Repository) LoadSource(ctx context.Context, src Source, names ...string) error {
	if len(names) == 0 {
		all, err := src.Names(ctx)
		if err != nil {
			return err
		}
		names = all
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := src.Load(ctx, name)
		if err != nil {
			return err
		}
		if err := r.Add(c); err != nil {
			return err
		}
		r.logger.Debug("classification loaded", "name", name, "relations", len(c.Relations))
	}
	return nil
}

// LoadFiles reads each path with ReadFile and adds the result. A path
// that names a directory loads every supported file inside it (not
// recursively).
func (r *Repository) LoadFiles(paths ...string) error {
	for _, p := range paths {
		files := []string{p}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			files = nil
			entries, err := os.ReadDir(p)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				if _, err := DetectReader(e.Name()); err == nil {
					files = append(files, filepath.Join(p, e.Name()))
				}
			}
			slices.Sort(files)
		}
		for _, f := range files {
			c, err := ReadFile(f)
			if err != nil {
				return err
			}
			if err := r.Add(c); err != nil {
				return err
			}
			r.logger.Debug("classification file loaded", "path", f, "name", c.Name, "relations", len(c.Relations))
		}
	}
	return nil
}

// SaveAll writes every stored classification to dst.
func (r *Repository) SaveAll(ctx context.Context, dst Store) error {
	for _, name := range r.Names() {
		c, ok := r.Get(name)
		if !ok {
			continue
		}
		if err := dst.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
