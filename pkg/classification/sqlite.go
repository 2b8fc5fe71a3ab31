package classification

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/lineage/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS relations (
	classification TEXT NOT NULL,
	parent         TEXT NOT NULL,
	child          TEXT NOT NULL,
	PRIMARY KEY (classification, parent, child)
);
CREATE TABLE IF NOT EXISTS labels (
	classification TEXT NOT NULL,
	code           TEXT NOT NULL,
	label          TEXT NOT NULL,
	PRIMARY KEY (classification, code)
);
`

// SQLStore keeps classifications in a SQLite database with one row per
// relation and one row per label.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) a SQLite database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open sqlite %s", path)
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create schema")
	}
	return &SQLStore{db: db}, nil
}

// Names implements Source.
func (s *SQLStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT classification FROM relations ORDER BY classification`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list classifications")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan classification")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Load implements Source.
func (s *SQLStore) Load(ctx context.Context, name string) (Classification, error) {
	c := Classification{Name: name}

	rows, err := s.db.QueryContext(ctx,
		`SELECT parent, child FROM relations WHERE classification = ? ORDER BY parent, child`, name)
	if err != nil {
		return c, errors.Wrap(errors.ErrCodeStorage, err, "load %s", name)
	}
	for rows.Next() {
		var r Relation
		if err := rows.Scan(&r.Parent, &r.Child); err != nil {
			rows.Close()
			return c, errors.Wrap(errors.ErrCodeStorage, err, "scan relation")
		}
		c.Relations = append(c.Relations, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return c, errors.Wrap(errors.ErrCodeStorage, err, "load %s", name)
	}
	if len(c.Relations) == 0 {
		return c, errors.New(errors.ErrCodeClassification, "classification not found: %s", name)
	}

	labels, err := s.db.QueryContext(ctx,
		`SELECT code, label FROM labels WHERE classification = ?`, name)
	if err != nil {
		return c, errors.Wrap(errors.ErrCodeStorage, err, "load labels of %s", name)
	}
	defer labels.Close()
	for labels.Next() {
		var code, label string
		if err := labels.Scan(&code, &label); err != nil {
			return c, errors.Wrap(errors.ErrCodeStorage, err, "scan label")
		}
		if c.Labels == nil {
			c.Labels = make(map[string]string)
		}
		c.Labels[code] = label
	}
	return c, labels.Err()
}

// Save implements Store. The classification replaces any stored one with
// the same name in a single transaction.
func (s *SQLStore) Save(ctx context.Context, c Classification) error {
	c.Relations = append([]Relation(nil), c.Relations...)
	c.normalize()
	if err := c.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "begin")
	}
	defer tx.Rollback()

	if err := deleteTx(ctx, tx, c.Name); err != nil {
		return err
	}
	rel, err := tx.PrepareContext(ctx,
		`INSERT INTO relations (classification, parent, child) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "prepare")
	}
	defer rel.Close()
	for _, r := range c.Relations {
		if _, err := rel.ExecContext(ctx, c.Name, r.Parent, r.Child); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "insert %s -> %s", r.Parent, r.Child)
		}
	}

	lab, err := tx.PrepareContext(ctx,
		`INSERT INTO labels (classification, code, label) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "prepare")
	}
	defer lab.Close()
	for code, label := range c.Labels {
		if _, err := lab.ExecContext(ctx, c.Name, code, label); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "insert label %s", code)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "commit")
	}
	return nil
}

// Delete implements Store. Deleting a missing classification is a no-op.
func (s *SQLStore) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "begin")
	}
	defer tx.Rollback()
	if err := deleteTx(ctx, tx, name); err != nil {
		return err
	}
	return tx.Commit()
}

// Close implements Store.
func (s *SQLStore) Close() error { return s.db.Close() }

func deleteTx(ctx context.Context, tx *sql.Tx, name string) error {
	for _, table := range []string{"relations", "labels"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE classification = ?`, table)
		if _, err := tx.ExecContext(ctx, q, name); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "clear %s", table)
		}
	}
	return nil
}
