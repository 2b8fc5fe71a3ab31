// Package classification loads named code hierarchies and merges them
// into one unified graph for the genealogy engine.
//
// A [Classification] is a list of parent/child [Relation] pairs plus
// optional labels. Classifications are kept in a [Repository], which
// normalizes them on the way in (trimmed codes, no duplicates, no self
// loops) and builds the unified [dag.DAG] on demand:
//
//	repo := classification.NewRepository(classification.WithLogger(logger))
//	if err := repo.LoadFiles("icd10.csv", "atc.yaml"); err != nil {
//	    return err
//	}
//	g, err := repo.Unify()
//
// # File Formats
//
// [ReadFile] picks a [Reader] from the file extension:
//
//   - .csv, .tsv: one "parent,child[,label]" row per relation
//   - .json: {"name", "relations", "labels"} or the graph package's
//     nodes/edges form
//   - .yaml, .yml, .toml: the same fields as JSON
//
// Numeric codes are kept as written: 10 stays "10" rather than a float.
//
// # Storage
//
// [SQLStore] (SQLite) and [MongoStore] implement [Store]. Either can feed
// a repository through [Repository.LoadSource].
package classification
