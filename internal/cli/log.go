// Package cli implements the lineage command-line interface.
//
// This package provides commands that load hierarchical classifications
// from files, SQLite or MongoDB, answer genealogy queries against their
// unified graph and serve the same queries over HTTP. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - parents, children, siblings, ancestors, descendants, lca, family,
//     between, roots, leaves, paths: one genealogy query each
//   - explore: browse the graph interactively
//   - import: store classification files in a SQLite database
//   - check: report graph statistics and cycles
//   - serve: run the HTTP API
//   - cache: manage the graph and response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Status
// lines and logs go to stderr; query results go to stdout or --output.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at debug level along with the elapsed time, e.g.
// "Unified 3 classifications (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
