package store

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/gauntlet/internal/results"
)

// Store reads and writes one persisted result table.
type Store interface {
	// Path returns the location of the table.
	Path() string

	// Load returns the persisted table, or an empty table with the reserved
	// columns when nothing has been written yet.
	Load(ctx context.Context) (*results.Table, error)

	// Write replaces the persisted table with t, columns reordered so that
	// front comes first.
	Write(ctx context.Context, t *results.Table, front []string) error

	// Appender opens a streaming writer whose layout includes columns.
	Appender(ctx context.Context, columns []string) (Appender, error)

	Close() error
}

// Appender adds rows to a Store one at a time. It is not safe for
// concurrent use; a single writer owns it.
type Appender interface {
	// Append persists one row. Null and NaN cells are left empty and
	// columns outside the layout are ignored.
	Append(row results.Row) error

	// Columns returns the layout rows are written with.
	Columns() []string

	Close() error
}

// Open returns the Store for path: SQLite for .db, .sqlite and .sqlite3
// files, CSV for anything else.
func Open(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open store: empty path")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return NewCSV(path), nil
	}
}

// OrderColumns returns columns with front moved to the beginning in the
// given order, followed by the remaining columns in their original order.
// Front columns absent from columns are added.
func OrderColumns(columns, front []string) []string {
	out := make([]string, 0, len(columns)+len(front))
	for _, c := range front {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	for _, c := range columns {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// checkColumns rejects layouts that cannot be written as one rectangular
// table.
func checkColumns(columns []string) error {
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if c == "" {
			return fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// widen returns existing extended with any of want it lacks.
func widen(existing, want []string) []string {
	out := slices.Clone(existing)
	for _, c := range want {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
