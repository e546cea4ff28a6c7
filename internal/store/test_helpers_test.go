package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/gauntlet/internal/results"
)

// createTestStore opens a SQLite store in a temporary directory.
func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRow(vid, mid string, runtime float64, extra ...any) results.Row {
	r := results.Row{
		results.ColValidationID: results.String(vid),
		results.ColModelID:      results.String(mid),
		results.ColRuntimeSecs:  results.Float(runtime),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		r[extra[i].(string)] = extra[i+1].(results.Value)
	}
	return r
}

func testTable() *results.Table {
	t := results.EmptyTable()
	t.Append(
		testRow("cv-v1", "svc-v1", 0.5, "score", results.Float(0.9)),
		testRow("cv-v1", "svc-v2", 1.25, "score", results.Float(0.8), "note", results.String("a, \"quoted\" cell")),
	)
	return t
}
