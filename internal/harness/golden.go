package harness

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gauntlet/internal/results"
)

// Shape renders the layout of t as CSV: the header without runtime_secs,
// then one line per row holding the pair and, for every other column, the
// kind of value stored ("float", "int", "string", "bool") or an empty cell.
// Scores and runtimes vary with the catalog and clock; which cells are
// filled does not.
func Shape(t *results.Table) ([]byte, error) {
	var cols []string
	for _, c := range t.Columns {
		if c != results.ColRuntimeSecs {
			cols = append(cols, c)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		rec := make([]string, len(cols))
		for i, c := range cols {
			if c == results.ColValidationID || c == results.ColModelID {
				rec[i] = results.Cell(row.Get(c))
				continue
			}
			rec[i] = kindOf(row.Get(c))
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func kindOf(v results.Value) string {
	if results.IsNull(v) {
		return ""
	}
	switch v.(type) {
	case results.Float:
		return "float"
	case results.Int:
		return "int"
	case results.String:
		return "string"
	case results.Bool:
		return "bool"
	default:
		return ""
	}
}

// RunWithGolden executes a scenario in a test-owned directory, fails the
// test on any step or assertion error, and compares the final table's
// Shape with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, scenario *Scenario) *Result {
	t.Helper()

	result, err := h.Run(context.Background(), scenario, t.TempDir())
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}
	AssertGolden(t, scenario.Name, result)
	return result
}

// AssertGolden compares the shape of result's table against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	shape, err := Shape(result.Table)
	if err != nil {
		t.Fatalf("render shape: %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, shape)
}
