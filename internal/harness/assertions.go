package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/gauntlet/internal/results"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Executed jobs for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nJobs:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s/%s\n", i+1, ev.Step, ev.Type, ev.ValidationID, ev.ModelID)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertRowCount:
		return assertRowCount(result, a)
	case AssertHasPair:
		return assertPair(result, a, true)
	case AssertMissingPair:
		return assertPair(result, a, false)
	case AssertColumns:
		return assertColumns(result, a)
	case AssertCellRange:
		return assertCellRange(result, a)
	case AssertRan:
		return assertRan(result, a)
	case AssertArtefact:
		return assertArtefact(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func pairOf(a Assertion) results.Pair {
	return results.Pair{ValidationID: a.Validation, ModelID: a.Model}
}

func assertRowCount(result *Result, a Assertion) error {
	if n := result.Table.Len(); n != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d row(s)", a.Count),
			Actual:   fmt.Sprintf("%d row(s)", n),
		}
	}
	return nil
}

func assertPair(result *Result, a Assertion, want bool) error {
	got := result.Table.Find(pairOf(a)) != nil
	if got == want {
		return nil
	}
	typ, expected, actual := AssertHasPair, "a row", "no row"
	if !want {
		typ, expected, actual = AssertMissingPair, "no row", "a row"
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%s for %s", expected, pairOf(a)),
		Actual:   actual,
		Trace:    result.Trace,
	}
}

func assertColumns(result *Result, a Assertion) error {
	if !slices.Equal(result.Table.Columns, a.Columns) {
		return &AssertionError{
			Type:     AssertColumns,
			Expected: strings.Join(a.Columns, ","),
			Actual:   strings.Join(result.Table.Columns, ","),
		}
	}
	return nil
}

func assertCellRange(result *Result, a Assertion) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertCellRange,
			Expected: fmt.Sprintf("%s of %s in [%v, %v]", a.Column, pairOf(a), a.Min, a.Max),
			Actual:   actual,
		}
	}

	row := result.Table.Find(pairOf(a))
	if row == nil {
		return fail("no row")
	}
	var f float64
	switch v := row.Get(a.Column).(type) {
	case results.Float:
		f = float64(v)
	case results.Int:
		f = float64(v)
	default:
		return fail(fmt.Sprintf("non-numeric cell %q", results.Cell(v)))
	}
	if f < a.Min || f > a.Max {
		return fail(results.Cell(results.Float(f)))
	}
	return nil
}

func assertRan(result *Result, a Assertion) error {
	if n := result.ranCount(a.Validation, a.Model); n != a.Count {
		filter := "validation=" + orAny(a.Validation) + " model=" + orAny(a.Model)
		return &AssertionError{
			Type:     AssertRan,
			Expected: fmt.Sprintf("%d job(s) with %s", a.Count, filter),
			Actual:   fmt.Sprintf("%d job(s)", n),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertArtefact(result *Result, a Assertion) error {
	path := filepath.Join(result.WorkDir, ArtefactsDirName, a.Validation, a.Model, a.File)
	if _, err := os.Stat(path); err != nil {
		return &AssertionError{
			Type:     AssertArtefact,
			Expected: fmt.Sprintf("file %s", filepath.Join(a.Validation, a.Model, a.File)),
			Actual:   err.Error(),
		}
	}
	return nil
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
