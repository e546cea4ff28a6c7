package queryir

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/gauntlet/internal/results"
)

// Validate checks sel against a table layout. Every column it names,
// selected or filtered, must be part of layout, and filter values must be
// finite. NaN compares like an empty cell. All problems are reported together.
func Validate(sel Select, layout []string) error {
	v := &validator{layout: layout}
	for _, c := range sel.Columns {
		v.checkColumn(c)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
	if len(v.problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(v.problems, "; "))
}

type validator struct {
	layout   []string
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) checkColumn(c string) {
	switch {
	case c == "":
		v.addProblem("empty column name")
	case strings.Contains(c, `"`):
		v.addProblem("column %q contains a double quote", c)
	case !slices.Contains(v.layout, c):
		v.addProblem("unknown column %q", c)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unsupported predicate type %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	v.checkColumn(eq.Column)
	if eq.Value == nil {
		v.addProblem("column %q compared to a nil value", eq.Column)
		return
	}
	if f, ok := eq.Value.(results.Float); ok && math.IsInf(float64(f), 0) {
		v.addProblem("column %q compared to %s", eq.Column, results.Cell(f))
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
