package queryir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/gauntlet/internal/results"
)

// ParseWhere parses a "column=value" filter. The value is read the way a
// CSV cell is, so "3" is an Int, "0.5" a Float, "true" a Bool and an empty
// value matches empty cells.
func ParseWhere(expr string) (Equals, error) {
	col, val, ok := strings.Cut(expr, "=")
	if !ok {
		return Equals{}, fmt.Errorf("filter %q: expected column=value", expr)
	}
	col = strings.TrimSpace(col)
	if col == "" {
		return Equals{}, fmt.Errorf("filter %q: empty column name", expr)
	}
	return Equals{Column: col, Value: results.ParseCell(val)}, nil
}

// Match reports whether row satisfies p. A nil predicate matches.
func Match(p Predicate, row results.Row) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case Equals:
		return cellEquals(row.Get(pred.Column), pred.Value)
	case *Equals:
		return cellEquals(row.Get(pred.Column), pred.Value)
	case And:
		return matchAll(pred.Predicates, row)
	case *And:
		return matchAll(pred.Predicates, row)
	default:
		return false
	}
}

func matchAll(preds []Predicate, row results.Row) bool {
	for _, p := range preds {
		if !Match(p, row) {
			return false
		}
	}
	return true
}

func cellEquals(cell, want results.Value) bool {
	if results.IsNull(cell) || results.IsNull(want) {
		return results.IsNull(cell) && results.IsNull(want)
	}
	a, aNum := numeric(cell)
	b, bNum := numeric(want)
	if aNum || bNum {
		return aNum && bNum && a == b
	}
	return cell == want
}

func numeric(v results.Value) (float64, bool) {
	switch n := v.(type) {
	case results.Int:
		return float64(n), true
	case results.Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// Apply evaluates sel against t in memory. Rows keep their order; the
// returned table shares no rows with t.
func Apply(sel Select, t *results.Table) (*results.Table, error) {
	if err := Validate(sel, t.Columns); err != nil {
		return nil, err
	}
	cols := Layout(sel, t.Columns)
	out := results.NewTable(cols...)
	for _, row := range t.Rows {
		if Match(sel.Filter, row) {
			out.Rows = append(out.Rows, Project(row, cols))
		}
	}
	return out, nil
}

// Layout returns the columns a Select over layout produces: all of layout
// when no columns are named, otherwise the pair columns followed by the
// named ones in request order.
func Layout(sel Select, layout []string) []string {
	if len(sel.Columns) == 0 {
		return slices.Clone(layout)
	}
	cols := []string{results.ColValidationID, results.ColModelID}
	for _, c := range sel.Columns {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Project keeps the cells of row that belong to cols.
func Project(row results.Row, cols []string) results.Row {
	out := make(results.Row, len(cols))
	for _, c := range cols {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}
