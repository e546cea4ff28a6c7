// Package querysql compiles result filters to parameterized SQLite SQL over
// the result_rows table written by the SQLite store.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/gauntlet/internal/queryir"
	"github.com/roach88/gauntlet/internal/results"
)

// never is the condition for comparisons that cannot match, such as a
// pair column against a number.
const never = "0 = 1"

// Compile converts sel's filter into a query returning the matching
// row_json values in write order. Values and JSON paths are always bound
// as parameters. Column projection is left to the caller.
func Compile(sel queryir.Select) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT row_json FROM result_rows")

	var params []any
	if sel.Filter != nil {
		where, p, err := compilePredicate(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = p
	}

	b.WriteString(" ORDER BY seq ASC")
	return b.String(), params, nil
}

func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		return compileEquals(*pred)
	case queryir.And:
		return compileAnd(pred)
	case *queryir.And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq queryir.Equals) (string, []any, error) {
	if eq.Column == results.ColValidationID || eq.Column == results.ColModelID {
		s, ok := eq.Value.(results.String)
		if !ok {
			return never, nil, nil
		}
		return eq.Column + " = ?", []any{string(s)}, nil
	}

	path := jsonPath(eq.Column)
	if results.IsNull(eq.Value) {
		return "COALESCE(json_type(row_json, ?), 'null') = 'null'", []any{path}, nil
	}
	switch v := eq.Value.(type) {
	case results.String:
		return "(json_type(row_json, ?) = 'text' AND json_extract(row_json, ?) = ?)",
			[]any{path, path, string(v)}, nil
	case results.Int:
		return "(json_type(row_json, ?) IN ('integer', 'real') AND json_extract(row_json, ?) = ?)",
			[]any{path, path, int64(v)}, nil
	case results.Float:
		return "(json_type(row_json, ?) IN ('integer', 'real') AND json_extract(row_json, ?) = ?)",
			[]any{path, path, float64(v)}, nil
	case results.Bool:
		return "json_type(row_json, ?) = ?", []any{path, fmt.Sprint(bool(v))}, nil
	default:
		return "", nil, fmt.Errorf("unsupported value type %T for column %q", eq.Value, eq.Column)
	}
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

// jsonPath addresses a top-level key of row_json. Column names containing
// a double quote are rejected by queryir.Validate.
func jsonPath(column string) string {
	return `$."` + column + `"`
}
