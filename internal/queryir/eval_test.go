package queryir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gauntlet/internal/results"
)

func row(vid, mid string, kv ...any) results.Row {
	r := results.Row{
		results.ColValidationID: results.String(vid),
		results.ColModelID:      results.String(mid),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i].(string)] = kv[i+1].(results.Value)
	}
	return r
}

func TestParseWhere(t *testing.T) {
	tests := []struct {
		expr string
		want Equals
	}{
		{"model_id=SVC-v1", Equals{Column: "model_id", Value: results.String("SVC-v1")}},
		{"folds=3", Equals{Column: "folds", Value: results.Int(3)}},
		{"mean_score=0.5", Equals{Column: "mean_score", Value: results.Float(0.5)}},
		{"ok=true", Equals{Column: "ok", Value: results.Bool(true)}},
		{"note=", Equals{Column: "note", Value: results.Null{}}},
		{" note =a=b", Equals{Column: "note", Value: results.String("a=b")}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseWhere(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseWhere("model_id")
	assert.ErrorContains(t, err, "expected column=value")
	_, err = ParseWhere("=x")
	assert.ErrorContains(t, err, "empty column name")
}

func TestMatch(t *testing.T) {
	r := row("cv-v1", "svc-v1", "score", results.Float(2), "folds", results.Int(3), "ok", results.Bool(true))

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"nil", nil, true},
		{"string", Equals{Column: "model_id", Value: results.String("svc-v1")}, true},
		{"string mismatch", &Equals{Column: "model_id", Value: results.String("svc-v2")}, false},
		{"int against float", Equals{Column: "score", Value: results.Int(2)}, true},
		{"float against int", Equals{Column: "folds", Value: results.Float(3)}, true},
		{"string against int", Equals{Column: "folds", Value: results.String("3")}, false},
		{"bool against int", Equals{Column: "folds", Value: results.Bool(true)}, false},
		{"bool", Equals{Column: "ok", Value: results.Bool(true)}, true},
		{"missing cell is null", Equals{Column: "note", Value: results.Null{}}, true},
		{"NaN is null", Equals{Column: "note", Value: results.Float(math.NaN())}, true},
		{"present cell is not null", Equals{Column: "score", Value: results.Null{}}, false},
		{"empty and", And{}, true},
		{"and", &And{Predicates: []Predicate{
			Equals{Column: "ok", Value: results.Bool(true)},
			Equals{Column: "folds", Value: results.Int(4)},
		}}, false},
		{"nested and", Where(Where(Equals{Column: "ok", Value: results.Bool(true)}), And{}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pred, r))
		})
	}
}

func TestWhere(t *testing.T) {
	eq := Equals{Column: "a", Value: results.Int(1)}
	assert.Nil(t, Where())
	assert.Equal(t, eq, Where(eq))
	assert.Equal(t, And{Predicates: []Predicate{eq, eq}}, Where(eq, eq))
}

func TestApply(t *testing.T) {
	tbl := results.EmptyTable()
	tbl.Append(
		row("cv-v1", "a-v1", "score", results.Float(0.5)),
		row("cv-v1", "b-v1", "score", results.Float(0.7)),
		row("ho-v1", "a-v1", "result", results.Float(0.6)),
	)

	got, err := Apply(Select{
		Columns: []string{"model_id", "score"},
		Filter:  Equals{Column: "validation_id", Value: results.String("cv-v1")},
	}, tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"validation_id", "model_id", "score"}, got.Columns)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, row("cv-v1", "b-v1", "score", results.Float(0.7)), got.Rows[1])

	// The input is untouched.
	assert.Contains(t, tbl.Columns, "result")
	assert.Equal(t, 3, tbl.Len())

	all, err := Apply(Select{}, tbl)
	require.NoError(t, err)
	assert.True(t, all.Equal(tbl))
}

func TestApply_InvalidSelect(t *testing.T) {
	_, err := Apply(Select{Columns: []string{"nope"}}, results.EmptyTable())
	assert.ErrorContains(t, err, `unknown column "nope"`)
}
