package queryir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gauntlet/internal/results"
)

var layout = []string{"validation_id", "model_id", "runtime_secs", "score", `odd"name`}

func TestValidate_Valid(t *testing.T) {
	tests := []Select{
		{},
		{Columns: []string{"score"}},
		{Filter: Equals{Column: "score", Value: results.Float(0.5)}},
		{Filter: &And{Predicates: []Predicate{
			Equals{Column: "model_id", Value: results.String("m-v1")},
			&Equals{Column: "score", Value: results.Null{}},
		}}},
		{Filter: Equals{Column: "score", Value: results.Float(math.NaN())}},
	}
	for i, sel := range tests {
		assert.NoError(t, Validate(sel, layout), "case %d", i)
	}
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name string
		sel  Select
		want string
	}{
		{"unknown selected column", Select{Columns: []string{"mean"}}, `unknown column "mean"`},
		{"empty column", Select{Columns: []string{""}}, "empty column name"},
		{"quoted column", Select{Columns: []string{`odd"name`}}, "contains a double quote"},
		{"unknown filter column", Select{Filter: Equals{Column: "x", Value: results.Int(1)}}, `unknown column "x"`},
		{"nil value", Select{Filter: Equals{Column: "score"}}, "nil value"},
		{"infinite value", Select{Filter: Equals{Column: "score", Value: results.Float(math.Inf(1))}}, "compared to Inf"},
		{"nil in and", Select{Filter: And{Predicates: []Predicate{nil}}}, "nil predicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sel, layout)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	err := Validate(Select{
		Columns: []string{"a"},
		Filter:  Where(Equals{Column: "b", Value: results.Int(1)}, Equals{Column: "c", Value: results.Int(2)}),
	}, layout)
	require.Error(t, err)
	assert.Equal(t, `invalid query: unknown column "a"; unknown column "b"; unknown column "c"`, err.Error())
}
