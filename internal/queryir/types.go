package queryir

import (
	"github.com/roach88/gauntlet/internal/results"
)

// Predicate is a row condition. Sealed: see the package doc.
type Predicate interface {
	predicateNode()
}

// Equals matches rows whose cell in Column equals Value. A Null value
// matches rows where the cell is missing or empty.
type Equals struct {
	Column string
	Value  results.Value
}

func (Equals) predicateNode() {}

// And matches rows that satisfy every predicate. An empty And matches
// every row.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Select picks rows and columns from a result table.
type Select struct {
	// Columns to keep, after validation_id and model_id which are always
	// kept. Empty keeps the whole layout.
	Columns []string

	// Filter selects rows; nil keeps all of them.
	Filter Predicate
}

// Where returns the conjunction of preds, or nil when there are none.
func Where(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}
