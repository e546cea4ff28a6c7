package results

import (
	"slices"
)

// Table is an ordered set of rows with an explicit column layout.
// Rows may be sparse; a missing column reads as Null.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns), Rows: []Row{}}
}

// EmptyTable is the table used when no prior results exist.
func EmptyTable() *Table {
	return NewTable(ReservedColumns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Value returns the cell at row i, column col.
func (t *Table) Value(i int, col string) Value {
	return t.Rows[i].Get(col)
}

// HasColumn reports whether col is part of the layout.
func (t *Table) HasColumn(col string) bool {
	return slices.Contains(t.Columns, col)
}

// Append adds rows, extending the column layout with any unseen keys.
// New keys from a single row are added in sorted order.
func (t *Table) Append(rows ...Row) {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = struct{}{}
	}
	for _, r := range rows {
		for _, k := range r.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			t.Columns = append(t.Columns, k)
		}
		t.Rows = append(t.Rows, r)
	}
}

// Index returns the set of (validation_id, model_id) pairs present.
func (t *Table) Index() map[Pair]struct{} {
	idx := make(map[Pair]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		if p, ok := r.Pair(); ok {
			idx[p] = struct{}{}
		}
	}
	return idx
}

// Find returns the row for p, or nil.
func (t *Table) Find(p Pair) Row {
	for i := len(t.Rows) - 1; i >= 0; i-- {
		if rp, ok := t.Rows[i].Pair(); ok && rp == p {
			return t.Rows[i]
		}
	}
	return nil
}

// Equal reports whether two tables have the same layout and cell values.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !slices.Equal(t.Columns, o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		for _, c := range t.Columns {
			if !Equal(t.Rows[i].Get(c), o.Rows[i].Get(c)) {
				return false
			}
		}
	}
	return true
}

// Merge concatenates prior and fresh rows, keeps the last row for each
// (validation_id, model_id) pair and sorts by that pair.
//
// The column layout is leading first, then prior's columns, then any new
// columns introduced by fresh rows. Rows without a pair key are dropped.
func Merge(prior *Table, fresh []Row, leading []string) *Table {
	out := NewTable()
	out.Columns = appendMissing(out.Columns, leading...)
	if prior != nil {
		out.Columns = appendMissing(out.Columns, prior.Columns...)
	}

	var all []Row
	if prior != nil {
		all = append(all, prior.Rows...)
	}
	all = append(all, fresh...)

	last := make(map[Pair]int, len(all))
	for i, r := range all {
		p, ok := r.Pair()
		if !ok {
			continue
		}
		last[p] = i
	}

	kept := make([]Row, 0, len(last))
	for i, r := range all {
		p, ok := r.Pair()
		if !ok || last[p] != i {
			continue
		}
		kept = append(kept, r)
	}
	slices.SortStableFunc(kept, func(a, b Row) int {
		pa, _ := a.Pair()
		pb, _ := b.Pair()
		return pa.Compare(pb)
	})

	out.Append(kept...)
	return out
}

func appendMissing(cols []string, add ...string) []string {
	for _, c := range add {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}
