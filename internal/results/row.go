package results

import (
	"fmt"
	"slices"
)

// Reserved column names. Validations must not return these keys.
const (
	ColValidationID = "validation_id"
	ColModelID      = "model_id"
	ColRuntimeSecs  = "runtime_secs"
)

// ReservedColumns lists the engine-owned columns in their table order.
var ReservedColumns = []string{ColValidationID, ColModelID, ColRuntimeSecs}

// IsReserved reports whether col is one of the engine-owned columns.
func IsReserved(col string) bool {
	return slices.Contains(ReservedColumns, col)
}

// Pair identifies one cell of the model×validation matrix.
type Pair struct {
	ValidationID string
	ModelID      string
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.ValidationID, p.ModelID)
}

// Compare orders pairs by validation ID, then model ID.
func (p Pair) Compare(o Pair) int {
	if p.ValidationID != o.ValidationID {
		if p.ValidationID < o.ValidationID {
			return -1
		}
		return 1
	}
	switch {
	case p.ModelID < o.ModelID:
		return -1
	case p.ModelID > o.ModelID:
		return 1
	}
	return 0
}

// Row is a flat mapping from column name to scalar value.
type Row map[string]Value

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the row's column names in sorted order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ReservedKeys returns the reserved column names present in r, in table order.
func (r Row) ReservedKeys() []string {
	var keys []string
	for _, col := range ReservedColumns {
		if _, ok := r[col]; ok {
			keys = append(keys, col)
		}
	}
	return keys
}

// Pair extracts the row's (validation_id, model_id) key. ok is false when
// either column is missing or not a string.
func (r Row) Pair() (Pair, bool) {
	vid, ok1 := r[ColValidationID].(String)
	mid, ok2 := r[ColModelID].(String)
	if !ok1 || !ok2 {
		return Pair{}, false
	}
	return Pair{ValidationID: string(vid), ModelID: string(mid)}, true
}

// Get returns the value at col, or Null when absent.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok && v != nil {
		return v
	}
	return Null{}
}

// Sparse returns a copy of r without null or NaN cells.
func (r Row) Sparse() Row {
	out := make(Row, len(r))
	for k, v := range r {
		if IsNull(v) {
			continue
		}
		out[k] = v
	}
	return out
}
