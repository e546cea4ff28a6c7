package results

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func row(vid, mid string, extra ...any) Row {
	r := Row{ColValidationID: String(vid), ColModelID: String(mid)}
	for i := 0; i+1 < len(extra); i += 2 {
		r[extra[i].(string)] = extra[i+1].(Value)
	}
	return r
}

func TestMerge_KeepsLastAndSorts(t *testing.T) {
	prior := EmptyTable()
	prior.Append(
		row("v2", "m1", ColRuntimeSecs, Float(1), "result", Int(1)),
		row("v1", "m2", ColRuntimeSecs, Float(1), "result", Int(2)),
	)
	fresh := []Row{
		row("v2", "m1", ColRuntimeSecs, Float(2), "result", Int(10)),
		row("v1", "m1", ColRuntimeSecs, Float(3), "score", Float(0.5)),
	}

	merged := Merge(prior, fresh, ReservedColumns)

	require.Equal(t, 3, merged.Len())
	assert.Equal(t, []string{ColValidationID, ColModelID, ColRuntimeSecs, "result", "score"}, merged.Columns)

	pairs := make([]string, merged.Len())
	for i, r := range merged.Rows {
		p, ok := r.Pair()
		require.True(t, ok)
		pairs[i] = p.String()
	}
	assert.Equal(t, []string{"v1/m1", "v1/m2", "v2/m1"}, pairs)
	assert.Equal(t, Int(10), merged.Find(Pair{"v2", "m1"})["result"])
	assert.Equal(t, Null{}, merged.Value(0, "result"))
}

func TestMerge_LeadingColumnsFirst(t *testing.T) {
	merged := Merge(nil, []Row{row("v", "m", "b", Int(1), "a", Int(2))},
		[]string{ColValidationID, ColModelID, ColRuntimeSecs, "z"})
	assert.Equal(t, []string{ColValidationID, ColModelID, ColRuntimeSecs, "z", "a", "b"}, merged.Columns)
}

func TestMerge_DropsRowsWithoutPair(t *testing.T) {
	merged := Merge(nil, []Row{{"result": Int(1)}, row("v", "m")}, ReservedColumns)
	assert.Equal(t, 1, merged.Len())
}

func TestTable_Index(t *testing.T) {
	tbl := EmptyTable()
	tbl.Append(row("v", "a"), row("v", "b"))
	idx := tbl.Index()
	assert.Len(t, idx, 2)
	assert.Contains(t, idx, Pair{"v", "b"})
}

func TestMerge_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		fresh := make([]Row, n)
		for i := range fresh {
			vid := fmt.Sprintf("v%d", rapid.IntRange(0, 3).Draw(rt, "vid"))
			mid := fmt.Sprintf("m%d", rapid.IntRange(0, 3).Draw(rt, "mid"))
			fresh[i] = row(vid, mid, "seq", Int(i))
		}

		merged := Merge(nil, fresh, ReservedColumns)

		// unique pairs, sorted
		seen := map[Pair]bool{}
		for i, r := range merged.Rows {
			p, _ := r.Pair()
			if seen[p] {
				rt.Fatalf("duplicate pair %s", p)
			}
			seen[p] = true
			if i > 0 {
				prev, _ := merged.Rows[i-1].Pair()
				if prev.Compare(p) >= 0 {
					rt.Fatalf("rows not sorted: %s before %s", prev, p)
				}
			}
		}

		// each kept row is the last occurrence
		for _, r := range merged.Rows {
			p, _ := r.Pair()
			want := -1
			for i, f := range fresh {
				if fp, _ := f.Pair(); fp == p {
					want = i
				}
			}
			if r["seq"] != Int(want) {
				rt.Fatalf("pair %s kept seq %v, want %d", p, r["seq"], want)
			}
		}

		// merging again is a no-op
		if !Merge(merged, nil, ReservedColumns).Equal(merged) {
			rt.Fatalf("merge is not idempotent")
		}
	})
}
