package jointable_test

import (
	"testing"

	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/jointable"
)

func TestProbeFindsMatchingRows(t *testing.T) {
	t.Parallel()

	schema := []gtype.LogicalType{gtype.Int64(), gtype.String()}
	ht := jointable.NewJoinHashTable(100)

	local := jointable.NewBuildLocal(schema)
	local.AppendRow(gtype.StorageValueFromInt64(1), []gtype.StorageValue{
		gtype.StorageValueFromInt64(1),
		gtype.StorageValueFromInt64(0),
	})
	local.AppendRow(gtype.StorageValueFromInt64(2), []gtype.StorageValue{
		gtype.StorageValueFromInt64(2),
		gtype.StorageValueFromInt64(0),
	})
	ht.MergeInto(local)

	var matches int
	ht.Probe(gtype.StorageValueFromInt64(1), func(tableIdx, rowIdx int) {
		matches++
		got := ht.Tables[tableIdx].Columns[0][rowIdx]
		if got.Int64() != 1 {
			t.Fatalf("matched row key = %d, want 1", got.Int64())
		}
	})
	if matches != 1 {
		t.Fatalf("matches = %d, want 1", matches)
	}

	ht.Probe(gtype.StorageValueFromInt64(999), func(tableIdx, rowIdx int) {
		t.Fatalf("should not match absent key")
	})
}

// TestProbeDuplicateBuildKeyPreservesInsertionOrder is scenario S5: build
// side [(1,"a"),(2,"b"),(2,"c")], probe [2,3] must yield the (2,"b"),
// (2,"c") matches in build-insertion order, not reversed.
func TestProbeDuplicateBuildKeyPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	schema := []gtype.LogicalType{gtype.Int64(), gtype.Int64()}
	ht := jointable.NewJoinHashTable(10)

	local := jointable.NewBuildLocal(schema)
	local.AppendRow(gtype.StorageValueFromInt64(1), []gtype.StorageValue{
		gtype.StorageValueFromInt64(1), gtype.StorageValueFromInt64('a'),
	})
	local.AppendRow(gtype.StorageValueFromInt64(2), []gtype.StorageValue{
		gtype.StorageValueFromInt64(2), gtype.StorageValueFromInt64('b'),
	})
	local.AppendRow(gtype.StorageValueFromInt64(2), []gtype.StorageValue{
		gtype.StorageValueFromInt64(2), gtype.StorageValueFromInt64('c'),
	})
	ht.MergeInto(local)

	var gotPayloads []int64
	ht.Probe(gtype.StorageValueFromInt64(2), func(tableIdx, rowIdx int) {
		gotPayloads = append(gotPayloads, ht.Tables[tableIdx].Columns[1][rowIdx].Int64())
	})
	ht.Probe(gtype.StorageValueFromInt64(3), func(tableIdx, rowIdx int) {
		t.Fatalf("should not match absent key 3")
	})

	want := []int64{'b', 'c'}
	if len(gotPayloads) != len(want) {
		t.Fatalf("matches = %v, want %v", gotPayloads, want)
	}
	for i, w := range want {
		if gotPayloads[i] != w {
			t.Fatalf("matches = %v, want %v", gotPayloads, want)
		}
	}
}

func TestMergeMultipleWorkersPreservesAllRows(t *testing.T) {
	t.Parallel()

	schema := []gtype.LogicalType{gtype.Int64()}
	ht := jointable.NewJoinHashTable(10)

	for w := 0; w < 3; w++ {
		local := jointable.NewBuildLocal(schema)
		for i := 0; i < 5; i++ {
			k := gtype.StorageValueFromInt64(int64(w*10 + i))
			local.AppendRow(k, []gtype.StorageValue{k})
		}
		ht.MergeInto(local)
	}

	for w := 0; w < 3; w++ {
		for i := 0; i < 5; i++ {
			k := gtype.StorageValueFromInt64(int64(w*10 + i))
			found := false
			ht.Probe(k, func(tableIdx, rowIdx int) { found = true })
			if !found {
				t.Fatalf("key %d not found after merge", k.Int64())
			}
		}
	}
}
