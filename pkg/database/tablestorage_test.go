package database

import (
	"testing"

	"github.com/latticedb/graphcore/pkg/catalog"
	"github.com/latticedb/graphcore/pkg/fs"
	"github.com/latticedb/graphcore/pkg/gtype"
)

func openTestTableStorage(t *testing.T) *NodeTableStorage {
	t.Helper()

	table := &catalog.Table{
		ID:   1,
		Name: "person",
		Columns: []catalog.Column{
			{Name: "id", Type: gtype.Int64()},
			{Name: "age", Type: gtype.Int64()},
		},
	}

	storage, err := OpenNodeTableStorage(fs.NewReal(), t.TempDir(), table, nil)
	if err != nil {
		t.Fatalf("OpenNodeTableStorage: %v", err)
	}
	return storage
}

func scanAll(t *testing.T, s *NodeTableStorage) (ids, ages []gtype.StorageValue, ageNull []bool) {
	t.Helper()
	op := s.Scan([]int{0, 1})
	for {
		m, ok, err := op.GetNext()
		if err != nil {
			t.Fatalf("GetNext: %v", err)
		}
		if !ok {
			return
		}
		for r := 0; r < m.Len; r++ {
			ids = append(ids, m.Vectors[0].GetStorageValue(r))
			ages = append(ages, m.Vectors[1].GetStorageValue(r))
			ageNull = append(ageNull, m.Vectors[1].IsNull(r))
		}
	}
}

// TestInsertPreservesNullAcrossStagedTail covers the un-flushed staged
// rows path (tableScanOperator.GetNext's tail scan), which must
// propagate nulls the same way a flushed page does.
func TestInsertPreservesNullAcrossStagedTail(t *testing.T) {
	t.Parallel()

	s := openTestTableStorage(t)

	if _, err := s.Insert([]gtype.StorageValue{
		gtype.StorageValueFromInt64(1), gtype.StorageValueFromInt64(30),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Insert([]gtype.StorageValue{
		gtype.StorageValueFromInt64(2), {},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, ages, ageNull := scanAll(t, s)
	if len(ages) != 2 {
		t.Fatalf("scanned %d rows, want 2", len(ages))
	}
	if ageNull[0] {
		t.Fatalf("row 0 age should not be null")
	}
	if !ageNull[1] {
		t.Fatalf("row 1 age should be null")
	}
}

// TestInsertPreservesNullAcrossFlushedPage covers the flushed-page path
// (column.Chunk.FlushPage/ReadPage's null sub-chunk).
func TestInsertPreservesNullAcrossFlushedPage(t *testing.T) {
	t.Parallel()

	s := openTestTableStorage(t)

	for i := 0; i < 5; i++ {
		age := gtype.StorageValueFromInt64(int64(i))
		if i == 2 {
			age = gtype.StorageValue{}
		}
		if _, err := s.Insert([]gtype.StorageValue{
			gtype.StorageValueFromInt64(int64(i)), age,
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	_, ages, ageNull := scanAll(t, s)
	if len(ages) != 5 {
		t.Fatalf("scanned %d rows, want 5", len(ages))
	}
	for i := range ageNull {
		want := i == 2
		if ageNull[i] != want {
			t.Fatalf("row %d IsNull = %v, want %v", i, ageNull[i], want)
		}
	}
}
