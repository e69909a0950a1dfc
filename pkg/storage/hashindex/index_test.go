package hashindex_test

import (
	"path/filepath"
	"testing"

	"github.com/latticedb/graphcore/pkg/fs"
	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/storage/hashindex"
	"github.com/latticedb/graphcore/pkg/storage/page"
)

func openIndex(t *testing.T) *hashindex.Index {
	t.Helper()
	dir := t.TempDir()
	handle, err := page.Open(fs.NewReal(), filepath.Join(dir, "idx"), 0)
	if err != nil {
		t.Fatalf("page.Open: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })

	idx, err := hashindex.Open(handle, 1)
	if err != nil {
		t.Fatalf("hashindex.Open: %v", err)
	}
	return idx
}

func TestInsertLookupDelete(t *testing.T) {
	t.Parallel()

	idx := openIndex(t)

	k := gtype.StorageValueFromInt64(42)
	if err := idx.Insert(k, 100); err != nil {
		t.Fatalf("insert: %v", err)
	}

	nodeID, found, err := idx.Lookup(k)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found || nodeID != 100 {
		t.Fatalf("lookup = (%d, %v), want (100, true)", nodeID, found)
	}

	if err := idx.Delete(k); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, found, err = idx.Lookup(k)
	if err != nil {
		t.Fatalf("lookup after delete: %v", err)
	}
	if found {
		t.Fatalf("lookup after delete should not find key")
	}
}

func TestSplitAcrossManyInserts(t *testing.T) {
	t.Parallel()

	idx := openIndex(t)

	const n = 2000
	for i := 0; i < n; i++ {
		k := gtype.StorageValueFromInt64(int64(i))
		if err := idx.Insert(k, uint64(i)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	for i := 0; i < n; i++ {
		k := gtype.StorageValueFromInt64(int64(i))
		nodeID, found, err := idx.Lookup(k)
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if !found || nodeID != uint64(i) {
			t.Fatalf("lookup %d = (%d, %v), want (%d, true)", i, nodeID, found, i)
		}
	}
}

func TestOverlayIsolatesUncommittedWrites(t *testing.T) {
	t.Parallel()

	idx := openIndex(t)

	k := gtype.StorageValueFromInt64(7)
	idx.BeginTxn()

	if err := idx.Insert(k, 9); err != nil {
		t.Fatalf("insert: %v", err)
	}

	nodeID, found, err := idx.Lookup(k)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found || nodeID != 9 {
		t.Fatalf("overlay lookup = (%d, %v), want (9, true)", nodeID, found)
	}

	idx.Rollback()

	_, found, err = idx.Lookup(k)
	if err != nil {
		t.Fatalf("lookup after rollback: %v", err)
	}
	if found {
		t.Fatalf("rolled-back overlay insert should not be visible")
	}

	idx.BeginTxn()
	if err := idx.Insert(k, 11); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := idx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	nodeID, found, err = idx.Lookup(k)
	if err != nil {
		t.Fatalf("lookup after commit: %v", err)
	}
	if !found || nodeID != 11 {
		t.Fatalf("lookup after commit = (%d, %v), want (11, true)", nodeID, found)
	}
}
