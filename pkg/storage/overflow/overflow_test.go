package overflow_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/latticedb/graphcore/pkg/fs"
	"github.com/latticedb/graphcore/pkg/storage/overflow"
	"github.com/latticedb/graphcore/pkg/storage/page"
)

func openFile(t *testing.T) *overflow.File {
	t.Helper()
	dir := t.TempDir()
	handle, err := page.Open(fs.NewReal(), filepath.Join(dir, "ovf"), 0)
	if err != nil {
		t.Fatalf("page.Open: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })
	return overflow.Open(handle, overflow.Cursor{})
}

func TestStringExactlyInlineCapacityBoundary(t *testing.T) {
	t.Parallel()

	f := openFile(t)

	short := bytes.Repeat([]byte{'a'}, overflow.InlineCapacity)
	fp, err := f.AppendString(short)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !fp.IsInline() {
		t.Fatalf("a %d-byte string should be inline (boundary = %d)", len(short), overflow.InlineCapacity)
	}

	got, err := f.ReadString(fp)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, short) {
		t.Fatalf("round trip mismatch: got %q want %q", got, short)
	}
}

func TestStringOneByteOverInlineCapacitySpillsToOverflow(t *testing.T) {
	t.Parallel()

	f := openFile(t)

	long := bytes.Repeat([]byte{'b'}, overflow.InlineCapacity+1)
	fp, err := f.AppendString(long)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if fp.IsInline() {
		t.Fatalf("a %d-byte string should not be inline", len(long))
	}

	got, err := f.ReadString(fp)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, long) {
		t.Fatalf("round trip mismatch: got %q want %q", got, long)
	}
}

func TestStringSpanningMultiplePages(t *testing.T) {
	t.Parallel()

	f := openFile(t)

	payload := bytes.Repeat([]byte{'x'}, page.Size*2+17)
	fp, err := f.AppendString(payload)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := f.ReadString(fp)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("multi-page round trip mismatch (got %d bytes, want %d)", len(got), len(payload))
	}
}

func TestEmptyListRoundTrip(t *testing.T) {
	t.Parallel()

	f := openFile(t)

	fp, err := f.AppendList(0, 1, func(i int) []byte { return nil })
	if err != nil {
		t.Fatalf("append list: %v", err)
	}

	n, childTag, elems, err := f.ReadList(fp, 8)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	if n != 0 || childTag != 1 || len(elems) != 0 {
		t.Fatalf("empty list round trip = (%d, %d, %v), want (0, 1, [])", n, childTag, elems)
	}
}

func TestListRoundTrip(t *testing.T) {
	t.Parallel()

	f := openFile(t)

	values := []uint64{10, 20, 30, 40}
	fp, err := f.AppendList(len(values), 2, func(i int) []byte {
		b := make([]byte, 8)
		for j := 0; j < 8; j++ {
			b[j] = byte(values[i] >> (8 * j))
		}
		return b
	})
	if err != nil {
		t.Fatalf("append list: %v", err)
	}

	n, childTag, elems, err := f.ReadList(fp, 8)
	if err != nil {
		t.Fatalf("read list: %v", err)
	}
	if n != len(values) || childTag != 2 {
		t.Fatalf("list header = (%d, %d), want (%d, 2)", n, childTag, len(values))
	}
	for i, want := range values {
		var got uint64
		for j := 0; j < 8; j++ {
			got |= uint64(elems[i][j]) << (8 * j)
		}
		if got != want {
			t.Fatalf("element %d = %d, want %d", i, got, want)
		}
	}
}

func TestTxnGuardRollbackRestoresCursor(t *testing.T) {
	t.Parallel()

	f := openFile(t)
	guard := overflow.NewTxnGuard(f)

	// Commit one string outside any transaction so the pre-transaction
	// cursor is non-zero.
	if _, err := f.AppendString(bytes.Repeat([]byte{'c'}, 20)); err != nil {
		t.Fatalf("append: %v", err)
	}
	preTxnCursor := f.Cursor()

	guard.BeforeFirstWrite()
	if _, err := f.AppendString(bytes.Repeat([]byte{'d'}, 20)); err != nil {
		t.Fatalf("append during txn: %v", err)
	}
	if f.Cursor() == preTxnCursor {
		t.Fatalf("cursor should have advanced during the transaction")
	}

	guard.Rollback()

	if f.Cursor() != preTxnCursor {
		t.Fatalf("rollback should restore cursor to %+v, got %+v", preTxnCursor, f.Cursor())
	}
}

func TestTxnGuardCommitKeepsCursorAdvance(t *testing.T) {
	t.Parallel()

	f := openFile(t)
	guard := overflow.NewTxnGuard(f)

	guard.BeforeFirstWrite()
	if _, err := f.AppendString(bytes.Repeat([]byte{'e'}, 20)); err != nil {
		t.Fatalf("append: %v", err)
	}
	advanced := f.Cursor()

	guard.Commit()

	if f.Cursor() != advanced {
		t.Fatalf("commit must not move the cursor: got %+v, want %+v", f.Cursor(), advanced)
	}
}
