package column_test

import (
	"path/filepath"
	"testing"

	"github.com/latticedb/graphcore/pkg/fs"
	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/storage/column"
	"github.com/latticedb/graphcore/pkg/storage/page"
	"github.com/latticedb/graphcore/pkg/vector"
)

func TestFlushAndReadPageRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	handle, err := page.Open(fs.NewReal(), filepath.Join(dir, "col"), 0)
	if err != nil {
		t.Fatalf("page.Open: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })

	chunk := column.Open(handle, gtype.Int64())

	values := make([]gtype.StorageValue, 100)
	for i := range values {
		values[i] = gtype.StorageValueFromInt64(int64(i * 3))
	}

	if err := chunk.FlushPage(0, values, func(i int) bool { return false }); err != nil {
		t.Fatalf("flush: %v", err)
	}

	dst := vector.New(gtype.Int64(), 100)
	if err := chunk.ReadPage(0, dst, 0); err != nil {
		t.Fatalf("read: %v", err)
	}

	for i := range values {
		if got := dst.GetInt64(i); got != int64(i*3) {
			t.Fatalf("value %d = %d, want %d", i, got, i*3)
		}
	}
}

func TestFlushConstantPage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	handle, err := page.Open(fs.NewReal(), filepath.Join(dir, "col"), 0)
	if err != nil {
		t.Fatalf("page.Open: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })

	chunk := column.Open(handle, gtype.Int64())

	values := make([]gtype.StorageValue, 50)
	for i := range values {
		values[i] = gtype.StorageValueFromInt64(7)
	}

	if err := chunk.FlushPage(0, values, func(i int) bool { return false }); err != nil {
		t.Fatalf("flush: %v", err)
	}

	dst := vector.New(gtype.Int64(), 50)
	if err := chunk.ReadPage(0, dst, 0); err != nil {
		t.Fatalf("read: %v", err)
	}

	for i := range values {
		if got := dst.GetInt64(i); got != 7 {
			t.Fatalf("value %d = %d, want 7", i, got)
		}
	}
}

func TestFlushAndReadPagePreservesNullMask(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	handle, err := page.Open(fs.NewReal(), filepath.Join(dir, "col"), 0)
	if err != nil {
		t.Fatalf("page.Open: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })

	chunk := column.Open(handle, gtype.Int64())

	values := make([]gtype.StorageValue, 20)
	isNull := make([]bool, 20)
	for i := range values {
		values[i] = gtype.StorageValueFromInt64(int64(i))
		isNull[i] = i%3 == 0
	}

	if err := chunk.FlushPage(0, values, func(i int) bool { return isNull[i] }); err != nil {
		t.Fatalf("flush: %v", err)
	}

	dst := vector.New(gtype.Int64(), 20)
	if err := chunk.ReadPage(0, dst, 0); err != nil {
		t.Fatalf("read: %v", err)
	}

	for i := range values {
		if dst.IsNull(i) != isNull[i] {
			t.Fatalf("value %d IsNull = %v, want %v", i, dst.IsNull(i), isNull[i])
		}
	}
}

func TestFlushBoolPage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	handle, err := page.Open(fs.NewReal(), filepath.Join(dir, "col"), 0)
	if err != nil {
		t.Fatalf("page.Open: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })

	chunk := column.Open(handle, gtype.Bool())

	values := []gtype.StorageValue{
		gtype.StorageValueFromInt64(1),
		gtype.StorageValueFromInt64(0),
		gtype.StorageValueFromInt64(1),
	}

	if err := chunk.FlushPage(0, values, func(i int) bool { return false }); err != nil {
		t.Fatalf("flush: %v", err)
	}

	dst := vector.New(gtype.Bool(), 3)
	if err := chunk.ReadPage(0, dst, 0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if dst.GetInt64(0) != 1 || dst.GetInt64(1) != 0 || dst.GetInt64(2) != 1 {
		t.Fatalf("bool roundtrip mismatch")
	}
}
