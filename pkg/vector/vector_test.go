package vector_test

import (
	"testing"

	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/vector"
)

func TestFlatVectorSetGet(t *testing.T) {
	t.Parallel()

	v := vector.New(gtype.Int64(), vector.Capacity)
	v.Len = 3
	v.SetInt64(0, 10)
	v.SetInt64(1, 20)
	v.SetInt64(2, 30)
	v.SetNull(1, true)

	if got := v.GetInt64(0); got != 10 {
		t.Fatalf("v[0] = %d, want 10", got)
	}
	if !v.IsNull(1) {
		t.Fatalf("v[1] should be null")
	}
	if v.IsNull(2) {
		t.Fatalf("v[2] should not be null")
	}
}

func TestSelectionVectorIndirection(t *testing.T) {
	t.Parallel()

	v := vector.New(gtype.Int64(), vector.Capacity)
	v.Len = 4
	for i := 0; i < 4; i++ {
		v.SetInt64(i, int64(i*100))
	}

	sliced := v.Slice([]uint32{3, 1})
	if sliced.Len != 2 {
		t.Fatalf("sliced len = %d, want 2", sliced.Len)
	}
	if got := sliced.GetInt64(0); got != 300 {
		t.Fatalf("sliced[0] = %d, want 300", got)
	}
	if got := sliced.GetInt64(1); got != 100 {
		t.Fatalf("sliced[1] = %d, want 100", got)
	}
}

func TestResetReturnsToFlatEmpty(t *testing.T) {
	t.Parallel()

	v := vector.New(gtype.Bool(), vector.Capacity)
	v.Len = 2
	v.SetNull(0, true)
	v.Sel = []uint32{1, 0}

	v.Reset()

	if v.Len != 0 || !v.IsFlat() {
		t.Fatalf("reset vector should be flat and zero-length")
	}
	if v.IsNull(0) {
		t.Fatalf("reset vector should clear null mask")
	}
}

func TestStructVectorHasOneChildPerField(t *testing.T) {
	t.Parallel()

	st := gtype.Struct(
		gtype.StructField{Name: "a", Type: gtype.Int32()},
		gtype.StructField{Name: "b", Type: gtype.String()},
	)
	v := vector.New(st, vector.Capacity)

	if v.Child(0).Type.Kind != gtype.INT32 {
		t.Fatalf("child 0 kind = %v, want INT32", v.Child(0).Type.Kind)
	}
	if v.Child(1).Type.Kind != gtype.STRING {
		t.Fatalf("child 1 kind = %v, want STRING", v.Child(1).Type.Kind)
	}
}
