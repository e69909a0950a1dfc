// Package vector implements value vectors, the unit of data exchanged
// between execution operators (spec.md §5, §6, component F).
//
// Grounded on the teacher's pkg/slotcache scan-result buffering
// (slotcache/scan.go batches Entry values behind a reusable cursor) and
// generalized into a columnar, selection-vector-driven batch the way
// the rest of the corpus's columnar engines do it: a vector holds up to
// Capacity values of one PhysicalKind, a null mask, and either no
// selection (flat, contiguous) or an explicit index list (unflat, the
// result of a filter/join that produced a sparse subset). RoaringBitmap
// backs the null mask (DOMAIN STACK: RoaringBitmap wired into both the
// hash index's overlay tombstones and here) since a mostly-non-null
// vector's absent bits compress to almost nothing, and RoaringBitmap's
// word-batched iteration is what the join-probe operators want when
// skipping nulled join keys.
package vector

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/latticedb/graphcore/pkg/gtype"
)

// Capacity is the maximum number of values one vector holds (spec.md
// §6: "vector capacity: 2048").
const Capacity = 2048

// SelVector is an explicit list of logical positions into a Vector's
// backing storage; nil means "flat" (positions 0..Len-1 in order).
type SelVector []uint32

// Vector is one column's worth of values for one morsel.
type Vector struct {
	Type  gtype.LogicalType
	Len   int
	Sel   SelVector // nil when flat
	Nulls *roaring.Bitmap

	// fixed holds FixedWidth()-sized values packed contiguously, indexed
	// by backing position (not by Sel).
	fixed []byte

	// children holds the nested Vectors: one per STRUCT field, or the
	// single element vector of a LIST/ARRAY. STRUCT vectors use children
	// only; LIST vectors also keep their 8-byte entries in fixed.
	children []*Vector
}

// New allocates a flat, all-valid vector of the given type and backing
// capacity (callers reuse vectors across morsels rather than
// reallocating per spec.md's morsel-based parallelism).
func New(t gtype.LogicalType, capacity int) *Vector {
	v := &Vector{Type: t, Nulls: roaring.New()}

	switch t.Kind {
	case gtype.STRUCT:
		v.children = make([]*Vector, len(t.Fields))
		for i, f := range t.Fields {
			v.children[i] = New(f.Type, capacity)
		}
	case gtype.LIST, gtype.ARRAY:
		child := New(*t.Child, capacity)
		v.children = []*Vector{child}
		v.fixed = make([]byte, capacity*t.Kind.FixedWidth())
	default:
		width := t.Kind.FixedWidth()
		if width == 0 {
			width = 1
		}
		v.fixed = make([]byte, capacity*width)
	}

	return v
}

// IsFlat reports whether the vector has no selection vector.
func (v *Vector) IsFlat() bool { return v.Sel == nil }

// PosAt maps a logical index (0..Len-1) to its backing storage position,
// honoring an active selection vector.
func (v *Vector) PosAt(i int) int {
	if v.Sel == nil {
		return i
	}
	return int(v.Sel[i])
}

// IsNull reports whether the logical value at i is null.
func (v *Vector) IsNull(i int) bool {
	return v.Nulls.Contains(uint32(v.PosAt(i)))
}

func (v *Vector) SetNull(pos int, isNull bool) {
	if isNull {
		v.Nulls.Add(uint32(pos))
	} else {
		v.Nulls.Remove(uint32(pos))
	}
}

// Reset clears a vector back to flat, zero-length, all-valid state for
// reuse on the next morsel.
func (v *Vector) Reset() {
	v.Len = 0
	v.Sel = nil
	v.Nulls.Clear()
}

// Child returns the i-th nested vector (STRUCT field, or the single
// LIST/ARRAY element vector at index 0).
func (v *Vector) Child(i int) *Vector { return v.children[i] }

// Slice applies a selection vector, producing an unflat view over a
// subset of backing positions — used after a filter or a join probe
// narrows a morsel to its matching rows (spec.md §6: "operators
// communicate through selection vectors rather than copying data").
func (v *Vector) Slice(positions []uint32) *Vector {
	out := *v
	out.Sel = positions
	out.Len = len(positions)
	return &out
}
