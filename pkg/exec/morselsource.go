package exec

import (
	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/vector"
)

// SliceSource turns an in-memory column set into a pull-based Operator
// by chopping it into vector.Capacity-sized morsels — the bridge used
// when a scan's source is already fully materialized (e.g. a small
// catalog table) rather than a page-backed column chunk.
type SliceSource struct {
	types   []gtype.LogicalType
	columns [][]gtype.StorageValue
	cursor  int
}

func NewSliceSource(types []gtype.LogicalType, columns [][]gtype.StorageValue) *SliceSource {
	return &SliceSource{types: types, columns: columns}
}

func (s *SliceSource) GetNext() (Morsel, bool, error) {
	if len(s.columns) == 0 || s.cursor >= len(s.columns[0]) {
		return Morsel{}, false, nil
	}

	n := len(s.columns[0]) - s.cursor
	if n > vector.Capacity {
		n = vector.Capacity
	}

	vecs := make([]*vector.Vector, len(s.types))
	for c, t := range s.types {
		v := vector.New(t, n)
		v.Len = n
		for i := 0; i < n; i++ {
			v.SetStorageValue(i, s.columns[c][s.cursor+i])
		}
		vecs[c] = v
	}

	s.cursor += n
	return Morsel{Vectors: vecs, Len: n}, true, nil
}
