package codec

import "github.com/latticedb/graphcore/pkg/gtype"

// ConstantCodec stores zero payload bytes when every non-null value in a
// page is identical (spec.md §4.2). NumValues returns a sentinel "large"
// value since there is no per-value stride to invert.
type ConstantCodec struct{}

// SentinelNumValues is returned by NumValues for constant pages: the
// codec carries no stride, so callers must instead rely on the chunk's
// numValues metadata (page boundary is externally known).
const SentinelNumValues = 1 << 30

func (ConstantCodec) Analyze(values []gtype.StorageValue, nulls func(i int) bool) (Metadata, bool) {
	var first gtype.StorageValue
	haveFirst := false

	for i, v := range values {
		if nulls != nil && nulls(i) {
			continue
		}
		if !haveFirst {
			first = v
			haveFirst = true
			continue
		}
		if !first.Equal(v) {
			return Metadata{}, false
		}
	}

	if !haveFirst {
		// All-null page: still eligible, constant value is unspecified/zero.
		first = gtype.StorageValue{}
	}

	return Metadata{Min: first, Max: first, Kind: KindConstant}, true
}

func (ConstantCodec) CompressNextPage(values []gtype.StorageValue, srcCursor int, dst []byte, meta Metadata) (int, int) {
	// Zero payload bytes; consume the remainder of the buffer (constant
	// compression applies to the whole page at once).
	return 0, len(values) - srcCursor
}

func (ConstantCodec) DecompressFromPage(src []byte, srcOffset int, dst []gtype.StorageValue, dstOffset int, n int, meta Metadata) {
	for i := 0; i < n; i++ {
		dst[dstOffset+i] = meta.Min
	}
}

func (ConstantCodec) NumValues(pageBytes []byte, meta Metadata) int {
	return SentinelNumValues
}

// CanUpdateInPlace is true iff the new value equals the stored constant
// (spec.md §4.2, "In-place update": "Constant pages accept in-place only
// if the new value equals the stored constant.").
func (ConstantCodec) CanUpdateInPlace(value gtype.StorageValue, meta Metadata) bool {
	return value.Equal(meta.Min)
}
