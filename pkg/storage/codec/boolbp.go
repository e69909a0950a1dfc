package codec

import "github.com/latticedb/graphcore/pkg/gtype"

// BoolBitpackingCodec packs 8 boolean values per byte, little-endian bit
// order (spec.md §4.2). Null bits live in a separate null-mask chunk, not
// encoded here, so every position (including logically-null ones) still
// gets a bit written — its value is simply unspecified/ignored on read.
type BoolBitpackingCodec struct{}

func (BoolBitpackingCodec) Analyze(values []gtype.StorageValue, nulls func(i int) bool) (Metadata, bool) {
	return Metadata{Kind: KindBoolBitpacking}, true
}

func (BoolBitpackingCodec) CompressNextPage(values []gtype.StorageValue, srcCursor int, dst []byte, meta Metadata) (int, int) {
	n := len(dst) * 8
	if n > len(values)-srcCursor {
		n = len(values) - srcCursor
	}

	bytesNeeded := (n + 7) / 8
	for i := 0; i < n; i++ {
		if values[srcCursor+i].Bits != 0 {
			dst[i/8] |= 1 << uint(i%8)
		}
	}

	return bytesNeeded, n
}

func (BoolBitpackingCodec) DecompressFromPage(src []byte, srcOffset int, dst []gtype.StorageValue, dstOffset int, n int, meta Metadata) {
	for i := 0; i < n; i++ {
		pos := srcOffset + i
		bit := (src[pos/8] >> uint(pos%8)) & 1
		dst[dstOffset+i] = gtype.StorageValue{Bits: uint64(bit), HasValue: true}
	}
}

func (BoolBitpackingCodec) NumValues(pageBytes []byte, meta Metadata) int {
	return len(pageBytes) * 8
}

func (BoolBitpackingCodec) CanUpdateInPlace(value gtype.StorageValue, meta Metadata) bool {
	return true
}
