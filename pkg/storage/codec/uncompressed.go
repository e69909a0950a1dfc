package codec

import (
	"encoding/binary"

	"github.com/latticedb/graphcore/pkg/gtype"
)

// UncompressedCodec is the fallback codec: each value occupies Width
// bytes verbatim, little-endian.
type UncompressedCodec struct {
	Width int
}

func (c UncompressedCodec) Analyze(values []gtype.StorageValue, nulls func(i int) bool) (Metadata, bool) {
	var mn, mx gtype.StorageValue
	have := false

	for i, v := range values {
		if nulls != nil && nulls(i) {
			continue
		}
		if !have {
			mn, mx = v, v
			have = true
			continue
		}
		mn = gtype.Min(mn, v)
		mx = gtype.Max(mx, v)
	}

	return Metadata{Min: mn, Max: mx, Kind: KindUncompressed}, true
}

func (c UncompressedCodec) CompressNextPage(values []gtype.StorageValue, srcCursor int, dst []byte, meta Metadata) (int, int) {
	n := (len(dst)) / c.Width
	if n > len(values)-srcCursor {
		n = len(values) - srcCursor
	}

	for i := 0; i < n; i++ {
		putWidth(dst[i*c.Width:], values[srcCursor+i].Bits, c.Width)
	}

	return n * c.Width, n
}

func (c UncompressedCodec) DecompressFromPage(src []byte, srcOffset int, dst []gtype.StorageValue, dstOffset int, n int, meta Metadata) {
	for i := 0; i < n; i++ {
		bits := getWidth(src[(srcOffset+i)*c.Width:], c.Width)
		dst[dstOffset+i] = gtype.StorageValue{Bits: bits, HasValue: true, Signed: meta.Min.Signed}
	}
}

func (c UncompressedCodec) NumValues(pageBytes []byte, meta Metadata) int {
	if c.Width == 0 {
		return 0
	}
	return len(pageBytes) / c.Width
}

func (c UncompressedCodec) CanUpdateInPlace(value gtype.StorageValue, meta Metadata) bool {
	return true
}

func putWidth(b []byte, v uint64, width int) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

func getWidth(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}
