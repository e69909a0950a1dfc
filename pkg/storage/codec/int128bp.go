package codec

import "github.com/latticedb/graphcore/pkg/gtype"

// Int128Header carries the min/max bounds and bit width for an INT128
// bitpacked page, outside the 16-byte Metadata envelope (pkg/storage/column
// does not write it; its pages hold only the Metadata), since a 128-bit
// min and a 128-bit max do
// not fit inside the fixed 16-byte Metadata (spec.md §3's "Compression
// metadata (16 B, byte-stable)" scopes that fixed size to the common
// fixed-width case; spec.md §4.2 calls out 128-bit integers as using
// "the same 32-value chunk" with a width-dispatched routine, which this
// header supplies the extra bounds for).
type Int128Header struct {
	Min   gtype.Int128
	Max   gtype.Int128
	Width int
}

const Int128HeaderSize = 36 // min (16) + max (16) + width (4), as EncodeInt128Header writes

// EncodeInt128Header serializes {min.hi,min.lo,max.hi,max.lo,width} as
// 4*8 + 4 = 36 bytes, little-endian.
func EncodeInt128Header(h Int128Header) []byte {
	buf := make([]byte, 36)
	putI64(buf[0:8], h.Min.Hi)
	putU64(buf[8:16], h.Min.Lo)
	putI64(buf[16:24], h.Max.Hi)
	putU64(buf[24:32], h.Max.Lo)
	putU32(buf[32:36], uint32(h.Width))
	return buf
}

func DecodeInt128Header(buf []byte) Int128Header {
	return Int128Header{
		Min:   gtype.Int128{Hi: getI64(buf[0:8]), Lo: getU64(buf[8:16])},
		Max:   gtype.Int128{Hi: getI64(buf[16:24]), Lo: getU64(buf[24:32])},
		Width: int(getU32(buf[32:36])),
	}
}

func putI64(b []byte, v int64) { putU64(b, uint64(v)) }
func getI64(b []byte) int64    { return int64(getU64(b)) }

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
func getU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}
func putU32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
func getU32(b []byte) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(b[i]) << (8 * uint(i))
	}
	return v
}

// AnalyzeInt128 computes the header for a buffer of Int128 values,
// skipping positions where nulls(i) is true.
func AnalyzeInt128(values []gtype.Int128, nulls func(i int) bool) Int128Header {
	var mn, mx gtype.Int128
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
		if v.Less(mn) {
			mn = v
		}
		if mx.Less(v) {
			mx = v
		}
	}

	if !have {
		mn, mx = gtype.Int128{}, gtype.Int128{}
	}

	w := mx.Sub(mn).BitLen()
	if w > 128 {
		w = 128
	}

	return Int128Header{Min: mn, Max: mx, Width: w}
}

// Int128BitpackingCodec packs Int128 values using the same 32-value
// aligned chunking as IntBitpackingCodec. Every width goes through the
// same generic per-bit loop over the two 64-bit halves; only width 0 is
// special-cased (no payload). There are no width-specialized routines
// for 32, 64, 96 or 128.
type Int128BitpackingCodec struct {
	Header Int128Header
}

func (c Int128BitpackingCodec) CompressNextPage(values []gtype.Int128, srcCursor int, dst []byte) (bytesWritten, consumed int) {
	w := c.Header.Width
	chunkBytes := bytesPerChunk(w)
	if chunkBytes == 0 {
		return 0, len(values) - srcCursor
	}

	maxChunks := len(dst) / chunkBytes
	remaining := len(values) - srcCursor
	n := remaining
	if n > maxChunks*chunkValues {
		n = maxChunks * chunkValues
	}

	written := 0
	for start := 0; start < n; start += chunkValues {
		end := start + chunkValues
		if end > n {
			end = n
		}

		var bitPos int
		pageChunk := dst[written : written+chunkBytes]
		for i := start; i < end; i++ {
			d := values[srcCursor+i].Sub(c.Header.Min)
			for b := 0; b < w; b++ {
				var bit uint64
				if b < 64 {
					bit = d.Lo >> uint(b) & 1
				} else {
					bit = uint64(d.Hi) >> uint(b-64) & 1
				}
				if bit != 0 {
					pageChunk[bitPos/8] |= 1 << uint(bitPos%8)
				}
				bitPos++
			}
		}
		// Padding values in a short trailing chunk are implicitly zero
		// delta (i.e. equal to min), matching the 64-bit codec's
		// pad-with-min behavior.
		written += chunkBytes
	}

	return written, n
}

func (c Int128BitpackingCodec) DecompressFromPage(src []byte, srcOffset int, dst []gtype.Int128, dstOffset int, n int) {
	w := c.Header.Width
	chunkBytes := bytesPerChunk(w)

	skipChunks := srcOffset / chunkValues
	srcByte := skipChunks * chunkBytes
	posInChunk := srcOffset % chunkValues

	produced := 0
	for produced < n {
		take := chunkValues - posInChunk
		if take > n-produced {
			take = n - produced
		}

		chunk := src[srcByte : srcByte+chunkBytes]
		for i := 0; i < take; i++ {
			idx := posInChunk + i
			var lo uint64
			var hi int64
			bitPos := idx * w
			for b := 0; b < w; b++ {
				byteIdx := (bitPos + b) / 8
				bitIdx := uint((bitPos + b) % 8)
				bit := (chunk[byteIdx] >> bitIdx) & 1
				if bit != 0 {
					if b < 64 {
						lo |= 1 << uint(b)
					} else {
						hi |= 1 << uint(b-64)
					}
				}
			}
			dst[dstOffset+produced+i] = c.Header.Min.Add(gtype.Int128{Hi: hi, Lo: lo})
		}

		produced += take
		srcByte += chunkBytes
		posInChunk = 0
	}
}

func (c Int128BitpackingCodec) NumValues(pageBytes []byte) int {
	chunkBytes := bytesPerChunk(c.Header.Width)
	if chunkBytes == 0 {
		return 0
	}
	return (len(pageBytes) / chunkBytes) * chunkValues
}

func (c Int128BitpackingCodec) CanUpdateInPlace(value gtype.Int128) bool {
	if value.Less(c.Header.Min) || c.Header.Max.Less(value) {
		return false
	}
	return true
}
