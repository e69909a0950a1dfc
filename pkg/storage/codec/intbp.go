package codec

import "github.com/latticedb/graphcore/pkg/gtype"

// chunkValues is the FastPFOR-style aligned chunk size integer bitpacking
// packs/unpacks at a time (spec.md §4.2).
const chunkValues = 32

// IntBitpackingCodec packs values (after subtracting the page minimum) at
// a fixed bit width per value, in 32-value aligned chunks. Width is the
// bit width computed by Analyze; width 0 means every value equals the
// page minimum (a degenerate case distinct from, but cheaper to decode
// than, the constant codec when the caller has already committed to
// bitpacking for other pages in the same column).
type IntBitpackingCodec struct {
	Width int
}

// BitWidth computes w = bitWidth(max-min) per spec.md §4.2. hasNegative
// does not add an extra sign bit here because values are stored as
// unsigned deltas from min (min <= every value, so the delta is already
// non-negative).
func BitWidth(minV, maxV gtype.StorageValue) int {
	var rng uint64
	if minV.Signed {
		rng = uint64(maxV.Int64() - minV.Int64())
	} else {
		rng = maxV.Uint64() - minV.Uint64()
	}
	if rng == 0 {
		return 0
	}
	w := 0
	for rng != 0 {
		w++
		rng >>= 1
	}
	return w
}

func (c IntBitpackingCodec) Analyze(values []gtype.StorageValue, nulls func(i int) bool) (Metadata, bool) {
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

	if !have {
		mn = gtype.StorageValue{HasValue: true}
		mx = mn
	}

	w := BitWidth(mn, mx)
	if w > 64 {
		return Metadata{}, false // caller must fall back to uncompressed
	}

	return Metadata{Min: mn, Max: mx, Kind: KindIntBitpacking}, true
}

// packChunk packs up to 32 deltas (value-min) at w bits each into dst,
// padding short trailing chunks with zero (i.e. with `min`, per spec.md
// §8 S4: "Compressed payload for 32 values (pad with min)").
func packChunk(deltas []uint64, w int, dst []byte) {
	if w == 0 {
		return
	}

	var bitPos int
	for _, d := range deltas {
		for b := 0; b < w; b++ {
			if d&(1<<uint(b)) != 0 {
				dst[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
}

func unpackChunk(src []byte, w int, n int, dst []uint64) {
	if w == 0 {
		for i := range dst[:n] {
			dst[i] = 0
		}
		return
	}

	var bitPos int
	for i := 0; i < n; i++ {
		var v uint64
		for b := 0; b < w; b++ {
			byteIdx := bitPos / 8
			bitIdx := uint(bitPos % 8)
			if src[byteIdx]&(1<<bitIdx) != 0 {
				v |= 1 << uint(b)
			}
			bitPos++
		}
		dst[i] = v
	}
}

// bytesPerChunk returns the packed byte size of one 32-value chunk at
// bit width w. Every width, byte-aligned ones included, is packed by the
// same bit-level loop; only width 0 skips it.
func bytesPerChunk(w int) int {
	return (chunkValues*w + 7) / 8
}

func (c IntBitpackingCodec) CompressNextPage(values []gtype.StorageValue, srcCursor int, dst []byte, meta Metadata) (int, int) {
	chunkBytes := bytesPerChunk(c.Width)
	if chunkBytes == 0 {
		return 0, len(values) - srcCursor
	}

	maxChunks := len(dst) / chunkBytes
	remaining := len(values) - srcCursor
	maxValuesByChunks := maxChunks * chunkValues

	n := remaining
	if n > maxValuesByChunks {
		n = maxValuesByChunks
	}

	written := 0
	var deltas [chunkValues]uint64

	for start := 0; start < n; start += chunkValues {
		end := start + chunkValues
		if end > n {
			end = n
		}

		for i := range deltas {
			deltas[i] = 0
		}
		for i := start; i < end; i++ {
			deltas[i-start] = delta(values[srcCursor+i], meta.Min)
		}

		packChunk(deltas[:], c.Width, dst[written:written+chunkBytes])
		written += chunkBytes
	}

	return written, n
}

func delta(v, min gtype.StorageValue) uint64 {
	if v.Signed {
		return uint64(v.Int64() - min.Int64())
	}
	return v.Uint64() - min.Uint64()
}

func (c IntBitpackingCodec) DecompressFromPage(src []byte, srcOffset int, dst []gtype.StorageValue, dstOffset int, n int, meta Metadata) {
	chunkBytes := bytesPerChunk(c.Width)

	remainingToSkip := srcOffset
	srcByte := 0

	// Skip whole chunks preceding srcOffset.
	skipChunks := remainingToSkip / chunkValues
	srcByte += skipChunks * chunkBytes
	posInChunk := remainingToSkip % chunkValues

	var buf [chunkValues]uint64
	produced := 0

	for produced < n {
		take := chunkValues - posInChunk
		if take > n-produced {
			take = n - produced
		}

		unpackChunk(src[srcByte:srcByte+chunkBytes], c.Width, posInChunk+take, buf[:])

		for i := 0; i < take; i++ {
			raw := buf[posInChunk+i]
			var sv gtype.StorageValue
			if meta.Min.Signed {
				sv = gtype.StorageValueFromInt64(meta.Min.Int64() + int64(raw))
			} else {
				sv = gtype.StorageValueFromUint64(meta.Min.Uint64() + raw)
			}
			dst[dstOffset+produced+i] = sv
		}

		produced += take
		srcByte += chunkBytes
		posInChunk = 0
	}
}

func (c IntBitpackingCodec) NumValues(pageBytes []byte, meta Metadata) int {
	chunkBytes := bytesPerChunk(c.Width)
	if chunkBytes == 0 {
		return 0
	}
	chunks := len(pageBytes) / chunkBytes
	return chunks * chunkValues
}

// CanUpdateInPlace is true iff writing value would not violate [min,max]
// and the existing bit width (spec.md §4.2).
func (c IntBitpackingCodec) CanUpdateInPlace(value gtype.StorageValue, meta Metadata) bool {
	if value.Signed != meta.Min.Signed {
		return false
	}
	if value.Less(meta.Min) || meta.Max.Less(value) {
		return false
	}
	return true
}
