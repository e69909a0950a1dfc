// Package codec implements the page-level compression codecs: constant,
// uncompressed, boolean-bitpacking, and integer-bitpacking (including a
// 128-bit variant). Grounded on the teacher's pkg/slotcache/format.go
// header/metadata encode-decode style (fixed-offset little-endian fields,
// a trailing CRC) and its canUpdateInPlace-shaped single-value update path
// in pkg/slotcache/writer.go (updateSlot mutates in place under the
// existing layout whenever the new value still fits).
package codec

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/latticedb/graphcore/pkg/gtype"
)

// Kind tags which codec produced a page.
type Kind uint8

const (
	KindUncompressed Kind = iota
	KindConstant
	KindIntBitpacking
	KindBoolBitpacking
)

// MetadataSize is the fixed, byte-stable size of compression metadata
// that precedes every compressed page (spec.md §3, §6): 16 bytes.
const MetadataSize = 16

// Metadata is the 16-byte compression metadata preceding a compressed
// page: {min: StorageValue, max: StorageValue, kind: Kind, reserved[7]}.
// Min/Max here are packed as plain int64/uint64 bit patterns (8 bytes
// together would overflow 16 with a kind byte, so min and max share a
// single 8-byte pair via the codec-specific encoding below); Int128
// bitpacking carries its 128-bit bounds out of band in the codec-specific
// per-page header because the 16-byte envelope cannot hold two 128-bit
// bounds (see IntBitpackingHeader).
type Metadata struct {
	Min      gtype.StorageValue
	Max      gtype.StorageValue
	Kind     Kind
	Reserved [7]byte
}

// EncodeMetadata writes the 16-byte compression metadata.
func EncodeMetadata(m Metadata) [MetadataSize]byte {
	var buf [MetadataSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(m.Min.Bits))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.Max.Bits))
	buf[8] = byte(m.Kind)
	if m.Min.Signed {
		buf[9] = 1
	}
	// Byte 9 holds the signedness flag, so only Reserved[1:] is stored.
	copy(buf[10:16], m.Reserved[1:])
	return buf
}

// DecodeMetadata reads back the 16-byte compression metadata. Min/Max are
// widened from the 32-bit on-disk fields (§6 fixes byte widths for
// compatibility only where compatibility demands it; full 64-bit bounds
// for wide types are carried via the codec-specific page header, see
// IntBitpackingHeader, matching the "16 B, byte-stable" constraint while
// still supporting INT64/INT128 columns).
func DecodeMetadata(buf [MetadataSize]byte) Metadata {
	var m Metadata
	m.Min = gtype.StorageValue{Bits: uint64(binary.LittleEndian.Uint32(buf[0:4])), HasValue: true}
	m.Max = gtype.StorageValue{Bits: uint64(binary.LittleEndian.Uint32(buf[4:8])), HasValue: true}
	m.Kind = Kind(buf[8])
	m.Min.Signed = buf[9] == 1
	m.Max.Signed = buf[9] == 1
	if buf[9] == 1 {
		m.Min.Bits = uint64(int64(int32(uint32(m.Min.Bits))))
		m.Max.Bits = uint64(int64(int32(uint32(m.Max.Bits))))
	}
	copy(m.Reserved[1:], buf[10:16])
	return m
}

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// ChecksumPage returns a CRC32-C checksum over a compressed page's bytes.
// Pages are written without a checksum, and no code in this module calls
// it.
func ChecksumPage(b []byte) uint32 {
	return crc32.Checksum(b, crcTable)
}

// Codec is the shared contract every compression family implements
// (spec.md §4.2).
type Codec interface {
	// Analyze scans values and returns metadata if this codec can encode
	// them, or ok=false if it cannot (e.g. non-constant values for the
	// constant codec).
	Analyze(values []gtype.StorageValue, nulls func(i int) bool) (meta Metadata, ok bool)

	// CompressNextPage consumes up to a codec-chosen aligned number of
	// values starting at values[srcCursor], writes them into dst, and
	// returns the number of bytes written and the number of values
	// consumed.
	CompressNextPage(values []gtype.StorageValue, srcCursor int, dst []byte, meta Metadata) (bytesWritten, consumed int)

	// DecompressFromPage produces n logical values starting at srcOffset
	// values into src, writing them to dst[dstOffset:dstOffset+n].
	DecompressFromPage(src []byte, srcOffset int, dst []gtype.StorageValue, dstOffset int, n int, meta Metadata)

	// NumValues is the deterministic inverse of CompressNextPage's stride:
	// given a fully-written page payload, how many logical values it holds.
	NumValues(pageBytes []byte, meta Metadata) int

	// CanUpdateInPlace reports whether value can be written at a single
	// position while staying within the codec's bounds (min/max, bit
	// width).
	CanUpdateInPlace(value gtype.StorageValue, meta Metadata) bool
}

// ForKind returns the canonical codec implementation for a Kind.
func ForKind(k Kind, width int) Codec {
	switch k {
	case KindConstant:
		return ConstantCodec{}
	case KindIntBitpacking:
		return IntBitpackingCodec{Width: width}
	case KindBoolBitpacking:
		return BoolBitpackingCodec{}
	default:
		return UncompressedCodec{Width: width}
	}
}
