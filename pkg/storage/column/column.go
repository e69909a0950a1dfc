// Package column implements column chunks: the append/flush path that
// packs a sequence of values into compressed pages, and the read path
// that decompresses a page back into a vector.Vector (spec.md §2, §4.2,
// component C).
//
// Grounded on the teacher's pkg/mddb reindex/write path (values batched
// in memory, then flushed as a unit) and pkg/storage/codec for the
// actual per-page compression; a ColumnChunk's job is choosing which
// codec pays off for a given page's value distribution, the same
// cost-based choice the teacher's reindex makes between a full rebuild
// and an incremental update.
package column

import (
	"fmt"

	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/storage/codec"
	"github.com/latticedb/graphcore/pkg/storage/page"
	"github.com/latticedb/graphcore/pkg/vector"
)

// Chunk is one column's on-disk page sequence for one node/rel table.
type Chunk struct {
	handle *page.FileHandle
	typ    gtype.LogicalType
	// valuesPerPage[i] is how many values FlushPage wrote into page i;
	// values are addressed as (pageIdx, offsetWithinPage) pairs.
	valuesPerPage []int
}

func Open(handle *page.FileHandle, typ gtype.LogicalType) *Chunk {
	return &Chunk{handle: handle, typ: typ}
}

// FlushPage compresses values (and their null mask) into page pageIdx,
// choosing the cheapest codec whose CanUpdateInPlace/Analyze accepts the
// page's value distribution: constant first (cheapest read, requires
// every non-null value equal), then bitpacking sized to the page's
// actual min/max range, falling back to uncompressed only when neither
// applies (spec.md §2: "the codec chosen must be the cheapest that
// still fits").
func (c *Chunk) FlushPage(pageIdx page.Index, values []gtype.StorageValue, isNull func(i int) bool) error {
	if c.typ.Kind == gtype.BOOL {
		return c.flushBoolPage(pageIdx, values, isNull)
	}

	width := c.typ.Kind.FixedWidth()
	if width == 0 {
		width = 8
	}

	kind, meta := chooseCodec(values, isNull, width)
	if kind == codec.KindIntBitpacking {
		width = codec.BitWidth(meta.Min, meta.Max)
	}
	enc := codec.ForKind(kind, width)

	frame, err := c.handle.Pin(pageIdx, page.PinWrite)
	if err != nil {
		return err
	}

	metaBytes := codec.EncodeMetadata(meta)
	copy(frame.Bytes[:codec.MetadataSize], metaBytes[:])

	maskLen := writeNullMask(frame.Bytes[codec.MetadataSize:], values, isNull)

	enc.CompressNextPage(values, 0, frame.Bytes[codec.MetadataSize+maskLen:], meta)

	for len(c.valuesPerPage) <= int(pageIdx) {
		c.valuesPerPage = append(c.valuesPerPage, 0)
	}
	c.valuesPerPage[pageIdx] = len(values)

	return nil
}

func (c *Chunk) flushBoolPage(pageIdx page.Index, values []gtype.StorageValue, isNull func(i int) bool) error {
	enc := codec.ForKind(codec.KindBoolBitpacking, 1)

	frame, err := c.handle.Pin(pageIdx, page.PinWrite)
	if err != nil {
		return err
	}

	meta := codec.Metadata{Kind: codec.KindBoolBitpacking}
	metaBytes := codec.EncodeMetadata(meta)
	copy(frame.Bytes[:codec.MetadataSize], metaBytes[:])

	maskLen := writeNullMask(frame.Bytes[codec.MetadataSize:], values, isNull)

	enc.CompressNextPage(values, 0, frame.Bytes[codec.MetadataSize+maskLen:], meta)

	for len(c.valuesPerPage) <= int(pageIdx) {
		c.valuesPerPage = append(c.valuesPerPage, 0)
	}
	c.valuesPerPage[pageIdx] = len(values)

	return nil
}

// nullMaskSize is the byte width of a page's null sub-chunk: one bit per
// value, immediately following the 16-byte codec metadata (spec.md §2:
// "every column carries a null mask").
func nullMaskSize(n int) int {
	return (n + 7) / 8
}

// writeNullMask packs isNull(0..len(values)) into dst as a bitmask and
// returns how many bytes it used.
func writeNullMask(dst []byte, values []gtype.StorageValue, isNull func(i int) bool) int {
	n := nullMaskSize(len(values))
	for i := range dst[:n] {
		dst[i] = 0
	}
	if isNull != nil {
		for i := range values {
			if isNull(i) {
				dst[i/8] |= 1 << uint(i%8)
			}
		}
	}
	return n
}

func readNullMask(mask []byte, i int) bool {
	return mask[i/8]&(1<<uint(i%8)) != 0
}

// chooseCodec picks constant compression when every non-null value is
// identical, otherwise bitpacking sized to the page's value range.
func chooseCodec(values []gtype.StorageValue, isNull func(i int) bool, width int) (codec.Kind, codec.Metadata) {
	var first gtype.StorageValue
	haveFirst := false
	allConstant := true
	var minV, maxV gtype.StorageValue
	haveRange := false

	for i, v := range values {
		if isNull(i) {
			continue
		}
		if !haveFirst {
			first = v
			haveFirst = true
		} else if v.Bits != first.Bits {
			allConstant = false
		}

		if !haveRange {
			minV, maxV = v, v
			haveRange = true
		} else {
			minV = gtype.Min(minV, v)
			maxV = gtype.Max(maxV, v)
		}
	}

	if allConstant && haveFirst {
		return codec.KindConstant, codec.Metadata{Kind: codec.KindConstant, Min: first, Max: first}
	}

	if !haveRange {
		return codec.KindConstant, codec.Metadata{Kind: codec.KindConstant}
	}

	return codec.KindIntBitpacking, codec.Metadata{Kind: codec.KindIntBitpacking, Min: minV, Max: maxV}
}

// ReadPage decompresses page pageIdx directly into the destination
// vector's backing storage starting at dstOffset.
func (c *Chunk) ReadPage(pageIdx page.Index, dst *vector.Vector, dstOffset int) error {
	if int(pageIdx) >= len(c.valuesPerPage) {
		return fmt.Errorf("column: page %d never flushed", pageIdx)
	}
	n := c.valuesPerPage[pageIdx]

	frame, err := c.handle.Pin(pageIdx, page.PinRead)
	if err != nil {
		return err
	}

	var metaBytes [codec.MetadataSize]byte
	copy(metaBytes[:], frame.Bytes[:codec.MetadataSize])
	meta := codec.DecodeMetadata(metaBytes)

	width := c.typ.Kind.FixedWidth()
	if width == 0 || c.typ.Kind == gtype.BOOL {
		width = 1
	}
	if meta.Kind == codec.KindIntBitpacking {
		width = codec.BitWidth(meta.Min, meta.Max)
	}

	enc := codec.ForKind(meta.Kind, width)

	maskLen := nullMaskSize(n)
	mask := frame.Bytes[codec.MetadataSize : codec.MetadataSize+maskLen]

	values := make([]gtype.StorageValue, n)
	enc.DecompressFromPage(frame.Bytes[codec.MetadataSize+maskLen:], 0, values, 0, n, meta)

	for i, v := range values {
		dst.SetStorageValue(dstOffset+i, v)
		dst.SetNull(dstOffset+i, readNullMask(mask, i))
	}

	return nil
}
