// Package overflow implements the append-only arena-of-pages that backs
// fat pointers for strings and nested lists (spec.md §3, §4.4,
// component D). Grounded on the teacher's pkg/fs atomic-append idiom and
// pkg/mddb/wal.go's "record next-byte-pos before the first write, restore
// it on rollback" transactional-cursor pattern.
package overflow

import (
	"encoding/binary"

	"github.com/latticedb/graphcore/pkg/storage/page"
)

// FatPointerSize is the fixed 16-byte width of every fat pointer
// (spec.md §6).
const FatPointerSize = 16

// InlineCapacity is the number of bytes a short string stores directly
// inside the fat pointer instead of spilling to an overflow page
// (spec.md §3: "strings <= 12 bytes inline").
const InlineCapacity = 12

// FatPointer addresses an overflow payload, or inlines it if short
// enough. Layout (16 bytes total): length:4, then 12 bytes that are
// either the inline payload (length <= InlineCapacity) or
// {pageIdx:4, offsetInPage:4, reserved:4} for a long payload.
type FatPointer struct {
	Length  uint32
	Inline  [InlineCapacity]byte
	PageIdx uint32
	Offset  uint32
}

// IsInline reports whether a *string* fat pointer's payload is stored
// in the Inline bytes rather than an overflow page. It is meaningful
// only for string fat pointers: a list fat pointer's Length field holds
// the element count, not a byte count, and a list is never inlined
// (spec.md §4.4's list header always lives in an overflow page), so
// callers reading a list must use ReadList/AppendList's pageIdx+offset
// directly and must not call IsInline on it.
func (p FatPointer) IsInline() bool {
	return p.Length <= InlineCapacity
}

// Encode serializes a FatPointer to its 16-byte wire form.
func (p FatPointer) Encode() [FatPointerSize]byte {
	var buf [FatPointerSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], p.Length)
	if p.IsInline() {
		copy(buf[4:4+InlineCapacity], p.Inline[:])
	} else {
		binary.LittleEndian.PutUint32(buf[4:8], p.PageIdx)
		binary.LittleEndian.PutUint32(buf[8:12], p.Offset)
		// buf[12:16] reserved, zero.
	}
	return buf
}

func DecodeFatPointer(buf [FatPointerSize]byte) FatPointer {
	var p FatPointer
	p.Length = binary.LittleEndian.Uint32(buf[0:4])
	if p.Length <= InlineCapacity {
		copy(p.Inline[:], buf[4:4+InlineCapacity])
	} else {
		p.PageIdx = binary.LittleEndian.Uint32(buf[4:8])
		p.Offset = binary.LittleEndian.Uint32(buf[8:12])
	}
	return p
}

// ListHeader replaces the inline-prefix bytes for a list-typed fat
// pointer (spec.md §4.4: "the 12-byte inline prefix is replaced by a
// list header {length, childTypeTag}; elements follow in the overflow
// pages").
type ListHeader struct {
	Length       uint32
	ChildTypeTag uint32
}

// Cursor is a writer's current append position: {pageIdx, offsetInPage}.
type Cursor struct {
	PageIdx Index
	Offset  uint32
}

type Index = page.Index

// File is the append-only overflow page arena for one column or one
// nested-list child slot. Pages are never mutated once written; only
// appended (spec.md §3 invariant: "overflow never mutates existing
// bytes — it only appends").
type File struct {
	handle *page.FileHandle
	cursor Cursor
}

func Open(handle *page.FileHandle, startCursor Cursor) *File {
	return &File{handle: handle, cursor: startCursor}
}

func (f *File) Cursor() Cursor { return f.cursor }

func (f *File) SetCursor(c Cursor) { f.cursor = c }

// Append writes payload bytes starting at the writer's cursor, spilling
// onto as many fresh pages as the payload needs (mirroring ReadString/
// readBytes's multi-page loop on the way back in), and returns the fat
// pointer to the payload's *starting* page and offset.
func (f *File) Append(payload []byte) (pageIdx uint32, offset uint32, err error) {
	if f.cursor.Offset >= uint32(page.Size) {
		f.cursor = Cursor{PageIdx: f.cursor.PageIdx + 1, Offset: 0}
	}

	pageIdx = uint32(f.cursor.PageIdx)
	offset = f.cursor.Offset

	remaining := payload
	for len(remaining) > 0 {
		if f.cursor.PageIdx >= f.handle.NumPages() {
			if err := f.handle.WriteBasePage(f.cursor.PageIdx, make([]byte, page.Size)); err != nil {
				return 0, 0, err
			}
		}

		frame, err := f.handle.Pin(f.cursor.PageIdx, page.PinWrite)
		if err != nil {
			return 0, 0, err
		}

		n := copy(frame.Bytes[f.cursor.Offset:], remaining)
		remaining = remaining[n:]
		f.cursor.Offset += uint32(n)

		if len(remaining) > 0 {
			f.cursor = Cursor{PageIdx: f.cursor.PageIdx + 1, Offset: 0}
		}
	}

	return pageIdx, offset, nil
}

// AppendString writes a string payload and returns its fat pointer,
// inlining it when short enough to skip the overflow file entirely.
func (f *File) AppendString(s []byte) (FatPointer, error) {
	if len(s) <= InlineCapacity {
		var fp FatPointer
		fp.Length = uint32(len(s))
		copy(fp.Inline[:], s)
		return fp, nil
	}

	pageIdx, offset, err := f.Append(s)
	if err != nil {
		return FatPointer{}, err
	}

	return FatPointer{Length: uint32(len(s)), PageIdx: pageIdx, Offset: offset}, nil
}

// ReadString dereferences a fat pointer back into its bytes.
func (f *File) ReadString(fp FatPointer) ([]byte, error) {
	if fp.IsInline() {
		out := make([]byte, fp.Length)
		copy(out, fp.Inline[:fp.Length])
		return out, nil
	}

	out := make([]byte, fp.Length)
	remaining := out
	pageIdx := Index(fp.PageIdx)
	offset := fp.Offset

	for len(remaining) > 0 {
		frame, err := f.handle.Pin(pageIdx, page.PinRead)
		if err != nil {
			return nil, err
		}

		n := copy(remaining, frame.Bytes[offset:])
		remaining = remaining[n:]
		pageIdx++
		offset = 0
	}

	return out, nil
}

// AppendList recurses on the element type: a list header {length,
// childTypeTag} followed by the encoded child elements (spec.md §4.4).
// encodeElem must serialize one element's bytes (fixed width for
// fixed-width children, or a nested FatPointer for string/list
// children).
func (f *File) AppendList(n int, childTypeTag uint32, encodeElem func(i int) []byte) (FatPointer, error) {
	hdr := make([]byte, 8)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(n))
	binary.LittleEndian.PutUint32(hdr[4:8], childTypeTag)

	pageIdx, offset, err := f.Append(hdr)
	if err != nil {
		return FatPointer{}, err
	}

	for i := 0; i < n; i++ {
		if _, _, err := f.Append(encodeElem(i)); err != nil {
			return FatPointer{}, err
		}
	}

	return FatPointer{Length: uint32(n), PageIdx: pageIdx, Offset: offset}, nil
}

// ReadList dereferences a list fat pointer, returning its element count,
// child type tag, and a decodeElem callback the caller drives once per
// element (decodeElem receives that element's raw bytes read starting
// right after the header, strided by elemWidth). Fixed-width children
// only; variable-width (nested string/list) children are read through
// their own fat pointers embedded in those bytes by the caller.
func (f *File) ReadList(fp FatPointer, elemWidth int) (n int, childTypeTag uint32, elems [][]byte, err error) {
	pageIdx := Index(fp.PageIdx)
	offset := fp.Offset

	hdr, err := f.readBytes(pageIdx, offset, 8)
	if err != nil {
		return 0, 0, nil, err
	}
	n = int(binary.LittleEndian.Uint32(hdr[0:4]))
	childTypeTag = binary.LittleEndian.Uint32(hdr[4:8])

	pageIdx, offset = advance(pageIdx, offset, 8)

	elems = make([][]byte, n)
	for i := 0; i < n; i++ {
		b, err := f.readBytes(pageIdx, offset, elemWidth)
		if err != nil {
			return 0, 0, nil, err
		}
		elems[i] = b
		pageIdx, offset = advance(pageIdx, offset, elemWidth)
	}

	return n, childTypeTag, elems, nil
}

func advance(pageIdx Index, offset uint32, n int) (Index, uint32) {
	end := int(offset) + n
	return pageIdx + Index(end/page.Size), uint32(end % page.Size)
}

func (f *File) readBytes(pageIdx Index, offset uint32, n int) ([]byte, error) {
	out := make([]byte, n)
	remaining := out
	for len(remaining) > 0 {
		frame, err := f.handle.Pin(pageIdx, page.PinRead)
		if err != nil {
			return nil, err
		}
		c := copy(remaining, frame.Bytes[offset:])
		remaining = remaining[c:]
		pageIdx++
		offset = 0
	}
	return out, nil
}
