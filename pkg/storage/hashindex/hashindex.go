// Package hashindex implements the persistent primary-key hash index
// (spec.md §3, §4.3, component E): linear hashing over a directory
// of primary buckets, each optionally chained to overflow buckets, with
// a transactional local overlay so uncommitted inserts/deletes never
// touch the on-disk structure until commit.
//
// Grounded on the teacher's pkg/slotcache (an on-disk, append-only,
// seqlock-protected slot cache keyed by an FNV/bucket directory): the
// fixed-size binary header with a CRC32-C trailer, the even/odd
// generation counter for torn-read detection, and the slot-size
// alignment formula are all adapted directly from slotcache's
// format.go. Where slotcache uses one flat bucket array sized by a load
// factor, this index instead grows its directory one bucket per split
// step (linear hashing: the bucket at NextSplit is split, and Level
// advances once every bucket of the current level has been split),
// because the primary-key index must support unbounded growth across a
// database's lifetime rather than a fixed preallocated capacity.
package hashindex

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/latticedb/graphcore/pkg/gtype"
)

// headerSize mirrors slotcache's 256-byte fixed header, trimmed to the
// fields this index actually needs.
const headerSize = 64

const magic = "GIDX"

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// Header is the on-disk directory header (spec.md §4.3: "header
// {keyTypeTag, level, nextSplit, numEntries}").
type Header struct {
	KeyTypeTag uint32
	Level      uint32 // directory has baseBucketCount<<Level buckets, plus NextSplit split-off ones
	NextSplit  uint64 // linear-hashing split pointer, for the non-power-of-two growth step
	NumEntries uint64
	Generation uint64 // even = stable, odd = write in flight (slotcache idiom)
}

func EncodeHeader(h Header) [headerSize]byte {
	var buf [headerSize]byte
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.KeyTypeTag)
	binary.LittleEndian.PutUint32(buf[8:12], h.Level)
	binary.LittleEndian.PutUint64(buf[12:20], h.NextSplit)
	binary.LittleEndian.PutUint64(buf[20:28], h.NumEntries)
	binary.LittleEndian.PutUint64(buf[28:36], h.Generation)
	crc := crc32.Checksum(buf[:headerSize-4], crcTable)
	binary.LittleEndian.PutUint32(buf[headerSize-4:headerSize], crc)
	return buf
}

func DecodeHeader(buf [headerSize]byte) (Header, bool) {
	if string(buf[0:4]) != magic {
		return Header{}, false
	}
	crc := crc32.Checksum(buf[:headerSize-4], crcTable)
	if binary.LittleEndian.Uint32(buf[headerSize-4:headerSize]) != crc {
		return Header{}, false
	}
	return Header{
		KeyTypeTag: binary.LittleEndian.Uint32(buf[4:8]),
		Level:      binary.LittleEndian.Uint32(buf[8:12]),
		NextSplit:  binary.LittleEndian.Uint64(buf[12:20]),
		NumEntries: binary.LittleEndian.Uint64(buf[20:28]),
		Generation: binary.LittleEndian.Uint64(buf[28:36]),
	}, true
}

// Slot is one directory entry: a key's storage value, its hash, and the
// node offset it resolves to. Deleted slots are tombstoned in place
// (hashEmpty/hashTombstone sentinels), matching slotcache's bucket
// sentinel convention, so probing never needs to shift later entries.
type Slot struct {
	Hash   uint64
	Key    gtype.StorageValue
	NodeID uint64
}

const (
	hashEmpty     uint64 = 0
	hashTombstone uint64 = ^uint64(0)
)

func isLive(s Slot) bool {
	return s.Hash != hashEmpty && s.Hash != hashTombstone
}

// decodeStorageValueBits reconstructs a StorageValue from its raw 64-bit
// word. Hash-index keys are never null (spec.md §4.3 invariant: "a
// logically null primary key is rejected at insert time"), so HasValue
// is always true; Signed is not persisted per-slot because the codec
// layer, not the index, owns signedness of the logical key type.
func decodeStorageValueBits(bits uint64) gtype.StorageValue {
	return gtype.StorageValue{Bits: bits, HasValue: true}
}

// hashKey hashes a StorageValue's raw bits with FNV-1a 64, the same
// algorithm slotcache's header declares as slc1HashAlgFNV1a64.
func hashKey(v gtype.StorageValue) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	bits := v.Bits
	for i := 0; i < 8; i++ {
		h ^= bits & 0xff
		h *= prime64
		bits >>= 8
	}
	return h
}
