package hashindex

import (
	"encoding/binary"

	"github.com/latticedb/graphcore/pkg/storage/page"
)

// slotSize is hash(8) + key bits(8) + node id(8), already 8-aligned
// (slotcache's computeSlotSize/align8 idiom collapses to a no-op here
// since every field is a fixed 8-byte word).
const slotSize = 24

// bucketHeaderSize is count(4) + pad(4) + nextOverflow(8).
const bucketHeaderSize = 16

// slotsPerBucketPage is how many Slots fit after the header, chosen so
// the page divides evenly with zero trailing waste: (4096-16)/24 = 170.
const slotsPerBucketPage = (page.Size - bucketHeaderSize) / slotSize

func readBucketPage(frame []byte) (count uint32, nextOverflow uint64, slots [slotsPerBucketPage]Slot) {
	count = binary.LittleEndian.Uint32(frame[0:4])
	nextOverflow = binary.LittleEndian.Uint64(frame[8:16])

	for i := 0; i < slotsPerBucketPage; i++ {
		off := bucketHeaderSize + i*slotSize
		slots[i] = Slot{
			Hash:   binary.LittleEndian.Uint64(frame[off : off+8]),
			Key:    decodeStorageValueBits(binary.LittleEndian.Uint64(frame[off+8 : off+16])),
			NodeID: binary.LittleEndian.Uint64(frame[off+16 : off+24]),
		}
	}
	return
}

func writeBucketPage(frame []byte, count uint32, nextOverflow uint64, slots [slotsPerBucketPage]Slot) {
	binary.LittleEndian.PutUint32(frame[0:4], count)
	binary.LittleEndian.PutUint64(frame[8:16], nextOverflow)

	for i := 0; i < slotsPerBucketPage; i++ {
		off := bucketHeaderSize + i*slotSize
		binary.LittleEndian.PutUint64(frame[off:off+8], slots[i].Hash)
		binary.LittleEndian.PutUint64(frame[off+8:off+16], slots[i].Key.Bits)
		binary.LittleEndian.PutUint64(frame[off+16:off+24], slots[i].NodeID)
	}
}
