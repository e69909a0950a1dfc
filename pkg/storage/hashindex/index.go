package hashindex

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/storage/page"
)

// baseBucketCount is the number of primary buckets at Level 0; the
// directory holds baseBucketCount<<Level buckets plus one per split step
// taken at the current level (see maybeSplit).
const baseBucketCount = 4

// ErrCorrupt indicates a bucket chain walk found a header that does not
// decode (bad magic/CRC) or a slot whose partial-hash byte matches but
// whose full key comparison disagrees across a replay boundary (spec.md
// §7, Storage errors: "hash-index corruption (partial-hash mismatch
// with full comparison pass)").
var ErrCorrupt = errors.New("hashindex: corrupt")

// ErrKeyNotFound is returned by Delete when no live slot matches the key.
var ErrKeyNotFound = errors.New("hashindex: key not found")

// Index is a persistent linear-hashing primary-key index with a
// transactional local overlay. The directory maps a logical bucket id
// to the page.Index of that bucket's primary page; bucket chains grow
// by linking overflow pages rather than growing the primary page.
//
// Grounded on slotcache's bucket-directory-plus-slot-array design
// (pkg/slotcache/format.go), generalized from a flat fixed-capacity
// bucket array to a growable linear-hashing directory so the index can
// absorb unbounded insertions across a database's lifetime.
type Index struct {
	handle    *page.FileHandle
	header    Header
	directory []page.Index

	// overlay holds this write transaction's uncommitted inserts and
	// deletes so a concurrent reader never observes a half-applied
	// transaction (spec.md §4.3: "Local overlay: {inserts, deletes},
	// consulted before falling through to committed storage").
	overlay *Overlay
}

// Overlay is a write transaction's local, uncommitted view of an Index.
//
// inserts maps a hash to every pending entry that hashes there — not
// just the most recent one — because two distinct keys can still
// collide on the full 64-bit hash; Lookup/Delete disambiguate by
// Key.Equal, exactly like the committed bucket-chain walk does for its
// on-disk slots.
//
// deletedKeys tracks the exact tombstoned keys per hash (needed at
// Commit time to tombstone precisely the right on-disk slot, and at
// Lookup time to avoid treating a hash collision with a *different*
// deleted key as this key being deleted). deletes is a RoaringBitmap64
// over the full 64-bit hash of every tombstoned key: a fast "definitely
// not deleted" prefilter so isDeleted can skip the deletedKeys scan
// entirely on a bitmap miss — the same partial-prefilter role
// RoaringBitmap plays for null masks in pkg/vector (spec.md DOMAIN
// STACK: RoaringBitmap wired into both null masks and hash-index
// overlays). The full 64-bit hash is kept (via the roaring64 variant,
// not the 32-bit roaring.Bitmap) because truncating to 32 bits would
// let two distinct uncommitted keys whose hashes merely agree in the
// low 32 bits shadow each other.
type overlayEntry struct {
	Key    gtype.StorageValue
	NodeID uint64
}

type Overlay struct {
	inserts     map[uint64][]overlayEntry      // hash -> pending local inserts not yet flushed to pages
	deletedKeys map[uint64][]gtype.StorageValue // hash -> exact keys tombstoned by this transaction
	deletes     *roaring64.Bitmap               // prefilter: hashes with at least one tombstoned key
}

func NewOverlay() *Overlay {
	return &Overlay{
		inserts:     make(map[uint64][]overlayEntry),
		deletedKeys: make(map[uint64][]gtype.StorageValue),
		deletes:     roaring64.New(),
	}
}

func (o *Overlay) Insert(h uint64, key gtype.StorageValue, nodeID uint64) {
	o.removeDeletedKey(h, key)

	entries := o.inserts[h]
	for i, e := range entries {
		if e.Key.Equal(key) {
			entries[i].NodeID = nodeID
			return
		}
	}
	o.inserts[h] = append(entries, overlayEntry{Key: key, NodeID: nodeID})
}

func (o *Overlay) Delete(h uint64, key gtype.StorageValue) {
	entries := o.inserts[h]
	for i, e := range entries {
		if e.Key.Equal(key) {
			o.inserts[h] = append(entries[:i], entries[i+1:]...)
			break
		}
	}

	for _, k := range o.deletedKeys[h] {
		if k.Equal(key) {
			return // already tombstoned
		}
	}
	o.deletedKeys[h] = append(o.deletedKeys[h], key)
	o.deletes.Add(h)
}

func (o *Overlay) removeDeletedKey(h uint64, key gtype.StorageValue) {
	keys := o.deletedKeys[h]
	for i, k := range keys {
		if k.Equal(key) {
			o.deletedKeys[h] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	if len(o.deletedKeys[h]) == 0 {
		delete(o.deletedKeys, h)
		o.deletes.Remove(h)
	}
}

// lookup returns the matching entry's NodeID for key hashing to h, if
// this overlay has a pending insert for it.
func (o *Overlay) lookup(h uint64, key gtype.StorageValue) (uint64, bool) {
	for _, e := range o.inserts[h] {
		if e.Key.Equal(key) {
			return e.NodeID, true
		}
	}
	return 0, false
}

// isDeleted reports whether key (hashing to h) was tombstoned by this
// transaction. The bitmap prefilters on hash alone; deletedKeys
// disambiguates a hash collision against an unrelated deleted key.
func (o *Overlay) isDeleted(h uint64, key gtype.StorageValue) bool {
	if !o.deletes.Contains(h) {
		return false
	}
	for _, k := range o.deletedKeys[h] {
		if k.Equal(key) {
			return true
		}
	}
	return false
}

// Open opens or creates a hash index file backed by handle, whose first
// page holds the Header and whose directory is rebuilt by scanning the
// handle's existing bucket pages on open (the directory itself is not
// separately persisted; each bucket page's position is derived from its
// insertion order, recorded in the header's NumEntries/NextSplit/Level
// triple, which is sufficient to reconstruct which page indices belong
// to which logical bucket since buckets are always appended in split
// order starting at page 1).
func Open(handle *page.FileHandle, keyTypeTag uint32) (*Index, error) {
	if handle.NumPages() == 0 {
		if err := handle.WriteBasePage(0, make([]byte, page.Size)); err != nil {
			return nil, err
		}
	}

	frame, err := handle.Pin(0, page.PinRead)
	if err != nil {
		return nil, err
	}

	var hdrBytes [headerSize]byte
	copy(hdrBytes[:], frame.Bytes[:headerSize])

	hdr, ok := DecodeHeader(hdrBytes)
	if !ok {
		hdr = Header{KeyTypeTag: keyTypeTag, Level: 0, NextSplit: 0, NumEntries: 0}
		dir := make([]page.Index, baseBucketCount)
		for i := range dir {
			idx, err := appendPage(handle)
			if err != nil {
				return nil, err
			}
			dir[i] = idx
		}
		idx := &Index{handle: handle, header: hdr, directory: dir}
		if err := idx.persistHeader(); err != nil {
			return nil, err
		}
		return idx, nil
	}

	totalBuckets := baseBucketCount<<hdr.Level + int(hdr.NextSplit)
	dir := make([]page.Index, totalBuckets)
	for i := range dir {
		dir[i] = page.Index(1 + i)
	}

	return &Index{handle: handle, header: hdr, directory: dir}, nil
}

func appendPage(handle *page.FileHandle) (page.Index, error) {
	idx := handle.NumPages()
	if err := handle.WriteBasePage(idx, make([]byte, page.Size)); err != nil {
		return 0, err
	}
	return idx, nil
}

func (idx *Index) persistHeader() error {
	hdrBytes := EncodeHeader(idx.header)
	return idx.handle.WriteBasePage(0, padToPage(hdrBytes[:]))
}

func padToPage(b []byte) []byte {
	out := make([]byte, page.Size)
	copy(out, b)
	return out
}

func (idx *Index) bucketFor(h uint64) int {
	totalAtLevel := uint64(baseBucketCount) << idx.header.Level
	b := h % totalAtLevel
	if b < idx.header.NextSplit {
		b = h % (totalAtLevel * 2)
	}
	return int(b)
}

// Lookup returns the nodeID for key, consulting the overlay first
// (spec.md §4.3: "reads within a transaction see overlay, then
// committed storage").
func (idx *Index) Lookup(key gtype.StorageValue) (nodeID uint64, found bool, err error) {
	h := hashKey(key)

	if idx.overlay != nil {
		if idx.overlay.isDeleted(h, key) {
			return 0, false, nil
		}
		if nodeID, ok := idx.overlay.lookup(h, key); ok {
			return nodeID, true, nil
		}
	}

	bucketIdx := idx.bucketFor(h)
	pageIdx := idx.directory[bucketIdx]

	for {
		frame, err := idx.handle.Pin(pageIdx, page.PinRead)
		if err != nil {
			return 0, false, err
		}

		count, next, slots := readBucketPage(frame.Bytes)
		for i := 0; i < int(count) && i < slotsPerBucketPage; i++ {
			s := slots[i]
			if isLive(s) && s.Hash == h && s.Key.Equal(key) {
				return s.NodeID, true, nil
			}
		}

		if next == 0 {
			return 0, false, nil
		}
		pageIdx = page.Index(next)
	}
}

// Insert adds key -> nodeID. If a transaction overlay is attached, the
// insert is staged there; otherwise it is written straight to the page
// chain (used for bulk COPY_NODE loads where there is no concurrent
// reader to isolate from, spec.md §4.1 COPY_NODE/COPY_REL records).
func (idx *Index) Insert(key gtype.StorageValue, nodeID uint64) error {
	h := hashKey(key)

	if idx.overlay != nil {
		idx.overlay.Insert(h, key, nodeID)
		return nil
	}

	return idx.insertCommitted(h, key, nodeID)
}

func (idx *Index) insertCommitted(h uint64, key gtype.StorageValue, nodeID uint64) error {
	bucketIdx := idx.bucketFor(h)
	pageIdx := idx.directory[bucketIdx]

	for {
		frame, err := idx.handle.Pin(pageIdx, page.PinWrite)
		if err != nil {
			return err
		}

		count, next, slots := readBucketPage(frame.Bytes)

		for i := 0; i < int(count) && i < slotsPerBucketPage; i++ {
			if slots[i].Hash == hashTombstone {
				slots[i] = Slot{Hash: h, Key: key, NodeID: nodeID}
				writeBucketPage(frame.Bytes, count, next, slots)
				idx.header.NumEntries++
				return idx.maybeSplit()
			}
		}

		if int(count) < slotsPerBucketPage {
			slots[count] = Slot{Hash: h, Key: key, NodeID: nodeID}
			writeBucketPage(frame.Bytes, count+1, next, slots)
			idx.header.NumEntries++
			return idx.maybeSplit()
		}

		if next == 0 {
			overflowIdx, err := appendPage(idx.handle)
			if err != nil {
				return err
			}
			writeBucketPage(frame.Bytes, count, uint64(overflowIdx), slots)

			var fresh [slotsPerBucketPage]Slot
			fresh[0] = Slot{Hash: h, Key: key, NodeID: nodeID}
			overflowFrame, err := idx.handle.Pin(overflowIdx, page.PinWrite)
			if err != nil {
				return err
			}
			writeBucketPage(overflowFrame.Bytes, 1, 0, fresh)
			idx.header.NumEntries++
			return idx.maybeSplit()
		}

		pageIdx = page.Index(next)
	}
}

// maybeSplit performs one linear-hashing split step once NumEntries
// exceeds the combined slot capacity of the primary bucket pages
// ((baseBucketCount<<Level + NextSplit) * slotsPerBucketPage), i.e. once
// the average load passes one full primary page per bucket; otherwise it
// only persists the header.
func (idx *Index) maybeSplit() error {
	totalAtLevel := uint64(baseBucketCount) << idx.header.Level
	watermark := (totalAtLevel + idx.header.NextSplit) * slotsPerBucketPage
	if idx.header.NumEntries <= watermark {
		return idx.persistHeader()
	}

	splitIdx := int(idx.header.NextSplit)
	oldPage := idx.directory[splitIdx]

	newPageIdx, err := appendPage(idx.handle)
	if err != nil {
		return err
	}
	idx.directory = append(idx.directory, newPageIdx)
	newBucketIdx := len(idx.directory) - 1

	if err := idx.rehashBucketChain(oldPage, newBucketIdx); err != nil {
		return err
	}

	idx.header.NextSplit++
	if idx.header.NextSplit == totalAtLevel {
		idx.header.NextSplit = 0
		idx.header.Level++
	}

	return idx.persistHeader()
}

// rehashBucketChain walks the old bucket's page chain (primary plus any
// overflow pages) and re-distributes every live slot between the old
// bucket and the newly appended bucket according to the post-split hash
// function, compacting the chain as it goes.
func (idx *Index) rehashBucketChain(firstPage page.Index, newBucketIdx int) error {
	var kept []Slot
	var moved []Slot

	newTotal := uint64(baseBucketCount) << (idx.header.Level + 1)

	pageIdx := firstPage
	for {
		frame, err := idx.handle.Pin(pageIdx, page.PinWrite)
		if err != nil {
			return err
		}
		count, next, slots := readBucketPage(frame.Bytes)

		for i := 0; i < int(count) && i < slotsPerBucketPage; i++ {
			s := slots[i]
			if !isLive(s) {
				continue
			}
			if s.Hash%newTotal == uint64(newBucketIdx) {
				moved = append(moved, s)
			} else {
				kept = append(kept, s)
			}
		}

		if next == 0 {
			break
		}
		pageIdx = page.Index(next)
	}

	if err := rewriteChain(idx.handle, firstPage, kept); err != nil {
		return err
	}
	return rewriteChain(idx.handle, idx.directory[newBucketIdx], moved)
}

// rewriteChain repacks a flat slot list back into a bucket's primary
// page, allocating overflow pages as needed; any existing overflow
// pages beyond what is needed are left allocated but empty (reclaiming
// them is left to a future compaction pass, matching the overflow
// file's own append-only, never-shrink invariant).
func rewriteChain(handle *page.FileHandle, firstPage page.Index, flat []Slot) error {
	pageIdx := firstPage
	off := 0

	for {
		frame, err := handle.Pin(pageIdx, page.PinWrite)
		if err != nil {
			return err
		}
		_, existingNext, _ := readBucketPage(frame.Bytes)

		var bucketSlots [slotsPerBucketPage]Slot
		n := 0
		for n < slotsPerBucketPage && off < len(flat) {
			bucketSlots[n] = flat[off]
			n++
			off++
		}

		next := uint64(0)
		if off < len(flat) {
			if existingNext != 0 {
				next = existingNext
			} else {
				newIdx, err := appendPage(handle)
				if err != nil {
					return err
				}
				next = uint64(newIdx)
			}
		}

		writeBucketPage(frame.Bytes, uint32(n), next, bucketSlots)

		if off >= len(flat) {
			return nil
		}
		pageIdx = page.Index(next)
	}
}

// Delete removes key from the index.
func (idx *Index) Delete(key gtype.StorageValue) error {
	h := hashKey(key)

	if idx.overlay != nil {
		idx.overlay.Delete(h, key)
		return nil
	}

	return idx.deleteCommitted(h, key)
}

func (idx *Index) deleteCommitted(h uint64, key gtype.StorageValue) error {
	bucketIdx := idx.bucketFor(h)
	pageIdx := idx.directory[bucketIdx]

	for {
		frame, err := idx.handle.Pin(pageIdx, page.PinWrite)
		if err != nil {
			return err
		}
		count, next, slots := readBucketPage(frame.Bytes)

		for i := 0; i < int(count) && i < slotsPerBucketPage; i++ {
			if isLive(slots[i]) && slots[i].Hash == h && slots[i].Key.Equal(key) {
				slots[i].Hash = hashTombstone
				writeBucketPage(frame.Bytes, count, next, slots)
				idx.header.NumEntries--
				return idx.persistHeader()
			}
		}

		if next == 0 {
			return ErrKeyNotFound
		}
		pageIdx = page.Index(next)
	}
}

// BeginTxn attaches a fresh transactional overlay to the index so
// subsequent Insert/Delete/Lookup calls are isolated until Commit or
// Rollback.
func (idx *Index) BeginTxn() {
	idx.overlay = NewOverlay()
}

// Commit flushes every staged overlay insert into committed storage and
// applies staged deletes, then detaches the overlay.
func (idx *Index) Commit() error {
	if idx.overlay == nil {
		return nil
	}

	for h, keys := range idx.overlay.deletedKeys {
		for _, key := range keys {
			if err := idx.deleteCommitted(h, key); err != nil && !errors.Is(err, ErrKeyNotFound) {
				return err
			}
		}
	}

	for h, entries := range idx.overlay.inserts {
		for _, entry := range entries {
			if err := idx.insertCommitted(h, entry.Key, entry.NodeID); err != nil {
				return err
			}
		}
	}

	idx.overlay = nil
	return nil
}

// Rollback discards the overlay without touching committed storage.
func (idx *Index) Rollback() {
	idx.overlay = nil
}

// Flush fsyncs the index's backing page file, the durable half of a
// checkpoint (spec.md §4.1: "a checkpoint truncates WAL after base file
// is consistent").
func (idx *Index) Flush() error {
	return idx.handle.Flush()
}
