// Package jointable implements the in-memory factorized table and join
// hash table built from one side of a join before probing (spec.md §5,
// §6, component G).
//
// Grounded on the teacher's pkg/slotcache directory-plus-chained-slots
// design, adapted from an on-disk persistent structure to an in-memory,
// build-once-probe-many structure: a JoinHashTable here is exactly
// slotcache's {bucket directory, slot array} shape, except buckets hold
// a single head pointer into an arena of chained tuples linked by a
// `prev` pointer (spec.md §6: "Directory (array of head pointers) +
// chained tuples via a prev-pointer arena") rather than linear-probed
// slots, because a build side can have heavy key skew that linear
// probing handles poorly.
package jointable

import (
	"sync"
	"sync/atomic"

	"github.com/latticedb/graphcore/pkg/gtype"
)

// FactorizedTable stores one build-side morsel's rows in flat arrays,
// one per projected column, avoiding the row-major layout a naive hash
// join would otherwise copy key+payload into (spec.md §5: "factorized
// tables avoid duplicating shared prefixes").
type FactorizedTable struct {
	Schema  []gtype.LogicalType
	Columns [][]gtype.StorageValue
}

func NewFactorizedTable(schema []gtype.LogicalType) *FactorizedTable {
	return &FactorizedTable{
		Schema:  schema,
		Columns: make([][]gtype.StorageValue, len(schema)),
	}
}

func (t *FactorizedTable) AppendRow(values []gtype.StorageValue) int {
	row := len(t.Columns[0])
	for i, v := range values {
		t.Columns[i] = append(t.Columns[i], v)
	}
	return row
}

// tuple is one arena-resident build-side entry: its key, the row index
// into a thread-local FactorizedTable, and the index (within a shared
// slice of thread-local tables) of which table that row belongs to.
type tuple struct {
	key      gtype.StorageValue
	tableIdx int
	rowIdx   int
	prev     int32 // index into the shared arena, or -1
}

// JoinHashTable is the merged build-side structure probed by
// pkg/probe. Build is parallel: each worker appends to its own
// FactorizedTable and its own slice of local tuples, then merges its
// tuples into the shared directory with a lock-free CAS loop over each
// bucket's head pointer (spec.md §5: "parallel build with thread-local
// tables, merged into a shared directory via CAS on the bucket head").
type JoinHashTable struct {
	mu        sync.Mutex
	directory []atomic.Int32 // bucket -> arena index of chain head, -1 empty
	arena     []tuple
	Tables    []*FactorizedTable
	numBuckets uint64
}

// NewJoinHashTable preallocates a directory sized for an expected number
// of build-side rows, the same up-front-sizing idiom the teacher's
// slotcache.Options.SlotCapacity uses to avoid a rehash mid-build.
func NewJoinHashTable(expectedRows int) *JoinHashTable {
	n := nextPow2(uint64(expectedRows) * 2)
	if n < 16 {
		n = 16
	}
	h := &JoinHashTable{
		directory:  make([]atomic.Int32, n),
		numBuckets: n,
	}
	for i := range h.directory {
		h.directory[i].Store(-1)
	}
	return h
}

func nextPow2(x uint64) uint64 {
	if x == 0 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1
}

func (h *JoinHashTable) bucketFor(key gtype.StorageValue) uint64 {
	return hashStorageValue(key) & (h.numBuckets - 1)
}

func hashStorageValue(v gtype.StorageValue) uint64 {
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

// BuildLocal is one worker's thread-local accumulation for a morsel: a
// FactorizedTable of rows plus the tuples describing each row's join
// key, not yet linked into the shared directory.
type BuildLocal struct {
	Table  *FactorizedTable
	tuples []tuple
}

func NewBuildLocal(schema []gtype.LogicalType) *BuildLocal {
	return &BuildLocal{Table: NewFactorizedTable(schema)}
}

// AppendRow stores one row in this worker's local table and remembers
// its join key for the later MergeInto call.
func (b *BuildLocal) AppendRow(key gtype.StorageValue, values []gtype.StorageValue) {
	rowIdx := b.Table.AppendRow(values)
	b.tuples = append(b.tuples, tuple{key: key, rowIdx: rowIdx})
}

// MergeInto merges one worker's local rows into the shared hash table:
// the local table is registered (tableIdx fixed for its lifetime), then
// every local tuple is appended to the shared arena and CAS-linked onto
// its bucket's chain head (spec.md §5 parallel-build merge step).
func (h *JoinHashTable) MergeInto(local *BuildLocal) {
	h.mu.Lock()
	tableIdx := len(h.Tables)
	h.Tables = append(h.Tables, local.Table)
	base := len(h.arena)
	h.arena = append(h.arena, make([]tuple, len(local.tuples))...)
	h.mu.Unlock()

	for i, lt := range local.tuples {
		arenaIdx := int32(base + i)
		h.mu.Lock()
		h.arena[arenaIdx] = tuple{key: lt.key, tableIdx: tableIdx, rowIdx: lt.rowIdx, prev: -1}
		h.mu.Unlock()

		bucket := h.bucketFor(lt.key)
		for {
			head := h.directory[bucket].Load()
			h.mu.Lock()
			h.arena[arenaIdx].prev = head
			h.mu.Unlock()
			if h.directory[bucket].CompareAndSwap(head, arenaIdx) {
				break
			}
		}
	}
}

// Probe walks the chain for key's bucket, calling visit for each
// matching tuple in build-insertion order (the caller compares visit's
// row against the probe key since hash collisions across different keys
// share a bucket).
//
// MergeInto CAS-prepends each tuple onto its bucket's chain head, so the
// chain itself is in reverse build order (most recently merged tuple
// first); Probe collects the chain head-to-tail and then walks its
// matches tail-to-head to undo that, restoring build-insertion order for
// duplicate keys (e.g. spec.md §8 scenario S5).
func (h *JoinHashTable) Probe(key gtype.StorageValue, visit func(tableIdx, rowIdx int)) {
	bucket := h.bucketFor(key)
	idx := h.directory[bucket].Load()

	var chain []tuple
	for idx != -1 {
		h.mu.Lock()
		t := h.arena[idx]
		h.mu.Unlock()

		chain = append(chain, t)
		idx = t.prev
	}

	for i := len(chain) - 1; i >= 0; i-- {
		t := chain[i]
		if t.key.Equal(key) {
			visit(t.tableIdx, t.rowIdx)
		}
	}
}
