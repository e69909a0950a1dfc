// Package page implements the page cache and WAL-aware read routing
// (spec.md §4.1, component A). A Page is a fixed 4 KiB byte array
// identified by (file, page index); pages are the unit of I/O and only
// the cache materializes them.
//
// Grounded on the teacher's pkg/slotcache memory-mapped, seqlock-guarded
// file layout (pkg/slotcache/open.go maps the whole file and readers take
// an optimistic generation-counter snapshot before reading, retrying on
// a torn read) and pkg/fs.Real for the underlying OS file. The base file
// is memory-mapped with github.com/edsrzf/mmap-go so reads alias the
// kernel page cache directly instead of copying on every pin, the same
// zero-copy intent the teacher's mmap-backed Cache.Get has.
package page

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	"github.com/latticedb/graphcore/pkg/fs"
)

// Size is the fixed page size (spec.md §6: "Page size: 4096 bytes").
const Size = 4096

// Page is the raw byte content of one page.
type Page [Size]byte

// Index identifies a page within a single file.
type Index uint64

// StorageStructureID identifies which column/overflow/index/table a WAL
// page update belongs to (spec.md §4.1). It is opaque to the page cache
// itself and only round-tripped through WAL records.
type StorageStructureID struct {
	Kind  StructureKind
	TableID uint64
	ColumnID uint64
}

type StructureKind uint8

const (
	StructureColumn StructureKind = iota
	StructureOverflow
	StructureHashIndex
	StructureCatalog
)

var (
	ErrOutOfRange = errors.New("page: index out of range")
	ErrIOFailure  = errors.New("page: io failure")
)

// PinMode distinguishes read pins from write pins; write pins must route
// through createWALVersion to obtain a mutable frame.
type PinMode uint8

const (
	PinRead PinMode = iota
	PinWrite
)

// FrameRef is a pinned, possibly WAL-backed, view of one page.
type FrameRef struct {
	Bytes    []byte // exactly Size bytes; aliases either the base mmap or a WAL frame
	fromWAL  bool
	pageIdx  Index
	handle   *FileHandle
	writerLk *sync.Mutex // held while this is a write frame; released on unpin
}

// FileHandle owns one base file's memory mapping plus the set of WAL
// page-redirects a given write transaction has created on top of it.
type FileHandle struct {
	mu  sync.RWMutex
	f   fs.File
	mm  mmap.MMap
	size int64

	// walRedirect maps a base page index to the bytes of its current WAL
	// image, populated by createWALVersion and consulted by pin. Keyed
	// per (open) write transaction; cleared on commit/rollback.
	walRedirect map[Index][]byte

	// perPageLock guards re-entrancy: a write transaction must not
	// re-enter the same page's lock (spec.md §5).
	perPageLock map[Index]*sync.Mutex

	generation atomic.Uint64 // bumped on every write-visible mutation, for optimisticRead
}

// Open memory-maps path (creating it with the given initial size if it
// does not exist) for page-granular access.
func Open(fsys fs.FS, path string, minSize int64) (*FileHandle, error) {
	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("page: stat: %w", err)
	}

	var f fs.File
	if !exists {
		f, err = fsys.OpenFile(path, osCreateFlags(), 0o644)
		if err != nil {
			return nil, fmt.Errorf("page: create: %w", err)
		}
		if err := growFile(f, minSize); err != nil {
			_ = f.Close()
			return nil, err
		}
	} else {
		f, err = fsys.OpenFile(path, osRDWRFlags(), 0o644)
		if err != nil {
			return nil, fmt.Errorf("page: open: %w", err)
		}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("page: stat: %w", err)
	}

	size := info.Size()
	if size < minSize {
		if err := growFile(f, minSize); err != nil {
			_ = f.Close()
			return nil, err
		}
		size = minSize
	}

	var mm mmap.MMap
	if size > 0 {
		mm, err = mapFile(f, size)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: mmap: %v", ErrIOFailure, err)
		}
	}

	return &FileHandle{
		f:           f,
		mm:          mm,
		size:        size,
		walRedirect: make(map[Index][]byte),
		perPageLock: make(map[Index]*sync.Mutex),
	}, nil
}

func (h *FileHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.mm != nil {
		_ = h.mm.Unmap()
		h.mm = nil
	}

	return h.f.Close()
}

func (h *FileHandle) NumPages() Index {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Index(h.size / Size)
}

// Pin acquires a frame whose bytes are the WAL image if a write
// transaction has already called createWALVersion for this page;
// otherwise the base-file image (spec.md §4.1: "whose bytes, in a write
// transaction that has updated this page, are the WAL image; otherwise
// the base-file image").
func (h *FileHandle) Pin(idx Index, mode PinMode) (FrameRef, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if int64(idx)*Size+Size > h.size {
		return FrameRef{}, ErrOutOfRange
	}

	if walBytes, ok := h.walRedirect[idx]; ok {
		return FrameRef{Bytes: walBytes, fromWAL: true, pageIdx: idx, handle: h}, nil
	}

	start := int64(idx) * Size
	return FrameRef{Bytes: h.mm[start : start+Size], pageIdx: idx, handle: h}, nil
}

// OptimisticRead is a versioned read that may retry under contention: fn
// receives a raw frame pointer; the caller re-runs fn if the generation
// counter changed mid-read (torn-read detection), mirroring the
// teacher's seqlock pattern in pkg/slotcache (odd generation = write in
// progress, even = stable; readers retry on mismatch).
func (h *FileHandle) OptimisticRead(idx Index, fn func(frame []byte)) error {
	for {
		gen0 := h.generation.Load()
		if gen0%2 == 1 {
			continue // writer in flight; spin
		}

		frame, err := h.Pin(idx, PinRead)
		if err != nil {
			return err
		}

		fn(frame.Bytes)

		gen1 := h.generation.Load()
		if gen0 == gen1 {
			return nil
		}
		// torn read, retry
	}
}

// CreateWALVersion obtains a frame backed by a fresh WAL page. The caller
// (pkg/storage/wal) is responsible for writing the PAGE_UPDATE_OR_INSERT
// record that keys this redirect by StorageStructureID; this method only
// manages the in-memory redirect table and the per-page writer lock.
func (h *FileHandle) CreateWALVersion(idx Index, walPageBytes []byte) (FrameRef, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, reentrant := h.walRedirect[idx]; reentrant {
		return FrameRef{}, fmt.Errorf("page: re-entrant write lock on page %d", idx)
	}

	lk, ok := h.perPageLock[idx]
	if !ok {
		lk = &sync.Mutex{}
		h.perPageLock[idx] = lk
	}
	lk.Lock()

	h.generation.Add(1) // odd: write in flight

	h.walRedirect[idx] = walPageBytes

	return FrameRef{Bytes: walPageBytes, fromWAL: true, pageIdx: idx, handle: h, writerLk: lk}, nil
}

// UnpinAndReleaseLock releases a WAL page frame and the original page's
// writer lock.
func (h *FileHandle) UnpinAndReleaseLock(frame FrameRef) {
	if frame.writerLk == nil {
		return
	}

	h.mu.Lock()
	h.generation.Add(1) // even: stable again
	h.mu.Unlock()

	frame.writerLk.Unlock()
}

// ClearWALRedirects drops all in-memory WAL redirects, called after a
// transaction's changes have been applied to the base file (checkpoint)
// or discarded (rollback).
func (h *FileHandle) ClearWALRedirects() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.walRedirect = make(map[Index][]byte)
}

// WriteBasePage overwrites a page directly in the base file's mapping;
// used by WAL recovery/checkpoint to apply committed page images.
func (h *FileHandle) WriteBasePage(idx Index, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if int64(idx)*Size+Size > h.size {
		if err := h.growLocked(int64(idx)*Size + Size); err != nil {
			return err
		}
	}

	start := int64(idx) * Size
	copy(h.mm[start:start+Size], data)
	return nil
}

func (h *FileHandle) Flush() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mm.Flush()
}

func (h *FileHandle) growLocked(newSize int64) error {
	if h.mm != nil {
		if err := h.mm.Unmap(); err != nil {
			return fmt.Errorf("%w: unmap: %v", ErrIOFailure, err)
		}
	}

	if err := growFile(h.f, newSize); err != nil {
		return err
	}

	mm, err := mapFile(h.f, newSize)
	if err != nil {
		return fmt.Errorf("%w: remap: %v", ErrIOFailure, err)
	}

	h.mm = mm
	h.size = newSize
	return nil
}
