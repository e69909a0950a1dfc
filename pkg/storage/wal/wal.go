package wal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/latticedb/graphcore/pkg/fs"
)

// ErrCorrupt is the sentinel for a WAL replay inconsistency (spec.md §7,
// Storage errors). Open does not return it: a frame whose length or CRC
// check fails ends the scan, and Open truncates the file from that frame
// on, together with any records after the last COMMIT before it.
var ErrCorrupt = errors.New("wal: corrupt")

// Log is an append-only sequence of Records backed by a single file.
// One Log instance is shared across all write transactions for a
// database (spec.md §5: "Page cache, overflow file, WAL, catalog:
// shared, with internal synchronization").
type Log struct {
	mu   sync.Mutex
	fsys fs.FS
	path string
	f    fs.File
	size int64
}

// Open opens (creating if necessary) the WAL file at path and replays it
// immediately per spec.md §4.1 recovery semantics, returning both the
// ready-to-append Log and the records from any already-committed but
// not-yet-checkpointed transaction so the caller can re-apply them to
// base pages.
func Open(fsys fs.FS, path string) (*Log, []Record, error) {
	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, nil, fmt.Errorf("wal: stat: %w", err)
	}

	if !exists {
		f, err := fsys.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("wal: create: %w", err)
		}
		return &Log{fsys: fsys, path: path, f: f, size: 0}, nil, nil
	}

	f, err := fsys.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("wal: open: %w", err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("wal: read: %w", err)
	}

	records, validPrefix := DecodeAll(data)

	// Find the last COMMIT; anything after it (a subsequent uncommitted
	// transaction's partial records) is replay-irrelevant but was already
	// excluded from `records` only if corrupt — valid-but-uncommitted
	// trailing records must also be dropped (spec.md §4.1: "for each
	// committed page-update, overwrite the base page").
	lastCommit := -1
	for i, r := range records {
		if r.Kind == KindCommit {
			lastCommit = i
		}
	}

	committed := records[:lastCommit+1]

	// Truncate the file back to the valid, committed prefix: this
	// discards both a torn final record (validPrefix < len(data)) and
	// any fully-formed but uncommitted trailing records.
	truncateAt := validPrefix
	if lastCommit >= 0 {
		truncateAt = offsetAfterRecord(data, lastCommit)
	} else {
		truncateAt = 0
	}

	if err := truncateFileTo(f, truncateAt); err != nil {
		return nil, nil, err
	}

	return &Log{fsys: fsys, path: path, f: f, size: int64(truncateAt)}, committed, nil
}

// offsetAfterRecord returns the byte offset immediately following the
// recordIdx'th record decoded from data.
func offsetAfterRecord(data []byte, recordIdx int) int {
	off := 0
	for i := 0; i <= recordIdx; i++ {
		_, n, ok := DecodeOne(data[off:])
		if !ok {
			break
		}
		off += n
	}
	return off
}

// Append writes one record and returns its starting byte offset.
func (l *Log) Append(kind Kind, body []byte) (offset int64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	frame := Encode(kind, body)

	if _, err := l.f.Seek(l.size, io.SeekStart); err != nil {
		return 0, fmt.Errorf("wal: seek: %w", err)
	}

	n, err := l.f.Write(frame)
	if err != nil {
		return 0, fmt.Errorf("wal: write: %w", err)
	}

	start := l.size
	l.size += int64(n)

	return start, nil
}

// Sync fsyncs the WAL file; callers call this before considering a
// COMMIT record durable.
func (l *Log) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Sync()
}

// Truncate discards the WAL's contents, used after a checkpoint makes
// the base file consistent with the last committed snapshot (spec.md
// §4.1: "A checkpoint truncates WAL after base file is consistent").
func (l *Log) Truncate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := truncateFileTo(l.f, 0); err != nil {
		return err
	}
	l.size = 0
	return nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// CheckpointBaseFile atomically replaces the base file at basePath with
// newContent, using github.com/natefinch/atomic the same way the
// teacher's pkg/fs/atomic_write.go wraps it for config writes — a
// temp-file-plus-rename so a crash mid-checkpoint leaves either the old
// or the new base file intact, never a partial one.
func CheckpointBaseFile(basePath string, newContent io.Reader) error {
	return atomic.WriteFile(basePath, newContent)
}

// truncater is satisfied by *os.File and any fs.File implementation that
// also supports truncation, mirroring the teacher's pkg/storage/page
// os-escape-hatch pattern for operations the fs.FS interface itself does
// not expose.
type truncater interface {
	Truncate(size int64) error
}

func truncateFileTo(f fs.File, size int) error {
	t, ok := f.(truncater)
	if !ok {
		return fmt.Errorf("wal: file does not support truncation")
	}
	if err := t.Truncate(int64(size)); err != nil {
		return fmt.Errorf("wal: truncate: %w", err)
	}
	if _, err := f.Seek(int64(size), io.SeekStart); err != nil {
		return fmt.Errorf("wal: seek after truncate: %w", err)
	}
	return nil
}
