package wal_test

import (
	"path/filepath"
	"testing"

	"github.com/latticedb/graphcore/pkg/fs"
	"github.com/latticedb/graphcore/pkg/storage/wal"
)

func TestAppendAndRecoverCommittedPrefix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")
	fsys := fs.NewReal()

	l, committed, err := wal.Open(fsys, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(committed) != 0 {
		t.Fatalf("fresh wal should replay nothing, got %d records", len(committed))
	}

	body := wal.EncodePageUpdate(wal.PageUpdateBody{
		SID:         wal.StorageStructureID{Kind: 1, TableID: 7, ColumnID: 2},
		OriginalIdx: 3,
		WALPageIdx:  9,
		Data:        []byte("page-bytes"),
	})
	if _, err := l.Append(wal.KindPageUpdateOrInsert, body); err != nil {
		t.Fatalf("append page update: %v", err)
	}
	if _, err := l.Append(wal.KindCommit, wal.EncodeCommit(wal.CommitBody{TxnID: 42})); err != nil {
		t.Fatalf("append commit: %v", err)
	}
	if err := l.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	l2, committed2, err := wal.Open(fsys, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = l2.Close() })

	if len(committed2) != 2 {
		t.Fatalf("want 2 replayed records, got %d", len(committed2))
	}
	if committed2[0].Kind != wal.KindPageUpdateOrInsert {
		t.Fatalf("record 0 kind = %v", committed2[0].Kind)
	}
	if committed2[1].Kind != wal.KindCommit {
		t.Fatalf("record 1 kind = %v", committed2[1].Kind)
	}

	decoded := wal.DecodePageUpdate(committed2[0].Body)
	if decoded.SID.TableID != 7 {
		t.Fatalf("table id = %d, want 7", decoded.SID.TableID)
	}
}

func TestRecoveryDropsUncommittedTail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")
	fsys := fs.NewReal()

	l, _, err := wal.Open(fsys, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	commitBody := wal.EncodeCommit(wal.CommitBody{TxnID: 1})
	if _, err := l.Append(wal.KindCommit, commitBody); err != nil {
		t.Fatalf("append commit: %v", err)
	}

	// A transaction that never committed: a lone page-update record with
	// no following COMMIT must not be replayed (spec.md §4.1 invariant
	// #2: "no partially-applied transaction is ever visible after
	// recovery").
	uncommitted := wal.EncodePageUpdate(wal.PageUpdateBody{
		SID:  wal.StorageStructureID{Kind: 0, TableID: 1, ColumnID: 0},
		Data: []byte("never committed"),
	})
	if _, err := l.Append(wal.KindPageUpdateOrInsert, uncommitted); err != nil {
		t.Fatalf("append uncommitted: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, committed, err := wal.Open(fsys, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	if len(committed) != 1 {
		t.Fatalf("want 1 committed record survived, got %d", len(committed))
	}
	if committed[0].Kind != wal.KindCommit {
		t.Fatalf("surviving record kind = %v, want commit", committed[0].Kind)
	}
}

func TestTruncateAfterCheckpoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")
	fsys := fs.NewReal()

	l, _, err := wal.Open(fsys, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	if _, err := l.Append(wal.KindCommit, wal.EncodeCommit(wal.CommitBody{TxnID: 1})); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Truncate(); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	_, committed, err := wal.Open(fsys, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(committed) != 0 {
		t.Fatalf("checkpointed wal should replay nothing, got %d", len(committed))
	}
}
