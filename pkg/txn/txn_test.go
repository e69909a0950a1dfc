package txn_test

import (
	"path/filepath"
	"testing"

	"github.com/latticedb/graphcore/pkg/fs"
	"github.com/latticedb/graphcore/pkg/storage/wal"
	"github.com/latticedb/graphcore/pkg/txn"
)

type fakeParticipant struct {
	committed bool
	rolledBack bool
	failCommit bool
}

func (p *fakeParticipant) Commit() error {
	if p.failCommit {
		return errFakeCommit
	}
	p.committed = true
	return nil
}

func (p *fakeParticipant) Rollback() { p.rolledBack = true }

var errFakeCommit = &fakeErr{"participant commit failed"}

type fakeErr struct{ msg string }

func (e *fakeErr) Error() string { return e.msg }

func openManager(t *testing.T) *txn.Manager {
	t.Helper()
	dir := t.TempDir()
	l, _, err := wal.Open(fs.NewReal(), filepath.Join(dir, "wal.log"))
	if err != nil {
		t.Fatalf("wal.Open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return txn.NewManager(l)
}

func TestCommitFlushesJoinedParticipants(t *testing.T) {
	t.Parallel()

	mgr := openManager(t)
	tx := mgr.BeginWrite()

	p1 := &fakeParticipant{}
	p2 := &fakeParticipant{}
	tx.Join(p1)
	tx.Join(p2)

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !p1.committed || !p2.committed {
		t.Fatalf("both participants should have been committed")
	}
}

func TestRollbackDiscardsJoinedParticipants(t *testing.T) {
	t.Parallel()

	mgr := openManager(t)
	tx := mgr.BeginWrite()

	p := &fakeParticipant{}
	tx.Join(p)

	tx.Rollback()

	if p.committed {
		t.Fatalf("participant should not be committed after rollback")
	}
	if !p.rolledBack {
		t.Fatalf("participant should have been rolled back")
	}
}

func TestDoubleCloseIsSafe(t *testing.T) {
	t.Parallel()

	mgr := openManager(t)
	tx := mgr.BeginWrite()

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	// Rollback after commit must be a no-op, not a double-unlock panic
	// (mirrors the teacher's nil/multiple-Rollback-safe Tx idiom).
	tx.Rollback()

	if err := tx.Commit(); err != txn.ErrClosed {
		t.Fatalf("second commit should return ErrClosed, got %v", err)
	}
}

func TestWriteTransactionsAreSerialized(t *testing.T) {
	t.Parallel()

	mgr := openManager(t)
	tx1 := mgr.BeginWrite()

	done := make(chan struct{})
	go func() {
		tx2 := mgr.BeginWrite()
		defer tx2.Rollback()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("second BeginWrite should block while tx1 holds the write lock")
	default:
	}

	tx1.Rollback()
	<-done
}
