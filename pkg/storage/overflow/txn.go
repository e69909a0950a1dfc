package overflow

// TxnGuard records the writer's cursor before the first write in a
// transaction so that a rollback can restore it, treating any payload
// written during the aborted transaction as never-written (spec.md
// §4.4: "before the first write in a transaction, record
// OVERFLOW_NEXT_BYTE_POS(sid, cursor); on rollback, restore the cursor
// from that record"). No OVERFLOW_NEXT_BYTE_POS WAL record is written;
// this type only tracks the in-memory pre-write snapshot for a single
// overflow file within one transaction.
type TxnGuard struct {
	file      *File
	armed     bool
	savedCursor Cursor
}

func NewTxnGuard(f *File) *TxnGuard {
	return &TxnGuard{file: f}
}

// BeforeFirstWrite must be called once, before the transaction's first
// Append/AppendString/AppendList call on this file.
func (g *TxnGuard) BeforeFirstWrite() Cursor {
	if !g.armed {
		g.savedCursor = g.file.Cursor()
		g.armed = true
	}
	return g.savedCursor
}

// Rollback restores the writer's cursor to its pre-transaction value.
// Pages written past the restored cursor are never referenced by a live
// fat pointer and may be reclaimed by a later compaction, but are
// otherwise left in place (no in-place mutation of overflow pages).
func (g *TxnGuard) Rollback() {
	if g.armed {
		g.file.SetCursor(g.savedCursor)
	}
	g.armed = false
}

// Commit simply forgets the guard; the cursor advance stands.
func (g *TxnGuard) Commit() {
	g.armed = false
}
