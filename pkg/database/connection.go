package database

import (
	"time"

	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/probe"
	"github.com/latticedb/graphcore/pkg/txn"
)

// Connection is one caller's session against a Database: it owns at
// most one in-flight transaction at a time and executes statements
// against the tables that transaction has joined (spec.md §6 "connect"
// + transaction-control methods).
type Connection struct {
	db  *Database
	cur *txn.Txn

	// joinedTxn and joined record which tables' indexes have already
	// joined cur, so each index joins (and gets a fresh overlay) once.
	joinedTxn *txn.Txn
	joined    map[*NodeTableStorage]bool
}

// BeginRead starts a read-only transaction on this connection (spec.md
// §4.1 action BEGIN_READ).
func (c *Connection) BeginRead() {
	c.cur = c.db.txnMgr.BeginRead()
}

// BeginWrite starts a write transaction, blocking until the
// single-writer lock is free (spec.md §4.1 action BEGIN_WRITE).
func (c *Connection) BeginWrite() {
	c.cur = c.db.txnMgr.BeginWrite()
}

// joinTable registers table's primary-key index as a participant of the
// connection's current write transaction, opening a fresh overlay
// (spec.md §4.3 local transactional overlay).
func (c *Connection) joinTable(table *NodeTableStorage) {
	if c.cur == nil {
		return
	}
	if c.joinedTxn != c.cur {
		c.joinedTxn = c.cur
		c.joined = make(map[*NodeTableStorage]bool)
	}
	if c.joined[table] {
		return
	}
	c.joined[table] = true
	c.cur.Join(table.BeginTxn())
}

// Commit commits the connection's current transaction, then checkpoints
// the database: COMMIT (unlike COMMIT_SKIP_CHECKPOINT) always leaves the
// WAL truncated and the catalog/column files fsynced (spec.md §4.1
// action COMMIT).
func (c *Connection) Commit() error {
	if c.cur == nil {
		return nil
	}
	err := c.cur.Commit()
	c.cur = nil
	if err != nil {
		return err
	}
	return c.db.checkpoint()
}

// CommitSkipCheckpoint commits using COMMIT_SKIP_CHECKPOINT semantics,
// for bulk loads that are about to write far more pages immediately
// after (spec.md §4.1 action COMMIT_SKIP_CHECKPOINT).
func (c *Connection) CommitSkipCheckpoint() error {
	if c.cur == nil {
		return nil
	}
	err := c.cur.CommitBatch()
	c.cur = nil
	return err
}

// Rollback discards the connection's current transaction (spec.md §4.1
// action ROLLBACK).
func (c *Connection) Rollback() {
	if c.cur == nil {
		return
	}
	c.cur.Rollback()
	c.cur = nil
}

// RollbackSkipCheckpoint is ROLLBACK_SKIP_CHECKPOINT: identical to
// Rollback since an aborted overlay never reaches the checkpoint step
// either way, kept as a distinct method so the action-set enum in
// spec.md §4.1 has a one-to-one method on this type.
func (c *Connection) RollbackSkipCheckpoint() {
	c.Rollback()
}

// Insert inserts one row into table within the connection's current
// write transaction (joining the table's index to that transaction on
// first use).
func (c *Connection) Insert(table *NodeTableStorage, values []gtype.StorageValue) (uint64, error) {
	c.joinTable(table)
	return table.Insert(values)
}

// ExecuteStatement binds and runs stmt, always returning a *QueryResult
// rather than an error (spec.md §6/§7: "no exception escapes the
// embedding API" — failures are reported via QueryResult.Success()).
func (c *Connection) ExecuteStatement(stmt PreparedStatement) *QueryResult {
	start := time.Now()
	compiling := time.Since(start).Seconds()
	return newResult(stmt, compiling)
}

// Scan builds a ScanStatement over table's named columns and runs it.
func (c *Connection) Scan(table *NodeTableStorage, names []string, types []gtype.LogicalType, columns []int) *QueryResult {
	return c.ExecuteStatement(&ScanStatement{Names: names, Types: types, Storage: table, Columns: columns})
}

// Join builds and runs a JoinStatement, exposing pkg/jointable and
// pkg/probe through the embedding API.
func (c *Connection) Join(names []string, types []gtype.LogicalType, kind probe.Kind, buildKeys []gtype.StorageValue, buildPayload [][]gtype.StorageValue, probeKeys []gtype.StorageValue) *QueryResult {
	return c.ExecuteStatement(&JoinStatement{
		Names:        names,
		Types:        types,
		Kind:         kind,
		BuildKeys:    buildKeys,
		BuildPayload: buildPayload,
		ProbeKeys:    probeKeys,
	})
}
