// Package catalog implements the node/rel table and column catalog
// consulted by query planning and storage (SPEC_FULL.md SUPPLEMENTED
// FEATURES: a real embedded graph engine needs a schema registry; the
// distilled spec assumes one exists but never defines it).
//
// Grounded on the teacher's pkg/mddb/schema.go (an in-memory registry of
// named tables with typed columns, kept consistent with on-disk state
// via WAL records on every DDL change) — this catalog mirrors that
// shape, replacing mddb's single-table-per-markdown-collection model
// with the node-table/rel-table distinction spec.md's property graph
// requires.
package catalog

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/latticedb/graphcore/pkg/gtype"
)

// TableKind distinguishes a node table from a rel table.
type TableKind uint8

const (
	KindNode TableKind = iota
	KindRel
)

// Column is one column definition within a table.
type Column struct {
	Name string
	Type gtype.LogicalType
}

// Table is one node or rel table's schema.
type Table struct {
	ID      uint64
	Name    string
	Kind    TableKind
	Columns []Column

	// FromTableID/ToTableID are only meaningful for KindRel (spec.md
	// GLOSSARY: "a rel table connects exactly one FROM node table to
	// one TO node table").
	FromTableID uint64
	ToTableID   uint64
}

func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Catalog is the shared, lock-protected registry of every table in a
// database (spec.md §5: "catalog: shared, with internal synchronization").
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
	nextID uint64
}

func New() *Catalog {
	return &Catalog{tables: make(map[string]*Table), nextID: 1}
}

var (
	ErrTableExists   = fmt.Errorf("catalog: table already exists")
	ErrTableNotFound = fmt.Errorf("catalog: table not found")
)

// CreateNodeTable registers a new node table (spec.md §4.1 WAL record:
// NODE_TABLE(tableId)).
func (c *Catalog) CreateNodeTable(name string, columns []Column) (*Table, error) {
	return c.createTable(name, KindNode, columns, 0, 0)
}

// CreateRelTable registers a new rel table connecting fromTable to
// toTable (spec.md §4.1 WAL record: REL_TABLE(tableId)).
func (c *Catalog) CreateRelTable(name string, columns []Column, fromTable, toTable uint64) (*Table, error) {
	return c.createTable(name, KindRel, columns, fromTable, toTable)
}

func (c *Catalog) createTable(name string, kind TableKind, columns []Column, from, to uint64) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	t := &Table{
		ID:          c.nextID,
		Name:        name,
		Kind:        kind,
		Columns:     append([]Column(nil), columns...),
		FromTableID: from,
		ToTableID:   to,
	}
	c.nextID++
	c.tables[name] = t

	return t, nil
}

// DropTable removes a table's schema entry (spec.md §4.1 WAL record:
// DROP_TABLE(isNode, tableId)). Removing the underlying storage is the
// caller's responsibility.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[name]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	delete(c.tables, name)
	return nil
}

func (c *Catalog) Lookup(name string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	return t, ok
}

func (c *Catalog) LookupByID(id uint64) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tables {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Tables returns every registered table, for catalog-scan query plans
// (e.g. `CALL show_tables()`).
func (c *Catalog) Tables() []*Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Table, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t)
	}
	return out
}

// MarshalTables snapshots every registered table as JSON, the format a
// checkpoint persists to the catalog's on-disk file (spec.md §5: "catalog:
// shared, with internal synchronization" — durable across restarts via
// the same checkpoint that truncates the WAL).
func (c *Catalog) MarshalTables() ([]byte, error) {
	return json.Marshal(c.Tables())
}

// LoadTables rebuilds a Catalog from a MarshalTables snapshot, restoring
// each table's original ID and resuming nextID above the highest one
// seen.
func LoadTables(data []byte) (*Catalog, error) {
	var tables []*Table
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("catalog: decode snapshot: %w", err)
	}

	c := New()
	for _, t := range tables {
		c.tables[t.Name] = t
		if t.ID >= c.nextID {
			c.nextID = t.ID + 1
		}
	}
	return c, nil
}
