package database

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/latticedb/graphcore/pkg/catalog"
	"github.com/latticedb/graphcore/pkg/fs"
	"github.com/latticedb/graphcore/pkg/storage/wal"
	"github.com/latticedb/graphcore/pkg/txn"
)

// catalogFileName is the checkpointed snapshot of the catalog, restored
// on Open so table schemas survive a restart (spec.md §5 "catalog:
// shared, with internal synchronization").
const catalogFileName = "catalog.json"

// Database is the top-level handle opened once per on-disk directory,
// owning the catalog, transaction manager, WAL, and every node table's
// storage (spec.md §5 "catalog: shared, with internal synchronization";
// §4.1 component I). Connect derives one Connection per caller.
//
// Grounded on the teacher's root Config/LoadConfig-then-open flow: Open
// mirrors the teacher's single entry point that reads config, then
// wires the pieces it names together before handing back a ready
// object, rather than requiring a caller to assemble the pieces itself.
type Database struct {
	dir     string
	fsys    fs.FS
	cfg     Config
	catalog *catalog.Catalog
	wal     *wal.Log
	txnMgr  *txn.Manager

	scalarFns  *ScalarFunctionRegistry
	extensions *ExtensionRegistry

	mu     sync.Mutex
	tables map[string]*NodeTableStorage
}

// Open opens (creating if necessary) a database directory and reads its
// config. Opening the WAL truncates it back to its last COMMIT (spec.md
// §4.1 "WAL replay: scan to last COMMIT"); the committed records that
// wal.Open returns are not re-applied to any base file.
func Open(dir string) (*Database, error) {
	return OpenWithFS(fs.NewReal(), dir)
}

// OpenWithFS is Open parameterized over the fs.FS implementation used
// for the WAL, column and index files. The catalog snapshot and config
// file are read through the os package directly.
func OpenWithFS(fsys fs.FS, dir string) (*Database, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("database: create dir %s: %w", dir, err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	walLog, _, err := wal.Open(fsys, filepath.Join(dir, "wal.log"))
	if err != nil {
		return nil, fmt.Errorf("database: open wal: %w", err)
	}

	cat, err := loadCatalog(dir)
	if err != nil {
		return nil, err
	}

	db := &Database{
		dir:        dir,
		fsys:       fsys,
		cfg:        cfg,
		catalog:    cat,
		wal:        walLog,
		txnMgr:     txn.NewManager(walLog),
		scalarFns:  newScalarFunctionRegistry(),
		extensions: newExtensionRegistry(),
		tables:     make(map[string]*NodeTableStorage),
	}

	for _, table := range cat.Tables() {
		storage, err := OpenNodeTableStorage(fsys, dir, table, walLog)
		if err != nil {
			return nil, fmt.Errorf("database: reopen table %s: %w", table.Name, err)
		}
		db.tables[table.Name] = storage
	}

	return db, nil
}

// loadCatalog restores the last checkpointed catalog snapshot, the same
// "absent file falls through to a fresh default" idiom LoadConfig uses.
func loadCatalog(dir string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(filepath.Join(dir, catalogFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return catalog.New(), nil
		}
		return nil, fmt.Errorf("database: read catalog: %w", err)
	}
	return catalog.LoadTables(data)
}

func (db *Database) Config() Config { return db.cfg }

func (db *Database) Catalog() *catalog.Catalog { return db.catalog }

// ScalarFunctions exposes the registry RegisterScalarFunction-style
// extensions install into (spec.md §6 extension hooks).
func (db *Database) ScalarFunctions() *ScalarFunctionRegistry { return db.scalarFns }

func (db *Database) Extensions() *ExtensionRegistry { return db.extensions }

// CreateNodeTable registers a node table in the catalog and opens its
// backing column/index storage in one step.
func (db *Database) CreateNodeTable(name string, columns []catalog.Column) (*NodeTableStorage, error) {
	table, err := db.catalog.CreateNodeTable(name, columns)
	if err != nil {
		return nil, newError(ErrBinding, err, "%v", err)
	}

	storage, err := OpenNodeTableStorage(db.fsys, db.dir, table, db.wal)
	if err != nil {
		return nil, classifyStorageErr(err)
	}

	db.mu.Lock()
	db.tables[name] = storage
	db.mu.Unlock()

	return storage, nil
}

// Table looks up a previously created table's storage handle.
func (db *Database) Table(name string) (*NodeTableStorage, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.tables[name]
	return s, ok
}

// checkpoint flushes every table's staged tail and fsyncs its backing
// files, persists the catalog snapshot, and truncates the WAL — the
// COMMIT (not COMMIT_SKIP_CHECKPOINT) action's durability step (spec.md
// §4.1: "a checkpoint truncates WAL after base file is consistent").
func (db *Database) checkpoint() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for name, t := range db.tables {
		if err := t.Flush(); err != nil {
			return fmt.Errorf("database: flush table %s: %w", name, err)
		}
		if err := t.Sync(); err != nil {
			return fmt.Errorf("database: sync table %s: %w", name, err)
		}
	}

	data, err := db.catalog.MarshalTables()
	if err != nil {
		return fmt.Errorf("database: marshal catalog: %w", err)
	}
	if err := wal.CheckpointBaseFile(filepath.Join(db.dir, catalogFileName), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("database: checkpoint catalog: %w", err)
	}

	return db.wal.Truncate()
}

// Close flushes every open table's staged tail, checkpoints, and closes
// the WAL (spec.md §4.1 checkpoint-on-close idiom).
func (db *Database) Close() error {
	if err := db.checkpoint(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	return db.wal.Close()
}

// Connect opens a new Connection against this Database (spec.md §6
// "connect"). Connections are cheap and independent; every Connection
// shares the same catalog and transaction manager.
func (db *Database) Connect() *Connection {
	return &Connection{db: db}
}
