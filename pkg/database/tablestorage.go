package database

import (
	"fmt"
	"path/filepath"

	"github.com/latticedb/graphcore/pkg/catalog"
	"github.com/latticedb/graphcore/pkg/exec"
	"github.com/latticedb/graphcore/pkg/fs"
	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/storage/codec"
	"github.com/latticedb/graphcore/pkg/storage/column"
	"github.com/latticedb/graphcore/pkg/storage/hashindex"
	"github.com/latticedb/graphcore/pkg/storage/page"
	"github.com/latticedb/graphcore/pkg/storage/wal"
	"github.com/latticedb/graphcore/pkg/vector"
)

// NodeTableStorage is the on-disk column-chunk + primary-key-index pair
// for one node table (spec.md §2 data flow: "operator emits values into
// a column chunk; chunk is sealed ... flushed through (A); WAL (I)
// records page updates"). Column 0 is always the table's primary key,
// matching the convention this package's CreateNodeTable uses.
//
// This is intentionally the "thin" integration SPEC_FULL.md describes:
// every column here is restricted to the integer-family physical kinds
// pkg/vector.GetStorageValue/SetStorageValue already round-trip (spec.md
// §3 StorageValue: "64-bit union of signed int/unsigned int/float");
// STRING/LIST columns are exercised directly by pkg/storage/overflow and
// pkg/vector's fat-pointer accessors rather than threaded through this
// scan/join demonstration path (see DESIGN.md).
type NodeTableStorage struct {
	table   *catalog.Table
	columns []*columnStorage
	pk      *hashindex.Index
	walLog  *wal.Log

	nextRowID    uint64
	pageCapacity int   // rows per flushed page, shared across all columns so rows stay aligned
	pageRows     []int // actual row count written to each flushed page; the last one may be partial (sealed by Flush)
}

type columnStorage struct {
	chunk  *column.Chunk
	handle *page.FileHandle
	typ    gtype.LogicalType

	staged     []gtype.StorageValue
	stagedNull []bool
}

// OpenNodeTableStorage opens (creating if necessary) the column files and
// primary-key index backing table inside dir.
func OpenNodeTableStorage(fsys fs.FS, dir string, table *catalog.Table, walLog *wal.Log) (*NodeTableStorage, error) {
	storage := &NodeTableStorage{table: table, walLog: walLog, pageCapacity: 1 << 30}

	for _, col := range table.Columns {
		width := col.Type.Kind.FixedWidth()
		if width == 0 {
			width = 8
		}
		// Reserve room for the page's null-mask sub-chunk (one bit per
		// row) alongside the worst case (uncompressed) codec payload:
		// width*perPage + ceil(perPage/8) <= budget.
		budget := page.Size - codec.MetadataSize
		perPage := (budget * 8) / (8*width + 1)
		if perPage < 1 {
			perPage = 1
		}
		if perPage < storage.pageCapacity {
			storage.pageCapacity = perPage
		}
	}

	for _, col := range table.Columns {
		colPath := filepath.Join(dir, fmt.Sprintf("%s.%s.col", table.Name, col.Name))
		handle, err := page.Open(fsys, colPath, int64(page.Size))
		if err != nil {
			return nil, fmt.Errorf("database: open column %s: %w", col.Name, err)
		}
		storage.columns = append(storage.columns, &columnStorage{
			chunk:  column.Open(handle, col.Type),
			handle: handle,
			typ:    col.Type,
		})
	}

	idxPath := filepath.Join(dir, table.Name+".pk.idx")
	idxHandle, err := page.Open(fsys, idxPath, int64(page.Size))
	if err != nil {
		return nil, fmt.Errorf("database: open pk index: %w", err)
	}
	idx, err := hashindex.Open(idxHandle, uint32(table.Columns[0].Type.Kind))
	if err != nil {
		return nil, fmt.Errorf("database: open pk index: %w", err)
	}
	storage.pk = idx

	return storage, nil
}

// Index exposes the table's primary-key index, e.g. for joining a rel
// table's FROM/TO columns against this node table (spec.md §4.7 "hash
// index supplies node-offset lookups during scan binding").
func (s *NodeTableStorage) Index() *hashindex.Index { return s.pk }

// BeginTxn attaches a fresh overlay to the primary-key index and returns
// it as a txn.Participant so a Connection's write transaction can join
// it (spec.md §4.3 local overlay; §4.1 transaction glue).
func (s *NodeTableStorage) BeginTxn() *hashindex.Index {
	s.pk.BeginTxn()
	return s.pk
}

// Insert stages one row's values (values[0] is the primary key), failing
// with ErrRuntime if the key already exists (spec.md §4.3 insert step 2:
// "if an entry matches the key, reject (duplicate PK)").
func (s *NodeTableStorage) Insert(values []gtype.StorageValue) (rowID uint64, err error) {
	if len(values) != len(s.columns) {
		return 0, newError(ErrRuntime, nil, "insert: expected %d columns, got %d", len(s.columns), len(values))
	}

	pk := values[0]
	if !pk.HasValue {
		return 0, newError(ErrRuntime, nil, "insert: null primary key")
	}
	if _, found, lookupErr := s.pk.Lookup(pk); lookupErr != nil {
		return 0, classifyStorageErr(lookupErr)
	} else if found {
		return 0, newError(ErrRuntime, nil, "insert: duplicate primary key")
	}

	rowID = s.nextRowID
	s.nextRowID++

	if err := s.pk.Insert(pk, rowID); err != nil {
		return 0, classifyStorageErr(err)
	}

	for i, cs := range s.columns {
		cs.staged = append(cs.staged, values[i])
		cs.stagedNull = append(cs.stagedNull, !values[i].HasValue)
	}

	if len(s.columns[0].staged) >= s.pageCapacity {
		if err := s.flushPage(); err != nil {
			return 0, err
		}
	}

	return rowID, nil
}

// flushedPages returns how many pages have been written so far. The
// last one may be a partial page sealed by an explicit Flush rather
// than a full pageCapacity-sized one (see pageRows).
func (s *NodeTableStorage) flushedPages() int {
	return len(s.pageRows)
}

func (s *NodeTableStorage) flushPage() error {
	pageIdx := page.Index(s.flushedPages())
	n := len(s.columns[0].staged)
	for _, cs := range s.columns {
		isNull := func(i int) bool { return cs.stagedNull[i] }
		if err := cs.chunk.FlushPage(pageIdx, cs.staged, isNull); err != nil {
			return classifyStorageErr(err)
		}
		cs.staged = cs.staged[:0]
		cs.stagedNull = cs.stagedNull[:0]
	}
	s.pageRows = append(s.pageRows, n)

	if s.walLog != nil {
		body := wal.EncodeTableID(wal.TableIDBody{TableID: s.table.ID})
		if _, err := s.walLog.Append(wal.KindCopyNode, body); err != nil {
			return classifyStorageErr(err)
		}
	}

	return nil
}

// Flush seals any partially-filled final page (spec.md §4.3 flush
// invariant: "numValues == capacity || chunk is last in node group").
func (s *NodeTableStorage) Flush() error {
	if len(s.columns) == 0 || len(s.columns[0].staged) == 0 {
		return nil
	}
	return s.flushPage()
}

// Sync fsyncs every column file and the primary-key index backing this
// table, the durable half of a checkpoint (spec.md §4.1 component A).
func (s *NodeTableStorage) Sync() error {
	for _, cs := range s.columns {
		if err := cs.handle.Flush(); err != nil {
			return err
		}
	}
	return s.pk.Flush()
}

// Scan returns a pull-based exec.Operator over colIndices, reading every
// already-flushed page followed by the staged tail (spec.md §4.9
// "morsel sources: scan / factorized-table scan").
func (s *NodeTableStorage) Scan(colIndices []int) exec.Operator {
	return &tableScanOperator{storage: s, colIndices: colIndices}
}

type tableScanOperator struct {
	storage    *NodeTableStorage
	colIndices []int
	nextPage   int
	tailDone   bool
}

func (op *tableScanOperator) GetNext() (exec.Morsel, bool, error) {
	s := op.storage

	if op.nextPage < s.flushedPages() {
		pageIdx := page.Index(op.nextPage)
		n := s.pageRows[op.nextPage]
		vecs := make([]*vector.Vector, len(op.colIndices))
		for i, ci := range op.colIndices {
			cs := s.columns[ci]
			v := vector.New(cs.typ, n)
			if err := cs.chunk.ReadPage(pageIdx, v, 0); err != nil {
				return exec.Morsel{}, false, classifyStorageErr(err)
			}
			v.Len = n
			vecs[i] = v
		}
		op.nextPage++
		return exec.Morsel{Vectors: vecs, Len: n}, true, nil
	}

	if !op.tailDone {
		op.tailDone = true
		n := len(s.columns[0].staged)
		if n > 0 {
			vecs := make([]*vector.Vector, len(op.colIndices))
			for i, ci := range op.colIndices {
				cs := s.columns[ci]
				v := vector.New(cs.typ, n)
				for r := 0; r < n; r++ {
					v.SetStorageValue(r, cs.staged[r])
					v.SetNull(r, cs.stagedNull[r])
				}
				v.Len = n
				vecs[i] = v
			}
			return exec.Morsel{Vectors: vecs, Len: n}, true, nil
		}
	}

	return exec.Morsel{}, false, nil
}
