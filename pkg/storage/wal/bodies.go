package wal

import "encoding/binary"

// StorageStructureID mirrors pkg/storage/page.StorageStructureID without
// importing it, to keep this package free of a dependency on the page
// cache (wal is a lower-level collaborator that page/storage code calls
// into, not the reverse).
type StorageStructureID struct {
	Kind     uint8
	TableID  uint64
	ColumnID uint64
}

func encodeSID(sid StorageStructureID) []byte {
	b := make([]byte, 17)
	b[0] = sid.Kind
	binary.LittleEndian.PutUint64(b[1:9], sid.TableID)
	binary.LittleEndian.PutUint64(b[9:17], sid.ColumnID)
	return b
}

func decodeSID(b []byte) StorageStructureID {
	return StorageStructureID{
		Kind:     b[0],
		TableID:  binary.LittleEndian.Uint64(b[1:9]),
		ColumnID: binary.LittleEndian.Uint64(b[9:17]),
	}
}

// PageUpdateBody is the payload of a PAGE_UPDATE_OR_INSERT record: which
// structure, which original page, and which WAL page now holds its image.
type PageUpdateBody struct {
	SID         StorageStructureID
	OriginalIdx uint64
	WALPageIdx  uint64
	Data        []byte // exactly page.Size bytes
}

func EncodePageUpdate(b PageUpdateBody) []byte {
	out := make([]byte, 17+8+8+len(b.Data))
	copy(out[0:17], encodeSID(b.SID))
	binary.LittleEndian.PutUint64(out[17:25], b.OriginalIdx)
	binary.LittleEndian.PutUint64(out[25:33], b.WALPageIdx)
	copy(out[33:], b.Data)
	return out
}

func DecodePageUpdate(body []byte) PageUpdateBody {
	data := make([]byte, len(body)-33)
	copy(data, body[33:])
	return PageUpdateBody{
		SID:         decodeSID(body[0:17]),
		OriginalIdx: binary.LittleEndian.Uint64(body[17:25]),
		WALPageIdx:  binary.LittleEndian.Uint64(body[25:33]),
		Data:        data,
	}
}

// CommitBody carries the committing transaction id.
type CommitBody struct {
	TxnID uint64
}

func EncodeCommit(b CommitBody) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, b.TxnID)
	return out
}

func DecodeCommit(body []byte) CommitBody {
	return CommitBody{TxnID: binary.LittleEndian.Uint64(body)}
}

// TableIDBody is shared by NODE_TABLE, REL_TABLE, COPY_NODE, COPY_REL.
type TableIDBody struct {
	TableID uint64
}

func EncodeTableID(b TableIDBody) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, b.TableID)
	return out
}

func DecodeTableID(body []byte) TableIDBody {
	return TableIDBody{TableID: binary.LittleEndian.Uint64(body)}
}

// OverflowNextBytePosBody records the pre-write cursor for a transaction's
// first overflow append, so rollback can restore it (spec.md §4.4).
type OverflowNextBytePosBody struct {
	SID      StorageStructureID
	PrevPage uint64
	PrevOff  uint32
}

func EncodeOverflowNextBytePos(b OverflowNextBytePosBody) []byte {
	out := make([]byte, 17+8+4)
	copy(out[0:17], encodeSID(b.SID))
	binary.LittleEndian.PutUint64(out[17:25], b.PrevPage)
	binary.LittleEndian.PutUint32(out[25:29], b.PrevOff)
	return out
}

func DecodeOverflowNextBytePos(body []byte) OverflowNextBytePosBody {
	return OverflowNextBytePosBody{
		SID:      decodeSID(body[0:17]),
		PrevPage: binary.LittleEndian.Uint64(body[17:25]),
		PrevOff:  binary.LittleEndian.Uint32(body[25:29]),
	}
}

// TableStatisticsBody marks whether committed statistics are for a node
// or rel table.
type TableStatisticsBody struct {
	IsNode bool
}

func EncodeTableStatistics(b TableStatisticsBody) []byte {
	if b.IsNode {
		return []byte{1}
	}
	return []byte{0}
}

func DecodeTableStatistics(body []byte) TableStatisticsBody {
	return TableStatisticsBody{IsNode: len(body) > 0 && body[0] == 1}
}

// DropTableBody marks a dropped node/rel table.
type DropTableBody struct {
	IsNode  bool
	TableID uint64
}

func EncodeDropTable(b DropTableBody) []byte {
	out := make([]byte, 9)
	if b.IsNode {
		out[0] = 1
	}
	binary.LittleEndian.PutUint64(out[1:9], b.TableID)
	return out
}

func DecodeDropTable(body []byte) DropTableBody {
	return DropTableBody{IsNode: body[0] == 1, TableID: binary.LittleEndian.Uint64(body[1:9])}
}
