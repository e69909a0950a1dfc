package database

import (
	"github.com/latticedb/graphcore/pkg/exec"
	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/jointable"
	"github.com/latticedb/graphcore/pkg/probe"
	"github.com/latticedb/graphcore/pkg/vector"
)

// PreparedStatement is the result of binding a query against the
// catalog: a runnable operator tree plus the result schema a QueryResult
// reports (spec.md §6 "operators communicate via get_next()"; §7 every
// executeStatement call first binds, then runs). The binder/planner
// themselves are out of scope (spec.md §1 Non-goals); these two
// concrete statement kinds are this package's stand-in for "whatever a
// planner would have produced."
type PreparedStatement interface {
	ColumnNames() []string
	ColumnTypes() []gtype.LogicalType
	run() exec.Operator
}

// ScanStatement reads every row of one table's projected columns
// (spec.md §4.9 "morsel sources: scan").
type ScanStatement struct {
	Names   []string
	Types   []gtype.LogicalType
	Storage *NodeTableStorage
	Columns []int
}

func (s *ScanStatement) ColumnNames() []string            { return s.Names }
func (s *ScanStatement) ColumnTypes() []gtype.LogicalType { return s.Types }
func (s *ScanStatement) run() exec.Operator               { return s.Storage.Scan(s.Columns) }

// JoinStatement builds a factorized table from the build side, then
// probes it with the probe side's keys, projecting build-side payload
// columns alongside the probe key (spec.md §5/§6 components G/H). It is
// the thin integration exercising pkg/jointable and pkg/probe end to
// end; values are restricted to integer-family StorageValue-compatible
// columns (see tablestorage.go's doc comment).
type JoinStatement struct {
	Names []string
	Types []gtype.LogicalType
	Kind  probe.Kind

	BuildKeys    []gtype.StorageValue
	BuildPayload [][]gtype.StorageValue // BuildPayload[col][row]

	ProbeKeys []gtype.StorageValue
}

func (s *JoinStatement) ColumnNames() []string            { return s.Names }
func (s *JoinStatement) ColumnTypes() []gtype.LogicalType { return s.Types }

func (s *JoinStatement) run() exec.Operator {
	payloadSchema := make([]gtype.LogicalType, len(s.BuildPayload))
	for i := range payloadSchema {
		payloadSchema[i] = s.Types[i+1]
	}

	ht := jointable.NewJoinHashTable(len(s.BuildKeys))
	local := jointable.NewBuildLocal(payloadSchema)
	for row, key := range s.BuildKeys {
		values := make([]gtype.StorageValue, len(s.BuildPayload))
		for col := range s.BuildPayload {
			values[col] = s.BuildPayload[col][row]
		}
		local.AppendRow(key, values)
	}
	ht.MergeInto(local)

	p := probe.New(ht, s.Kind, s.ProbeKeys)
	return &joinOperator{stmt: s, probe: p}
}

// joinOperator adapts probe.Probe's one-match-at-a-time pull into
// exec.Operator's one-morsel-at-a-time pull, batching up to
// vector.Capacity matches per morsel.
type joinOperator struct {
	stmt  *JoinStatement
	probe *probe.Probe
}

func (op *joinOperator) GetNext() (exec.Morsel, bool, error) {
	if op.probe.State() == probe.StateDone {
		return exec.Morsel{}, false, nil
	}

	vecs := make([]*vector.Vector, len(op.stmt.Types))
	for i, t := range op.stmt.Types {
		vecs[i] = vector.New(t, vector.Capacity)
	}

	n := 0
	for n < vector.Capacity {
		m, ok := op.probe.Next()
		if !ok {
			break
		}
		if !m.Matched {
			vecs[0].SetStorageValue(n, op.stmt.ProbeKeys[m.ProbeRow])
			vecs[0].SetNull(n, false)
			for col := 1; col < len(vecs); col++ {
				vecs[col].SetNull(n, true)
			}
			n++
			continue
		}
		vecs[0].SetStorageValue(n, op.stmt.ProbeKeys[m.ProbeRow])
		for col := range op.stmt.BuildPayload {
			vecs[col+1].SetStorageValue(n, op.stmt.BuildPayload[col][m.BuildRowIdx])
		}
		n++
	}

	if n == 0 {
		return exec.Morsel{}, false, nil
	}
	for _, v := range vecs {
		v.Len = n
	}
	return exec.Morsel{Vectors: vecs, Len: n}, true, nil
}
