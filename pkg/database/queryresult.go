package database

import (
	"time"

	"github.com/latticedb/graphcore/pkg/exec"
	"github.com/latticedb/graphcore/pkg/gtype"
)

// QueryResult is the handle executeStatement returns (spec.md §6): a
// failed statement reports Success()==false with a classified Error
// rather than propagating one, and a successful one is driven morsel by
// morsel via Next(), mirroring the teacher's Scan-cursor result shape.
type QueryResult struct {
	names []string
	types []gtype.LogicalType
	op    exec.Operator

	err *Error

	compilingTimeSec float64
	executionTimeSec float64
	isProfile        bool
	planText         string

	current    exec.Morsel
	curRow     int
	haveMorsel bool
}

func newFailedResult(err *Error) *QueryResult {
	return &QueryResult{err: err}
}

func newResult(stmt PreparedStatement, compilingTimeSec float64) *QueryResult {
	return &QueryResult{
		names:            stmt.ColumnNames(),
		types:            stmt.ColumnTypes(),
		op:               stmt.run(),
		compilingTimeSec: compilingTimeSec,
	}
}

func (r *QueryResult) Success() bool { return r.err == nil }

func (r *QueryResult) ErrorKind() ErrorKind {
	if r.err == nil {
		return 0
	}
	return r.err.Kind
}

func (r *QueryResult) ErrorMessage() string {
	if r.err == nil {
		return ""
	}
	return r.err.Message
}

func (r *QueryResult) ColumnNames() []string            { return r.names }
func (r *QueryResult) ColumnTypes() []gtype.LogicalType { return r.types }

// CompilingTimeSec/ExecutionTimeSec report the same two timing buckets
// spec.md §6 names; ExecutionTimeSec accumulates as Next is called
// since execution is pull-driven rather than eager.
func (r *QueryResult) CompilingTimeSec() float64 { return r.compilingTimeSec }
func (r *QueryResult) ExecutionTimeSec() float64 { return r.executionTimeSec }

func (r *QueryResult) IsProfile() bool  { return r.isProfile }
func (r *QueryResult) PlanText() string { return r.planText }

// Row is one materialized output row: Values[i] and Nulls[i] belong to
// the i-th result column, in ColumnNames order.
type Row struct {
	Values []gtype.StorageValue
	Nulls  []bool
}

// Next advances to the next output row, pulling a fresh morsel from the
// underlying operator when the current one is exhausted (spec.md §6
// pull-based get_next() contract, surfaced to the embedding API one row
// at a time the way a cursor-style client expects).
func (r *QueryResult) Next() (Row, bool, error) {
	if r.err != nil || r.op == nil {
		return Row{}, false, nil
	}

	for {
		if r.haveMorsel && r.curRow < r.current.Len {
			row := Row{
				Values: make([]gtype.StorageValue, len(r.current.Vectors)),
				Nulls:  make([]bool, len(r.current.Vectors)),
			}
			for i, v := range r.current.Vectors {
				row.Values[i] = v.GetStorageValue(r.curRow)
				row.Nulls[i] = v.IsNull(r.curRow)
			}
			r.curRow++
			return row, true, nil
		}

		start := time.Now()
		m, ok, err := r.op.GetNext()
		r.executionTimeSec += time.Since(start).Seconds()
		if err != nil {
			return Row{}, false, err
		}
		if !ok {
			return Row{}, false, nil
		}
		r.current = m
		r.curRow = 0
		r.haveMorsel = true
	}
}
