package probe_test

import (
	"testing"

	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/jointable"
	"github.com/latticedb/graphcore/pkg/probe"
)

func buildTestHashTable(t *testing.T) *jointable.JoinHashTable {
	t.Helper()
	schema := []gtype.LogicalType{gtype.Int64()}
	ht := jointable.NewJoinHashTable(10)

	local := jointable.NewBuildLocal(schema)
	local.AppendRow(gtype.StorageValueFromInt64(1), []gtype.StorageValue{gtype.StorageValueFromInt64(1)})
	local.AppendRow(gtype.StorageValueFromInt64(2), []gtype.StorageValue{gtype.StorageValueFromInt64(2)})
	ht.MergeInto(local)
	return ht
}

func TestInnerProbeSkipsUnmatchedRows(t *testing.T) {
	t.Parallel()
	ht := buildTestHashTable(t)

	keys := []gtype.StorageValue{
		gtype.StorageValueFromInt64(1),
		gtype.StorageValueFromInt64(99),
		gtype.StorageValueFromInt64(2),
	}
	p := probe.New(ht, probe.KindInner, keys)

	var rows []int
	for {
		m, ok := p.Next()
		if !ok {
			break
		}
		rows = append(rows, m.ProbeRow)
	}

	if len(rows) != 2 || rows[0] != 0 || rows[1] != 2 {
		t.Fatalf("inner probe rows = %v, want [0 2]", rows)
	}
	if p.State() != probe.StateDone {
		t.Fatalf("state = %v, want done", p.State())
	}
}

func TestLeftProbeEmitsUnmatchedAsNull(t *testing.T) {
	t.Parallel()
	ht := buildTestHashTable(t)

	keys := []gtype.StorageValue{gtype.StorageValueFromInt64(99)}
	p := probe.New(ht, probe.KindLeft, keys)

	m, ok := p.Next()
	if !ok {
		t.Fatalf("left probe should emit one row for unmatched probe row")
	}
	if m.Matched {
		t.Fatalf("unmatched left row should have Matched=false")
	}

	_, ok = p.Next()
	if ok {
		t.Fatalf("left probe should be exhausted after the synthesized row")
	}
}

func TestAntiProbeSuppressesMatchedRows(t *testing.T) {
	t.Parallel()
	ht := buildTestHashTable(t)

	keys := []gtype.StorageValue{
		gtype.StorageValueFromInt64(1),
		gtype.StorageValueFromInt64(99),
	}
	p := probe.New(ht, probe.KindAnti, keys)

	m, ok := p.Next()
	if !ok || m.ProbeRow != 1 {
		t.Fatalf("anti probe should only emit the unmatched row (index 1), got ok=%v m=%+v", ok, m)
	}
	_, ok = p.Next()
	if ok {
		t.Fatalf("anti probe should be exhausted")
	}
}

func TestMarkProbeEmitsExactlyOneRowPerProbeRow(t *testing.T) {
	t.Parallel()
	ht := buildTestHashTable(t)

	keys := []gtype.StorageValue{
		gtype.StorageValueFromInt64(1),
		gtype.StorageValueFromInt64(99),
	}
	p := probe.New(ht, probe.KindMark, keys)

	m0, ok := p.Next()
	if !ok || !m0.Matched {
		t.Fatalf("row 0 should be marked matched")
	}
	m1, ok := p.Next()
	if !ok || m1.Matched {
		t.Fatalf("row 1 should be marked unmatched")
	}
	_, ok = p.Next()
	if ok {
		t.Fatalf("mark probe should emit exactly 2 rows total")
	}
}

func TestPathPropertyProbeResolvesOnlyMatchedHops(t *testing.T) {
	t.Parallel()
	ht := buildTestHashTable(t)

	keys := []gtype.StorageValue{gtype.StorageValueFromInt64(1)}
	inner := probe.New(ht, probe.KindPathProperty, keys)

	resolved := false
	pp := probe.NewPathProperty(inner, func(tableIdx, rowIdx int) []gtype.StorageValue {
		resolved = true
		return []gtype.StorageValue{gtype.StorageValueFromInt64(42)}
	})

	pm, ok := pp.Next()
	if !ok {
		t.Fatalf("expected one path match")
	}
	if !resolved {
		t.Fatalf("resolve should have been called for a matched hop")
	}
	if len(pm.Properties) != 1 || pm.Properties[0].Int64() != 42 {
		t.Fatalf("properties = %v, want [42]", pm.Properties)
	}
}
