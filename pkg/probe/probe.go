// Package probe implements join-probe operators over a built
// jointable.JoinHashTable: inner, left, mark, anti, and path-property
// probes, each a small state machine with INIT/PROBING/DONE states
// (spec.md §5, §6, scenario S6, component H).
//
// Grounded on the teacher's pull-based Cache.Scan (pkg/slotcache/scan.go
// hands back an iter.Seq-shaped cursor that advances across bucket
// boundaries, resuming mid-chain on each call rather than building the
// whole result up front): a Probe here is the same shape, resuming
// mid-chain across repeated Next calls instead of fully materializing a
// probe side's matches.
package probe

import (
	"github.com/latticedb/graphcore/pkg/gtype"
	"github.com/latticedb/graphcore/pkg/jointable"
)

// State is a probe operator's position in its INIT/PROBING/DONE cycle
// (spec.md §6: "probe state machine: INIT -> PROBING -> DONE").
type State uint8

const (
	StateInit State = iota
	StateProbing
	StateDone
)

// Match is one (probe row, build row) pairing surfaced by Next.
type Match struct {
	ProbeRow      int
	BuildTableIdx int
	BuildRowIdx   int
	// Matched is false for a left/anti probe's synthesized no-match row
	// and for a mark probe's row that found no build match; in those
	// rows BuildTableIdx/BuildRowIdx are meaningless.
	Matched bool
}

// Kind selects which join semantics Next applies.
type Kind uint8

const (
	KindInner Kind = iota
	KindLeft
	KindMark
	KindAnti
	KindPathProperty
)

// Probe drives one probe-side morsel's matches against a built hash
// table; each call to Next yields one Match, so a probe row with several
// build matches spans several calls.
type Probe struct {
	ht    *jointable.JoinHashTable
	kind  Kind
	state State

	probeKeys []gtype.StorageValue
	row       int

	// pending holds the matches found for the current probe row that
	// Next has not yet drained, supporting a probe row with many build
	// matches across several Next calls without rebuilding the chain
	// walk each time.
	pending []Match
	pendingIdx int

	// markSeen tracks, per probe row, whether any match was found --
	// consulted only when kind == KindMark to emit the mark payload
	// after the row's chain has been fully walked (spec.md §6: "MARK
	// emits exactly one output row per probe row, carrying whether any
	// match existed").
	markSeen bool
}

func New(ht *jointable.JoinHashTable, kind Kind, probeKeys []gtype.StorageValue) *Probe {
	return &Probe{ht: ht, kind: kind, state: StateInit, probeKeys: probeKeys}
}

// Next returns the next output match, or ok=false once every probe row
// has been exhausted (state transitions to DONE).
func (p *Probe) Next() (Match, bool) {
	if p.state == StateInit {
		p.state = StateProbing
	}

	for {
		if p.pendingIdx < len(p.pending) {
			m := p.pending[p.pendingIdx]
			p.pendingIdx++
			return m, true
		}

		if p.row >= len(p.probeKeys) {
			p.state = StateDone
			return Match{}, false
		}

		p.drainRow(p.row)
		p.row++
		p.pendingIdx = 0
	}
}

// drainRow walks the build chain for probeKeys[row] and stages every
// result Next will hand back, applying this Probe's join semantics.
func (p *Probe) drainRow(row int) {
	p.pending = p.pending[:0]
	p.markSeen = false

	key := p.probeKeys[row]
	p.ht.Probe(key, func(tableIdx, rowIdx int) {
		p.markSeen = true
		switch p.kind {
		case KindInner, KindLeft, KindPathProperty:
			p.pending = append(p.pending, Match{ProbeRow: row, BuildTableIdx: tableIdx, BuildRowIdx: rowIdx, Matched: true})
		case KindAnti:
			// Anti suppresses the row entirely once any match exists;
			// nothing is staged per match, only decided after the walk.
		case KindMark:
			// Mark stages nothing per match either; only the boolean
			// matters, emitted once below.
		}
	})

	switch p.kind {
	case KindLeft:
		if len(p.pending) == 0 {
			p.pending = append(p.pending, Match{ProbeRow: row, Matched: false})
		}
	case KindAnti:
		if !p.markSeen {
			p.pending = append(p.pending, Match{ProbeRow: row, Matched: false})
		}
	case KindMark:
		p.pending = append(p.pending, Match{ProbeRow: row, Matched: p.markSeen})
	}
}

// State reports the probe's current lifecycle state.
func (p *Probe) State() State { return p.state }
