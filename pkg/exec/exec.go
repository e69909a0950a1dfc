// Package exec implements the pull-based get_next() execution contract
// and morsel-driven parallelism that glues storage, vectors, and the
// join-probe operators into a running query pipeline (spec.md §5, §6,
// component J).
//
// Grounded on the teacher's pkg/slotcache scan cursor (a pull-based,
// resumable iterator that callers drive one Scan call at a time) and
// the cooperative-cancellation idiom in pkg/fs.Chaos's injected-failure
// context checks: an Operator here is driven the same way — the caller
// calls GetNext() repeatedly, and a shared atomic interrupt flag (rather
// than a context.Context, since operators are driven from tight
// non-blocking loops inside one morsel rather than across goroutine
// boundaries) lets a long-running scan abort between morsels.
package exec

import (
	"sync/atomic"

	"github.com/latticedb/graphcore/pkg/vector"
)

// Morsel is one fixed-size unit of parallel work, matching
// vector.Capacity rows (spec.md §6: "morsel-based parallelism: work is
// split into fixed-size morsels, each processed independently by a
// worker").
type Morsel struct {
	Vectors []*vector.Vector
	Len     int
}

// Interrupt is a shared, lock-free cancellation flag checked between
// morsels by every Operator in a pipeline.
type Interrupt struct {
	flag atomic.Bool
}

func (i *Interrupt) Cancel()         { i.flag.Store(true) }
func (i *Interrupt) Cancelled() bool { return i.flag.Load() }

// Operator is the pull-based contract every execution node implements:
// repeated calls to GetNext() produce morsels until ok=false signals
// exhaustion (spec.md §6: "operators communicate via a pull-based
// get_next() contract").
type Operator interface {
	GetNext() (Morsel, bool, error)
}

// Source is a leaf Operator pulling rows from a caller-supplied morsel
// producer function (the bridge from pkg/storage/column reads or
// pkg/probe matches into the exec pipeline).
type Source struct {
	next      func() (Morsel, bool, error)
	interrupt *Interrupt
}

func NewSource(interrupt *Interrupt, next func() (Morsel, bool, error)) *Source {
	return &Source{next: next, interrupt: interrupt}
}

func (s *Source) GetNext() (Morsel, bool, error) {
	if s.interrupt != nil && s.interrupt.Cancelled() {
		return Morsel{}, false, nil
	}
	return s.next()
}

// Filter wraps an upstream Operator, applying keep to every morsel's
// rows and narrowing each vector to the surviving selection (spec.md
// §6: "operators communicate through selection vectors rather than
// copying data").
type Filter struct {
	upstream  Operator
	keep      func(m Morsel, row int) bool
	interrupt *Interrupt
}

func NewFilter(upstream Operator, interrupt *Interrupt, keep func(m Morsel, row int) bool) *Filter {
	return &Filter{upstream: upstream, keep: keep, interrupt: interrupt}
}

func (f *Filter) GetNext() (Morsel, bool, error) {
	for {
		if f.interrupt != nil && f.interrupt.Cancelled() {
			return Morsel{}, false, nil
		}

		m, ok, err := f.upstream.GetNext()
		if err != nil || !ok {
			return Morsel{}, ok, err
		}

		var positions []uint32
		for row := 0; row < m.Len; row++ {
			if f.keep(m, row) {
				positions = append(positions, uint32(row))
			}
		}

		if len(positions) == 0 {
			continue // this morsel had no surviving rows; pull the next one
		}

		out := make([]*vector.Vector, len(m.Vectors))
		for i, v := range m.Vectors {
			out[i] = v.Slice(positions)
		}

		return Morsel{Vectors: out, Len: len(positions)}, true, nil
	}
}

// Pipeline runs root to completion, calling onMorsel for every produced
// morsel; it stops without error once root reports exhaustion, which a
// Source or Filter does as soon as its Interrupt is cancelled.
func Pipeline(root Operator, onMorsel func(Morsel) error) error {
	for {
		m, ok, err := root.GetNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := onMorsel(m); err != nil {
			return err
		}
	}
}
