package probe

import "github.com/latticedb/graphcore/pkg/gtype"

// PathPropertyProbe resolves the node/rel properties materialized along
// a variable-length path pattern's matched edges, reusing the same
// INIT/PROBING/DONE Probe beneath it but fanning each probe row's
// matches out through a per-hop property lookup (spec.md §6 scenario
// S6: "PATH_PROPERTY probe resolves properties for every matched edge
// in a variable-length path, not just its endpoints").
type PathPropertyProbe struct {
	inner    *Probe
	resolve  func(tableIdx, rowIdx int) []gtype.StorageValue
}

// PathMatch is one path hop's probe match plus its resolved properties.
type PathMatch struct {
	Match      Match
	Properties []gtype.StorageValue
}

func NewPathProperty(inner *Probe, resolve func(tableIdx, rowIdx int) []gtype.StorageValue) *PathPropertyProbe {
	return &PathPropertyProbe{inner: inner, resolve: resolve}
}

func (p *PathPropertyProbe) Next() (PathMatch, bool) {
	m, ok := p.inner.Next()
	if !ok {
		return PathMatch{}, false
	}

	var props []gtype.StorageValue
	if m.Matched {
		props = p.resolve(m.BuildTableIdx, m.BuildRowIdx)
	}

	return PathMatch{Match: m, Properties: props}, true
}
