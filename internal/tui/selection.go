package tui

import (
	"slices"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
)

// Selection is the ordered set of picked commands. Order is the order in
// which the user picked them, which is also the run order.
type Selection struct {
	refs []catalog.Ref
}

// Select picks ref. Without extend the selection becomes just ref; with
// extend ref is toggled and the rest is kept.
func (s *Selection) Select(ref catalog.Ref, extend bool) {
	if !extend {
		s.refs = []catalog.Ref{ref}
		return
	}

	if i := slices.Index(s.refs, ref); i >= 0 {
		s.refs = slices.Delete(s.refs, i, i+1)
		return
	}
	s.refs = append(s.refs, ref)
}

func (s *Selection) Clear() {
	s.refs = nil
}

// Refs returns a copy of the picked refs in pick order
func (s Selection) Refs() []catalog.Ref {
	return slices.Clone(s.refs)
}

func (s Selection) Len() int {
	return len(s.refs)
}

// Position returns the 1-based pick order of ref, or 0 if not picked
func (s Selection) Position(ref catalog.Ref) int {
	return slices.Index(s.refs, ref) + 1
}

// ReleaseAllowed reports whether every picked command supports release mode.
// An empty selection allows it.
func (s Selection) ReleaseAllowed(c *catalog.Catalog) bool {
	for _, ref := range s.refs {
		d, ok := c.Lookup(ref)
		if ok && !d.SupportsRelease {
			return false
		}
	}
	return true
}
