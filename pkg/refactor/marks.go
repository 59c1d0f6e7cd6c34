package refactor

import (
	"cmp"
	"slices"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Mark labels a node. Marks follow node identity, so they survive edits
// that keep the node and vanish with it.
type Mark struct {
	ID    syntax.NodeID
	Label string
}

// Marks is a set of (node, label) pairs.
type Marks struct {
	set map[Mark]struct{}
}

// NewMarks returns an empty set.
func NewMarks() *Marks {
	return &Marks{set: make(map[Mark]struct{})}
}

// Add marks id with label and reports whether the mark is new.
func (m *Marks) Add(id syntax.NodeID, label string) bool {
	k := Mark{ID: id, Label: label}
	if _, ok := m.set[k]; ok {
		return false
	}

	m.set[k] = struct{}{}

	return true
}

// Has reports whether id carries label.
func (m *Marks) Has(id syntax.NodeID, label string) bool {
	_, ok := m.set[Mark{ID: id, Label: label}]

	return ok
}

// Remove deletes one mark.
func (m *Marks) Remove(id syntax.NodeID, label string) {
	delete(m.set, Mark{ID: id, Label: label})
}

// Clear removes the marks with any of labels, or every mark when labels is
// empty. It returns the number removed.
func (m *Marks) Clear(labels ...string) int {
	if len(labels) == 0 {
		n := len(m.set)
		clear(m.set)

		return n
	}

	n := 0

	for k := range m.set {
		if slices.Contains(labels, k.Label) {
			delete(m.set, k)
			n++
		}
	}

	return n
}

// Len returns the number of marks.
func (m *Marks) Len() int { return len(m.set) }

// List returns all marks ordered by node then label.
func (m *Marks) List() []Mark {
	out := make([]Mark, 0, len(m.set))
	for k := range m.set {
		out = append(out, k)
	}

	slices.SortFunc(out, func(a, b Mark) int {
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}

		return cmp.Compare(a.Label, b.Label)
	})

	return out
}

// ByNode groups labels by node, each list sorted.
func (m *Marks) ByNode() map[syntax.NodeID][]string {
	out := make(map[syntax.NodeID][]string)
	for _, k := range m.List() {
		out[k.ID] = append(out[k.ID], k.Label)
	}

	return out
}

// Prune drops marks on nodes no longer present under root.
func (m *Marks) Prune(root syntax.Container) int {
	live := make(map[syntax.NodeID]bool)

	syntax.Inspect(root, func(n syntax.Node) bool {
		live[n.NodeID()] = true

		return true
	})

	n := 0

	for k := range m.set {
		if !live[k.ID] {
			delete(m.set, k)
			n++
		}
	}

	return n
}
