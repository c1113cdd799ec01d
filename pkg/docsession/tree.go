package docsession

import "sort"

// Tree is an ordered forest projected from a flat section list. It is a
// pure derivation: build a new one whenever the backing list changes.
// It does not validate acyclicity; the Coordinator rejects cycle-creating
// mutations before they reach the list.
type Tree struct {
	roots    []Section
	children map[string][]Section
}

// NewTree projects a flat section list into a forest. Siblings are sorted
// by order, ties broken by creation time. The input slice is not retained.
func NewTree(sections []Section) *Tree {
	t := &Tree{
		children: make(map[string][]Section),
	}

	for _, s := range sections {
		if s.ParentID == nil {
			t.roots = append(t.roots, s)
		} else {
			t.children[*s.ParentID] = append(t.children[*s.ParentID], s)
		}
	}

	sortSiblings(t.roots)
	for _, siblings := range t.children {
		sortSiblings(siblings)
	}

	return t
}

func sortSiblings(siblings []Section) {
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].Order != siblings[j].Order {
			return siblings[i].Order < siblings[j].Order
		}
		return siblings[i].CreatedAt.Before(siblings[j].CreatedAt)
	})
}

// Roots returns the top-level sections in order.
func (t *Tree) Roots() []Section {
	out := make([]Section, len(t.roots))
	copy(out, t.roots)
	return out
}

// Children returns the direct children of a section in order. Unknown ids
// and leaf sections both yield an empty slice.
func (t *Tree) Children(sectionID string) []Section {
	siblings := t.children[sectionID]
	out := make([]Section, len(siblings))
	copy(out, siblings)
	return out
}

// Walk visits every section depth-first in display order.
func (t *Tree) Walk(fn func(s Section, depth int)) {
	var visit func(sections []Section, depth int)
	visit = func(sections []Section, depth int) {
		for _, s := range sections {
			fn(s, depth)
			visit(t.children[s.ID], depth+1)
		}
	}
	visit(t.roots, 0)
}
