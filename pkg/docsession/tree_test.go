package docsession

import (
	"testing"
	"time"
)

func section(id string, parent *string, order int) Section {
	return Section{ID: id, ParentID: parent, Order: order}
}

func TestTreeProjection(t *testing.T) {
	tests := []struct {
		name         string
		sections     []Section
		wantRoots    []string
		wantChildren map[string][]string
	}{
		{
			name:      "empty list",
			sections:  nil,
			wantRoots: []string{},
		},
		{
			name: "single root with one child",
			sections: []Section{
				section("s1", nil, 0),
				section("s2", strPtr("s1"), 0),
			},
			wantRoots: []string{"s1"},
			wantChildren: map[string][]string{
				"s1": {"s2"},
				"s2": {},
			},
		},
		{
			name: "roots sorted by order not input position",
			sections: []Section{
				section("s2", nil, 1),
				section("s1", nil, 0),
			},
			wantRoots: []string{"s1", "s2"},
		},
		{
			name: "siblings sorted within each parent",
			sections: []Section{
				section("root", nil, 0),
				section("c3", strPtr("root"), 2),
				section("c1", strPtr("root"), 0),
				section("c2", strPtr("root"), 1),
			},
			wantRoots: []string{"root"},
			wantChildren: map[string][]string{
				"root": {"c1", "c2", "c3"},
			},
		},
		{
			name: "arbitrary depth",
			sections: []Section{
				section("a", nil, 0),
				section("b", strPtr("a"), 0),
				section("c", strPtr("b"), 0),
				section("d", strPtr("c"), 0),
			},
			wantRoots: []string{"a"},
			wantChildren: map[string][]string{
				"a": {"b"},
				"b": {"c"},
				"c": {"d"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree(tt.sections)

			roots := tree.Roots()
			if len(roots) != len(tt.wantRoots) {
				t.Fatalf("got %d roots, want %d", len(roots), len(tt.wantRoots))
			}
			for i, want := range tt.wantRoots {
				if roots[i].ID != want {
					t.Errorf("root[%d] = %s, want %s", i, roots[i].ID, want)
				}
			}

			for parent, want := range tt.wantChildren {
				children := tree.Children(parent)
				if len(children) != len(want) {
					t.Fatalf("children(%s): got %d, want %d", parent, len(children), len(want))
				}
				for i, wantID := range want {
					if children[i].ID != wantID {
						t.Errorf("children(%s)[%d] = %s, want %s", parent, i, children[i].ID, wantID)
					}
				}
			}
		})
	}
}

func TestTreeIdempotent(t *testing.T) {
	sections := []Section{
		section("s1", nil, 0),
		section("s2", strPtr("s1"), 0),
		section("s3", strPtr("s1"), 1),
	}

	first := NewTree(sections)
	second := NewTree(sections)

	firstRoots, secondRoots := first.Roots(), second.Roots()
	if len(firstRoots) != len(secondRoots) {
		t.Fatalf("root counts differ: %d vs %d", len(firstRoots), len(secondRoots))
	}
	for i := range firstRoots {
		if firstRoots[i].ID != secondRoots[i].ID {
			t.Errorf("roots differ at %d: %s vs %s", i, firstRoots[i].ID, secondRoots[i].ID)
		}
	}

	firstKids, secondKids := first.Children("s1"), second.Children("s1")
	for i := range firstKids {
		if firstKids[i].ID != secondKids[i].ID {
			t.Errorf("children differ at %d: %s vs %s", i, firstKids[i].ID, secondKids[i].ID)
		}
	}
}

func TestTreeSiblingSwap(t *testing.T) {
	sections := []Section{
		section("root", nil, 0),
		section("a", strPtr("root"), 0),
		section("b", strPtr("root"), 1),
	}

	before := NewTree(sections)
	kids := before.Children("root")
	if kids[0].ID != "a" || kids[1].ID != "b" {
		t.Fatalf("before swap: got %s,%s", kids[0].ID, kids[1].ID)
	}

	// Swap the two siblings' order values and re-project
	sections[1].Order = 1
	sections[2].Order = 0

	after := NewTree(sections)
	kids = after.Children("root")
	if kids[0].ID != "b" || kids[1].ID != "a" {
		t.Errorf("after swap: got %s,%s, want b,a", kids[0].ID, kids[1].ID)
	}

	// Nothing else changed
	roots := after.Roots()
	if len(roots) != 1 || roots[0].ID != "root" {
		t.Errorf("roots changed by sibling swap: %+v", roots)
	}
}

func TestTreeOrderTieBrokenByCreation(t *testing.T) {
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	second := section("second", nil, 0)
	second.CreatedAt = later
	first := section("first", nil, 0)
	first.CreatedAt = earlier

	tree := NewTree([]Section{second, first})
	roots := tree.Roots()
	if roots[0].ID != "first" || roots[1].ID != "second" {
		t.Errorf("tie not broken by creation order: got %s,%s", roots[0].ID, roots[1].ID)
	}
}

func TestTreeWalkDepthFirst(t *testing.T) {
	sections := []Section{
		section("a", nil, 0),
		section("z", nil, 1),
		section("a1", strPtr("a"), 0),
		section("a2", strPtr("a"), 1),
	}

	var visited []string
	var depths []int
	NewTree(sections).Walk(func(s Section, depth int) {
		visited = append(visited, s.ID)
		depths = append(depths, depth)
	})

	wantOrder := []string{"a", "a1", "a2", "z"}
	wantDepth := []int{0, 1, 1, 0}
	for i := range wantOrder {
		if visited[i] != wantOrder[i] || depths[i] != wantDepth[i] {
			t.Fatalf("walk[%d] = %s@%d, want %s@%d", i, visited[i], depths[i], wantOrder[i], wantDepth[i])
		}
	}
}
