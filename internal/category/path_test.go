package category

import (
	"errors"
	"testing"
)

func nodeIDs(nodes []*Node) []int64 {
	ids := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolvePath(t *testing.T) {
	tree := electronicsTree(t)

	tests := []struct {
		name string
		id   int64
		want []int64
	}{
		{"root", 1, []int64{1}},
		{"leaf", 3, []int64{1, 2, 3}},
		{"second branch", 5, []int64{1, 5}},
		{"other root", 6, []int64{6}},
		{"unknown", 999, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := tree.ResolvePath(tt.id)
			if err != nil {
				t.Fatalf("ResolvePath(%d) error: %v", tt.id, err)
			}
			if got := nodeIDs(path); !equalIDs(got, tt.want) {
				t.Errorf("ResolvePath(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestResolvePath_Cycle(t *testing.T) {
	// Build a tree by hand whose parent links loop. BuildTree never returns one.
	a := &Node{ID: 1, ParentID: 2}
	b := &Node{ID: 2, ParentID: 1}
	tree := &Tree{nodes: map[int64]*Node{1: a, 2: b}}

	_, err := tree.ResolvePath(1)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestReversePath(t *testing.T) {
	tree := electronicsTree(t)
	path, err := tree.ReversePath(3)
	if err != nil {
		t.Fatalf("ReversePath error: %v", err)
	}
	if got := nodeIDs(path); !equalIDs(got, []int64{3, 2, 1}) {
		t.Errorf("ReversePath(3) = %v", got)
	}
}

func TestAncestorsAndBreadcrumbs(t *testing.T) {
	tree := electronicsTree(t)

	anc, err := tree.Ancestors(3)
	if err != nil {
		t.Fatalf("Ancestors error: %v", err)
	}
	if got := nodeIDs(anc); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("Ancestors(3) = %v", got)
	}

	anc, _ = tree.Ancestors(1)
	if len(anc) != 0 {
		t.Errorf("root should have no ancestors, got %v", nodeIDs(anc))
	}

	crumbs, err := tree.Breadcrumbs(4)
	if err != nil {
		t.Fatalf("Breadcrumbs error: %v", err)
	}
	if len(crumbs) != 3 {
		t.Fatalf("expected 3 breadcrumbs, got %d", len(crumbs))
	}
	if crumbs[0].Name != "Electronics" || crumbs[2].Slug != "categories/electronics/phones/feature-phones" {
		t.Errorf("unexpected breadcrumbs: %+v", crumbs)
	}
}

func TestIsAncestor(t *testing.T) {
	tree := electronicsTree(t)

	tests := []struct {
		ancestor, id int64
		want         bool
	}{
		{1, 3, true},
		{2, 3, true},
		{3, 3, false},
		{3, 1, false},
		{6, 3, false},
		{1, 999, false},
	}
	for _, tt := range tests {
		got, err := tree.IsAncestor(tt.ancestor, tt.id)
		if err != nil {
			t.Fatalf("IsAncestor(%d, %d) error: %v", tt.ancestor, tt.id, err)
		}
		if got != tt.want {
			t.Errorf("IsAncestor(%d, %d) = %v, want %v", tt.ancestor, tt.id, got, tt.want)
		}
	}
}

func TestDescendants(t *testing.T) {
	tree := electronicsTree(t)
	if got := nodeIDs(tree.Descendants(1)); !equalIDs(got, []int64{2, 3, 4, 5}) {
		t.Errorf("Descendants(1) = %v", got)
	}
	if got := tree.Descendants(3); len(got) != 0 {
		t.Errorf("leaf should have no descendants, got %v", nodeIDs(got))
	}
	if got := tree.Descendants(999); got != nil {
		t.Errorf("unknown node should return nil")
	}
}

func TestResolvePath_ClonedAndMovedTreesReachRoot(t *testing.T) {
	tree := electronicsTree(t)

	moved, _, err := MoveSubtree(tree, 2, 6)
	if err != nil {
		t.Fatalf("MoveSubtree error: %v", err)
	}

	tests := []struct {
		name string
		tree *Tree
		want []int64
	}{
		{"clone", tree.Clone(), []int64{1, 2, 3}},
		{"moved", moved, []int64{6, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := tt.tree.ResolvePath(3)
			if err != nil {
				t.Fatalf("ResolvePath(3) error: %v", err)
			}
			if got := nodeIDs(path); !equalIDs(got, tt.want) {
				t.Errorf("ResolvePath(3) = %v, want %v", got, tt.want)
			}
			if !path[0].IsRoot() {
				t.Errorf("path starts at %d, which is not a root", path[0].ID)
			}
		})
	}
}
