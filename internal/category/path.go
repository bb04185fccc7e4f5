// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package category

import "fmt"

// Breadcrumb is one ancestor entry for list and detail views.
type Breadcrumb struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ResolvePath returns the chain from the root down to id, inclusive.
// It returns an empty path when id is not in the tree, and ErrCycleDetected
// if the parent links loop.
func (t *Tree) ResolvePath(id int64) ([]*Node, error) {
	n, ok := t.Node(id)
	if !ok {
		return nil, nil
	}

	seen := map[int64]bool{n.ID: true}
	path := []*Node{n}
	for !n.IsRoot() {
		parent, ok := t.nodes[n.ParentID]
		if !ok {
			// Every non-root node's parent is in the tree for trees from
			// BuildTree, Clone and MoveSubtree; a missing parent ends the chain.
			break
		}
		if seen[parent.ID] {
			return nil, fmt.Errorf("resolving path of category %d: %w", id, ErrCycleDetected)
		}
		seen[parent.ID] = true
		path = append(path, parent)
		n = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// ReversePath returns the chain from id up to its root, inclusive.
func (t *Tree) ReversePath(id int64) ([]*Node, error) {
	path, err := t.ResolvePath(id)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, len(path))
	for i, n := range path {
		out[len(path)-1-i] = n
	}
	return out, nil
}

// Ancestors returns the chain from the root down to id's parent.
func (t *Tree) Ancestors(id int64) ([]*Node, error) {
	path, err := t.ResolvePath(id)
	if err != nil || len(path) == 0 {
		return nil, err
	}
	return path[:len(path)-1], nil
}

// Breadcrumbs returns the root-to-node path in display form.
func (t *Tree) Breadcrumbs(id int64) ([]Breadcrumb, error) {
	path, err := t.ResolvePath(id)
	if err != nil {
		return nil, err
	}
	crumbs := make([]Breadcrumb, 0, len(path))
	for _, n := range path {
		crumbs = append(crumbs, Breadcrumb{ID: n.ID, Name: n.Name, Slug: n.Slug})
	}
	return crumbs, nil
}

// IsAncestor reports whether ancestorID appears strictly above id.
func (t *Tree) IsAncestor(ancestorID, id int64) (bool, error) {
	path, err := t.ResolvePath(id)
	if err != nil {
		return false, err
	}
	for _, n := range path[:max(len(path)-1, 0)] {
		if n.ID == ancestorID {
			return true, nil
		}
	}
	return false, nil
}

// Descendants returns every node below id in pre-order.
func (t *Tree) Descendants(id int64) []*Node {
	n, ok := t.Node(id)
	if !ok {
		return nil
	}
	var out []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, c := range nodes {
			out = append(out, c)
			walk(c.Children)
		}
	}
	walk(n.Children)
	return out
}
