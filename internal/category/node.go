// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package category implements the category hierarchy: building a tree from
// flat records, ancestor path resolution, the cascading selector state machine,
// subtree moves with a cycle guard and hierarchical slug generation.
//
// A Tree is an immutable snapshot. Every operation that changes structure
// returns a new Tree and leaves its input untouched.
package category

// NoParent is the parent ID of root nodes. Passing it as the new parent of a
// move places the subtree at root level.
const NoParent int64 = 0

// Record is the flat wire shape of a category as delivered by a repository.
type Record struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Slug     string `json:"slug"`
	Depth    int    `json:"depth,omitempty"`
	Position int64  `json:"position,omitempty"`
}

// Parent returns the record's parent ID, or NoParent for roots.
func (r Record) Parent() int64 {
	if r.ParentID == nil {
		return NoParent
	}
	return *r.ParentID
}

// NestedRecord is the pre-nested wire shape of a category.
type NestedRecord struct {
	Record
	Children []NestedRecord `json:"children,omitempty"`
}

// Node is a category inside a Tree.
type Node struct {
	ID       int64
	Name     string
	ParentID int64
	Depth    int
	Slug     string
	Position int64
	// SlugStale is set when the node's ancestor chain changed after its slug
	// was computed. Tree.SlugFor and Tree.RefreshSlugs recompute it.
	SlugStale bool
	Children  []*Node
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == NoParent
}

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Record converts the node back to its flat wire shape.
func (n *Node) Record() Record {
	rec := Record{
		ID:       n.ID,
		Name:     n.Name,
		Slug:     n.Slug,
		Depth:    n.Depth,
		Position: n.Position,
	}
	if n.ParentID != NoParent {
		pid := n.ParentID
		rec.ParentID = &pid
	}
	return rec
}

// ParentRef returns a pointer to id, or nil for NoParent.
func ParentRef(id int64) *int64 {
	if id == NoParent {
		return nil
	}
	return &id
}
