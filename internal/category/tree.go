// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package category

import (
	"fmt"
	"strings"
)

// WarningKind classifies a problem found while building a tree.
type WarningKind string

const (
	// WarnOrphan marks a record whose parent does not exist. It is kept as a root.
	WarnOrphan WarningKind = "orphan"
	// WarnDuplicate marks a record whose ID was already seen. It is dropped.
	WarnDuplicate WarningKind = "duplicate"
	// WarnCycleBroken marks a record whose parent chain loops. It is kept as a root.
	WarnCycleBroken WarningKind = "cycle_broken"
	// WarnInvalidID marks a record with a non-positive ID. It is dropped.
	WarnInvalidID WarningKind = "invalid_id"
)

// Warning reports a non-fatal inconsistency in source data.
type Warning struct {
	Kind     WarningKind
	NodeID   int64
	ParentID int64
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnOrphan:
		return fmt.Sprintf("category %d references missing parent %d, treated as root", w.NodeID, w.ParentID)
	case WarnDuplicate:
		return fmt.Sprintf("category %d appears more than once, later record ignored", w.NodeID)
	case WarnCycleBroken:
		return fmt.Sprintf("category %d is part of a parent cycle via %d, treated as root", w.NodeID, w.ParentID)
	case WarnInvalidID:
		return fmt.Sprintf("category record with invalid id %d ignored", w.NodeID)
	default:
		return fmt.Sprintf("category %d: %s", w.NodeID, w.Kind)
	}
}

// Tree is an immutable snapshot of the category hierarchy.
type Tree struct {
	Roots []*Node
	nodes map[int64]*Node
}

// Node looks up a node by ID.
func (t *Tree) Node(id int64) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.nodes[id]
	return n, ok
}

// Has reports whether the tree contains id.
func (t *Tree) Has(id int64) bool {
	_, ok := t.Node(id)
	return ok
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Walk visits nodes in pre-order. Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node) bool) {
	if t == nil {
		return
	}
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if fn(n) {
				walk(n.Children)
			}
		}
	}
	walk(t.Roots)
}

// BuildTree links flat records into a tree and assigns depth breadth-first,
// starting at 1 for roots. Children keep the order of the source list.
//
// Records whose parent is missing become roots and are reported as
// WarnOrphan. Records trapped in a parent cycle are cut loose at the first
// member in source order, which becomes a root (WarnCycleBroken).
func BuildTree(records []Record) (*Tree, []Warning) {
	var warnings []Warning
	t := &Tree{nodes: make(map[int64]*Node, len(records))}
	order := make([]*Node, 0, len(records))

	for _, rec := range records {
		if rec.ID <= 0 {
			warnings = append(warnings, Warning{Kind: WarnInvalidID, NodeID: rec.ID})
			continue
		}
		if _, dup := t.nodes[rec.ID]; dup {
			warnings = append(warnings, Warning{Kind: WarnDuplicate, NodeID: rec.ID})
			continue
		}
		n := &Node{
			ID:        rec.ID,
			Name:      rec.Name,
			ParentID:  rec.Parent(),
			Slug:      rec.Slug,
			Position:  rec.Position,
			SlugStale: rec.Slug == "",
		}
		t.nodes[n.ID] = n
		order = append(order, n)
	}

	for _, n := range order {
		if n.ParentID == NoParent {
			t.Roots = append(t.Roots, n)
			continue
		}
		parent, ok := t.nodes[n.ParentID]
		if !ok {
			warnings = append(warnings, Warning{Kind: WarnOrphan, NodeID: n.ID, ParentID: n.ParentID})
			n.ParentID = NoParent
			t.Roots = append(t.Roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	reached := make(map[int64]bool, len(order))
	assignDepth(t.Roots, 1, reached)

	// Anything not reached from a root sits on a parent cycle.
	for _, n := range order {
		if reached[n.ID] {
			continue
		}
		warnings = append(warnings, Warning{Kind: WarnCycleBroken, NodeID: n.ID, ParentID: n.ParentID})
		if parent, ok := t.nodes[n.ParentID]; ok {
			parent.Children = removeChild(parent.Children, n.ID)
		}
		n.ParentID = NoParent
		t.Roots = append(t.Roots, n)
		assignDepth([]*Node{n}, 1, reached)
	}

	return t, warnings
}

// assignDepth sets depth level by level starting from the given nodes.
func assignDepth(start []*Node, depth int, reached map[int64]bool) {
	level := start
	for len(level) > 0 {
		var next []*Node
		for _, n := range level {
			if reached[n.ID] {
				continue
			}
			reached[n.ID] = true
			n.Depth = depth
			next = append(next, n.Children...)
		}
		level = next
		depth++
	}
}

func removeChild(children []*Node, id int64) []*Node {
	out := make([]*Node, 0, len(children))
	for _, c := range children {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// FlattenTree emits every node in pre-order with its current depth.
func FlattenTree(t *Tree) []Record {
	out := make([]Record, 0, t.Len())
	t.Walk(func(n *Node) bool {
		out = append(out, n.Record())
		return true
	})
	return out
}

// FromNested builds a tree from a pre-nested payload. Parent links are taken
// from the nesting, not from the records' own parent fields.
func FromNested(nested []NestedRecord) (*Tree, []Warning) {
	var flat []Record
	var walk func(items []NestedRecord, parent int64)
	walk = func(items []NestedRecord, parent int64) {
		for _, item := range items {
			rec := item.Record
			rec.ParentID = ParentRef(parent)
			flat = append(flat, rec)
			walk(item.Children, rec.ID)
		}
	}
	walk(nested, NoParent)
	return BuildTree(flat)
}

// ToNested converts the tree to its pre-nested wire shape.
func ToNested(t *Tree) []NestedRecord {
	if t == nil {
		return nil
	}
	var convert func(nodes []*Node) []NestedRecord
	convert = func(nodes []*Node) []NestedRecord {
		if len(nodes) == 0 {
			return nil
		}
		out := make([]NestedRecord, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, NestedRecord{Record: n.Record(), Children: convert(n.Children)})
		}
		return out
	}
	return convert(t.Roots)
}

// Filter returns flattened rows whose name or slug contains query, ignoring case.
// An empty query returns every row.
func (t *Tree) Filter(query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return FlattenTree(t)
	}
	var out []Record
	t.Walk(func(n *Node) bool {
		if strings.Contains(strings.ToLower(n.Name), q) || strings.Contains(strings.ToLower(n.Slug), q) {
			out = append(out, n.Record())
		}
		return true
	})
	return out
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	c := &Tree{nodes: make(map[int64]*Node, len(t.nodes))}
	var clone func(nodes []*Node) []*Node
	clone = func(nodes []*Node) []*Node {
		if nodes == nil {
			return nil
		}
		out := make([]*Node, 0, len(nodes))
		for _, n := range nodes {
			cp := *n
			cp.Children = clone(n.Children)
			c.nodes[cp.ID] = &cp
			out = append(out, &cp)
		}
		return out
	}
	c.Roots = clone(t.Roots)
	return c
}
