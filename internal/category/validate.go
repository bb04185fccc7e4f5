// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package category

import (
	"cmp"
	"fmt"
	"slices"
)

// ViolationKind names a broken structural invariant.
type ViolationKind string

const (
	// ViolationMissingParent marks a node whose parent ID is not in the tree.
	ViolationMissingParent ViolationKind = "missing_parent"
	// ViolationCycle marks a node whose parent chain loops back to itself.
	ViolationCycle ViolationKind = "cycle"
	// ViolationDepth marks a node whose depth is not its parent's depth plus one.
	ViolationDepth ViolationKind = "depth"
	// ViolationLink marks a node missing from its parent's children, or a root that has a parent.
	ViolationLink ViolationKind = "link"
)

// Violation is one broken invariant found by Tree.Validate.
type Violation struct {
	Kind   ViolationKind `json:"kind"`
	NodeID int64         `json:"node_id"`
	Detail string        `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("category %d: %s: %s", v.NodeID, v.Kind, v.Detail)
}

// Validate checks that every parent exists, the parent graph is acyclic,
// depth follows the parent chain and children lists agree with parent IDs.
// A tree returned by BuildTree or MoveSubtree always validates cleanly.
func (t *Tree) Validate() []Violation {
	if t == nil {
		return nil
	}
	var out []Violation

	for _, n := range t.nodes {
		if !n.IsRoot() {
			parent, ok := t.nodes[n.ParentID]
			if !ok {
				out = append(out, Violation{
					Kind:   ViolationMissingParent,
					NodeID: n.ID,
					Detail: fmt.Sprintf("parent %d does not exist", n.ParentID),
				})
				continue
			}
			if !containsNode(parent.Children, n.ID) {
				out = append(out, Violation{
					Kind:   ViolationLink,
					NodeID: n.ID,
					Detail: fmt.Sprintf("missing from children of %d", n.ParentID),
				})
			}
		}

		path, err := t.ResolvePath(n.ID)
		if err != nil {
			out = append(out, Violation{Kind: ViolationCycle, NodeID: n.ID, Detail: err.Error()})
			continue
		}
		if len(path) > 0 && path[0].IsRoot() && n.Depth != len(path) {
			out = append(out, Violation{
				Kind:   ViolationDepth,
				NodeID: n.ID,
				Detail: fmt.Sprintf("depth %d, expected %d", n.Depth, len(path)),
			})
		}
	}

	for _, r := range t.Roots {
		if !r.IsRoot() {
			out = append(out, Violation{
				Kind:   ViolationLink,
				NodeID: r.ID,
				Detail: fmt.Sprintf("listed as root but has parent %d", r.ParentID),
			})
		}
	}

	sortViolations(out)
	return out
}

// CheckRecords validates stored rows against the tree they build: warnings
// from BuildTree plus stored depth that disagrees with the computed depth.
func CheckRecords(records []Record) []Violation {
	t, warnings := BuildTree(records)
	var out []Violation
	for _, w := range warnings {
		kind := ViolationLink
		switch w.Kind {
		case WarnOrphan:
			kind = ViolationMissingParent
		case WarnCycleBroken:
			kind = ViolationCycle
		}
		out = append(out, Violation{Kind: kind, NodeID: w.NodeID, Detail: w.String()})
	}
	for _, rec := range records {
		n, ok := t.Node(rec.ID)
		if !ok || rec.Depth == 0 {
			continue
		}
		if rec.Depth != n.Depth {
			out = append(out, Violation{
				Kind:   ViolationDepth,
				NodeID: rec.ID,
				Detail: fmt.Sprintf("stored depth %d, computed %d", rec.Depth, n.Depth),
			})
		}
	}
	sortViolations(out)
	return out
}

func containsNode(nodes []*Node, id int64) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func sortViolations(v []Violation) {
	slices.SortStableFunc(v, func(a, b Violation) int {
		return cmp.Compare(a.NodeID, b.NodeID)
	})
}
