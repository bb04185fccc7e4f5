// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package category

import "errors"

// MovePlan is a validated re-parenting that a caller submits to the repository.
type MovePlan struct {
	NodeID      int64   `json:"node_id"`
	OldParentID int64   `json:"old_parent_id"`
	NewParentID int64   `json:"new_parent_id"`
	Affected    []int64 `json:"affected"`
}

// NoOp reports whether the move keeps the node under its current parent.
func (p *MovePlan) NoOp() bool {
	return p.OldParentID == p.NewParentID
}

// ValidateMove runs the move checks in order and returns the first failure:
// missing node, missing parent, self parent, then the cycle guard.
func ValidateMove(t *Tree, nodeID, newParentID int64) error {
	if !t.Has(nodeID) {
		return &MoveError{NodeID: nodeID, ParentID: newParentID, Err: ErrNodeNotFound}
	}
	if newParentID != NoParent && !t.Has(newParentID) {
		return &MoveError{NodeID: nodeID, ParentID: newParentID, Err: ErrParentNotFound}
	}
	if newParentID == nodeID {
		return &MoveError{NodeID: nodeID, ParentID: newParentID, Err: ErrSelfParent}
	}
	if newParentID == NoParent {
		return nil
	}

	// The new parent's chain up to its root must not pass through the node.
	path, err := t.ResolvePath(newParentID)
	if err != nil {
		return &MoveError{NodeID: nodeID, ParentID: newParentID, Err: err}
	}
	for _, n := range path {
		if n.ID == nodeID {
			return &MoveError{NodeID: nodeID, ParentID: newParentID, Err: ErrCycleDetected}
		}
	}
	return nil
}

// MoveSubtree re-parents the subtree rooted at nodeID under newParentID
// (NoParent for root level). On success it returns a new tree in which the
// moved node and all of its descendants have recomputed depth and stale
// slugs, plus the plan to persist. On failure the input tree is untouched
// and no tree is returned.
func MoveSubtree(t *Tree, nodeID, newParentID int64) (*Tree, *MovePlan, error) {
	if err := ValidateMove(t, nodeID, newParentID); err != nil {
		return nil, nil, err
	}

	out := t.Clone()
	node := out.nodes[nodeID]
	plan := &MovePlan{
		NodeID:      nodeID,
		OldParentID: node.ParentID,
		NewParentID: newParentID,
	}
	if plan.NoOp() {
		return out, plan, nil
	}

	if node.IsRoot() {
		out.Roots = removeChild(out.Roots, nodeID)
	} else {
		old := out.nodes[node.ParentID]
		old.Children = removeChild(old.Children, nodeID)
	}

	node.ParentID = newParentID
	depth := 1
	if newParentID == NoParent {
		out.Roots = append(out.Roots, node)
	} else {
		parent := out.nodes[newParentID]
		parent.Children = append(parent.Children, node)
		depth = parent.Depth + 1
	}

	var relabel func(n *Node, d int)
	relabel = func(n *Node, d int) {
		n.Depth = d
		n.SlugStale = true
		plan.Affected = append(plan.Affected, n.ID)
		for _, c := range n.Children {
			relabel(c, d+1)
		}
	}
	relabel(node, depth)

	return out, plan, nil
}

// IsMoveRejection reports whether err is one of the local move validation failures.
func IsMoveRejection(err error) bool {
	return errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrParentNotFound) ||
		errors.Is(err, ErrSelfParent) ||
		errors.Is(err, ErrCycleDetected)
}
