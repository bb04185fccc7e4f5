// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package category

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound means an operation referenced an ID absent from the snapshot.
	ErrNodeNotFound = errors.New("category not found")
	// ErrParentNotFound means the target parent ID is absent from the snapshot.
	ErrParentNotFound = errors.New("parent category not found")
	// ErrSelfParent means a node was asked to become its own parent.
	ErrSelfParent = errors.New("category cannot be its own parent")
	// ErrCycleDetected means a parent chain revisits a node, or a move would create such a chain.
	ErrCycleDetected = errors.New("category hierarchy cycle detected")
	// ErrStaleSnapshot means the backend rejected a write because the tree changed since it was fetched.
	ErrStaleSnapshot = errors.New("category tree changed since it was fetched")

	// ErrInvalidName means a name normalizes to an empty slug segment.
	ErrInvalidName = errors.New("name does not produce a valid slug")

	// ErrLevelOutOfRange means a selector level index does not exist.
	ErrLevelOutOfRange = errors.New("selector level out of range")
	// ErrNotAnOption means the ID is not one of the options offered at a level.
	ErrNotAnOption = errors.New("category is not an option at this level")
	// ErrLoading means the selector is waiting for tree data.
	ErrLoading = errors.New("category tree is still loading")
)

// MoveError describes a rejected subtree move. It unwraps to one of the
// sentinel errors above.
type MoveError struct {
	NodeID   int64
	ParentID int64
	Err      error
}

func (e *MoveError) Error() string {
	if e.ParentID == NoParent {
		return fmt.Sprintf("move category %d to root: %v", e.NodeID, e.Err)
	}
	return fmt.Sprintf("move category %d under %d: %v", e.NodeID, e.ParentID, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
