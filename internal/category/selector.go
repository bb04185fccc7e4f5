// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package category

import "fmt"

// Level is one step of a cascading selector.
type Level struct {
	// Options are the children of the selection one level up (roots at level 0).
	Options []*Node
	// Selected is the chosen option ID, or NoParent when nothing is chosen.
	Selected int64
	// Loading marks a placeholder level waiting for tree data.
	Loading bool
}

// HasSelection reports whether an option is chosen at this level.
func (l Level) HasSelection() bool {
	return l.Selected != NoParent
}

// Selector is the state of a cascading category picker. It is a value:
// every transition returns a new Selector and leaves the receiver unchanged,
// so the caller owns the canonical state and threads it through calls.
type Selector struct {
	tree   *Tree
	levels []Level
}

// NewSelector starts a selector at the roots of t. A nil tree yields a
// loading selector.
func NewSelector(t *Tree) Selector {
	if t == nil {
		return NewLoadingSelector()
	}
	return Selector{tree: t, levels: []Level{{Options: t.Roots}}}
}

// NewLoadingSelector returns a selector with a single loading placeholder.
func NewLoadingSelector() Selector {
	return Selector{levels: []Level{{Loading: true}}}
}

// Tree returns the snapshot the selector reads from.
func (s Selector) Tree() *Tree {
	return s.tree
}

// Levels returns a copy of the visible levels.
func (s Selector) Levels() []Level {
	out := make([]Level, len(s.levels))
	copy(out, s.levels)
	return out
}

// Level returns level i.
func (s Selector) Level(i int) (Level, bool) {
	if i < 0 || i >= len(s.levels) {
		return Level{}, false
	}
	return s.levels[i], true
}

// Len returns the number of visible levels.
func (s Selector) Len() int {
	return len(s.levels)
}

// IsLoading reports whether any level is a loading placeholder.
func (s Selector) IsLoading() bool {
	for _, l := range s.levels {
		if l.Loading {
			return true
		}
	}
	return false
}

// SelectAt records nodeID as the selection at level, discards every deeper
// level and, when the node has children, opens the next level with them.
// Selecting NoParent is the same as ClearAt.
func (s Selector) SelectAt(level int, nodeID int64) (Selector, error) {
	if s.IsLoading() || s.tree == nil {
		return s, ErrLoading
	}
	if level < 0 || level >= len(s.levels) {
		return s, fmt.Errorf("select level %d: %w", level, ErrLevelOutOfRange)
	}
	if nodeID == NoParent {
		return s.ClearAt(level)
	}

	var chosen *Node
	for _, opt := range s.levels[level].Options {
		if opt.ID == nodeID {
			chosen = opt
			break
		}
	}
	if chosen == nil {
		return s, fmt.Errorf("select %d at level %d: %w", nodeID, level, ErrNotAnOption)
	}

	levels := make([]Level, level+1, level+2)
	copy(levels, s.levels[:level+1])
	levels[level].Selected = nodeID
	if chosen.HasChildren() {
		levels = append(levels, Level{Options: chosen.Children})
	}
	return Selector{tree: s.tree, levels: levels}, nil
}

// ClearAt removes the selection at level and discards every deeper level.
func (s Selector) ClearAt(level int) (Selector, error) {
	if level < 0 || level >= len(s.levels) {
		return s, fmt.Errorf("clear level %d: %w", level, ErrLevelOutOfRange)
	}
	levels := make([]Level, level+1)
	copy(levels, s.levels[:level+1])
	levels[level].Selected = NoParent
	return Selector{tree: s.tree, levels: levels}, nil
}

// Path returns the selected nodes from the root down to the deepest selection.
func (s Selector) Path() []*Node {
	var path []*Node
	for _, l := range s.levels {
		if !l.HasSelection() {
			break
		}
		n, ok := s.tree.Node(l.Selected)
		if !ok {
			break
		}
		path = append(path, n)
	}
	return path
}

// Selected returns the deepest selected node.
func (s Selector) Selected() (*Node, bool) {
	path := s.Path()
	if len(path) == 0 {
		return nil, false
	}
	return path[len(path)-1], true
}

// Selection returns the selected IDs, one per level, down to the deepest selection.
func (s Selector) Selection() []int64 {
	path := s.Path()
	ids := make([]int64, len(path))
	for i, n := range path {
		ids[i] = n.ID
	}
	return ids
}

// Pending returns a copy of the selector whose level after the deepest
// selection is a loading placeholder, for use while a new snapshot is fetched.
func (s Selector) Pending() Selector {
	if s.tree == nil {
		return NewLoadingSelector()
	}
	depth := len(s.Path())
	levels := make([]Level, depth, depth+1)
	copy(levels, s.levels[:depth])
	levels = append(levels, Level{Loading: true})
	return Selector{tree: s.tree, levels: levels}
}

// RestoreSelector replays a saved selection against t, stopping at the first
// ID that is no longer a valid option.
func RestoreSelector(t *Tree, ids []int64) Selector {
	s := NewSelector(t)
	if t == nil {
		return s
	}
	for level, id := range ids {
		next, err := s.SelectAt(level, id)
		if err != nil {
			break
		}
		s = next
	}
	return s
}

// SelectPath opens the selector along the path from the root to nodeID.
func SelectPath(t *Tree, nodeID int64) (Selector, error) {
	if !t.Has(nodeID) {
		return NewSelector(t), ErrNodeNotFound
	}
	path, err := t.ResolvePath(nodeID)
	if err != nil {
		return NewSelector(t), err
	}
	ids := make([]int64, len(path))
	for i, n := range path {
		ids[i] = n.ID
	}
	return RestoreSelector(t, ids), nil
}

// Rebase carries the current selection over to a freshly fetched tree.
func (s Selector) Rebase(t *Tree) Selector {
	return RestoreSelector(t, s.Selection())
}
