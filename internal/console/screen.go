// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package console holds the state of the category administration screen: the
// current tree snapshot, its revision and the cascading selector. It sequences
// fetches and moves against a Repository.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/repository"
)

// State is the load state of a Screen.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrSuperseded means a fetch finished after a newer one was started; its
	// result was discarded.
	ErrSuperseded = errors.New("category fetch superseded by a newer request")
	// ErrWriteInFlight means another move, create or delete has not finished
	// yet. Writes are submitted one at a time against the current revision.
	ErrWriteInFlight = errors.New("another category write is in progress")
	// ErrNotLoaded means no snapshot is available yet.
	ErrNotLoaded = errors.New("category tree not loaded")
)

// Screen owns one tree snapshot and the selector built on it. It is safe for
// concurrent use.
type Screen struct {
	repo   repository.Repository
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	state      State
	lastErr    error
	tree       *category.Tree
	revision   repository.Revision
	warnings   []category.Warning
	selector   category.Selector
	writing    bool
}

// NewScreen creates an empty screen reading from repo.
func NewScreen(repo repository.Repository, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	return &Screen{
		repo:     repo,
		logger:   logger,
		selector: category.NewLoadingSelector(),
	}
}

// State returns the load state and the error of the last failed load.
func (s *Screen) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Tree returns the current snapshot and its revision, or nil before the
// first successful load.
func (s *Screen) Tree() (*category.Tree, repository.Revision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree, s.revision
}

// Warnings returns the build warnings of the current snapshot.
func (s *Screen) Warnings() []category.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]category.Warning(nil), s.warnings...)
}

// Selector returns the current selector. While a fetch is in flight the
// level after the deepest selection is a loading placeholder.
func (s *Screen) Selector() category.Selector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selector
}

// Load fetches a fresh snapshot. When several loads overlap only the most
// recently started one is applied; older ones return ErrSuperseded.
func (s *Screen) Load(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.selector = s.selector.Pending()
	s.mu.Unlock()

	records, rev, err := s.repo.FetchFlatList(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("discarding superseded category fetch", "generation", gen, "current", s.generation)
		return ErrSuperseded
	}
	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		if s.tree != nil {
			s.selector = s.selector.Rebase(s.tree)
		}
		return fmt.Errorf("loading categories: %w", err)
	}

	tree, warnings := category.BuildTree(records)
	for _, w := range warnings {
		s.logger.Warn("category data inconsistency", "kind", string(w.Kind),
			"category_id", w.NodeID, "parent_id", w.ParentID, "revision", int64(rev))
	}
	s.tree = tree
	s.revision = rev
	s.warnings = warnings
	s.selector = s.selector.Rebase(tree)
	s.state = StateReady
	s.lastErr = nil
	return nil
}

// SelectAt applies a selection at level.
func (s *Screen) SelectAt(level int, id int64) (category.Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.selector.SelectAt(level, id)
	if err != nil {
		return s.selector, err
	}
	s.selector = next
	return next, nil
}

// ClearAt clears the selection at level.
func (s *Screen) ClearAt(level int) (category.Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.selector.ClearAt(level)
	if err != nil {
		return s.selector, err
	}
	s.selector = next
	return next, nil
}

// Focus opens the selector along the path to id.
func (s *Screen) Focus(id int64) (category.Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return s.selector, ErrNotLoaded
	}
	next, err := category.SelectPath(s.tree, id)
	if err != nil {
		return s.selector, err
	}
	s.selector = next
	return next, nil
}

// Breadcrumbs returns the root-to-node path of id in the current snapshot.
func (s *Screen) Breadcrumbs(id int64) ([]category.Breadcrumb, error) {
	s.mu.Lock()
	tree := s.tree
	s.mu.Unlock()
	if tree == nil {
		return nil, ErrNotLoaded
	}
	if !tree.Has(id) {
		return nil, category.ErrNodeNotFound
	}
	return tree.Breadcrumbs(id)
}

// SlugPreview returns the slug a new category named name would get under parentID.
func (s *Screen) SlugPreview(parentID int64, name string) (string, error) {
	s.mu.Lock()
	tree := s.tree
	s.mu.Unlock()
	if tree == nil {
		return "", ErrNotLoaded
	}
	return category.GenerateChildSlug(tree, parentID, name)
}

// Move validates a subtree move against the current snapshot, submits it
// with the snapshot's revision and reloads. Only one write may be pending.
//
// A locally rejected move leaves the snapshot untouched. When the backend
// rejects the move, the snapshot is dropped and fetched again; a conflict is
// reported as category.ErrStaleSnapshot. Moves are never retried.
func (s *Screen) Move(ctx context.Context, id, newParentID int64) (*category.MovePlan, error) {
	s.mu.Lock()
	if s.writing {
		s.mu.Unlock()
		return nil, ErrWriteInFlight
	}
	if s.tree == nil {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	tree, rev := s.tree, s.revision
	_, plan, err := category.MoveSubtree(tree, id, newParentID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if plan.NoOp() {
		s.mu.Unlock()
		return plan, nil
	}
	s.writing = true
	s.mu.Unlock()
	defer s.endWrite()

	if err := s.repo.MoveCategory(ctx, id, newParentID, rev); err != nil {
		s.logger.Warn("category move rejected", "category_id", id, "parent_id", newParentID,
			"revision", int64(rev), "error", err)
		s.mu.Lock()
		s.tree = nil
		s.mu.Unlock()
		if loadErr := s.Load(ctx); loadErr != nil && !errors.Is(loadErr, ErrSuperseded) {
			s.logger.Warn("reload after rejected move failed", "error", loadErr)
		}
		return nil, err
	}

	s.logger.Info("category moved", "category_id", id, "parent_id", newParentID,
		"affected", len(plan.Affected), "revision", int64(rev))
	if err := s.Load(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return plan, err
	}
	return plan, nil
}

// Create adds a category under parentID, generating its slug from the
// current snapshot, then reloads.
func (s *Screen) Create(ctx context.Context, name string, parentID int64) (category.Record, error) {
	if err := s.beginWrite(); err != nil {
		return category.Record{}, err
	}
	defer s.endWrite()

	slug, err := s.SlugPreview(parentID, name)
	if err != nil {
		return category.Record{}, err
	}
	rec, err := s.repo.CreateCategory(ctx, name, slug, parentID)
	if err != nil {
		return category.Record{}, err
	}
	if err := s.Load(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return rec, err
	}
	return rec, nil
}

// Delete removes a leaf category, then reloads.
func (s *Screen) Delete(ctx context.Context, id int64) error {
	if err := s.beginWrite(); err != nil {
		return err
	}
	defer s.endWrite()

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	if err := s.Load(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return err
	}
	return nil
}

func (s *Screen) beginWrite() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing {
		return ErrWriteInFlight
	}
	s.writing = true
	return nil
}

func (s *Screen) endWrite() {
	s.mu.Lock()
	s.writing = false
	s.mu.Unlock()
}
