// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/olegiv/catadmin/internal/category"
)

// Memory is an in-process Repository holding records in a slice. It applies
// the same move rules as the SQL store and is used for offline browsing and
// tests.
type Memory struct {
	mu       sync.Mutex
	records  []category.Record
	revision Revision
	nextID   int64
}

// NewMemory creates a repository seeded with records at revision 1.
func NewMemory(records []category.Record) *Memory {
	m := &Memory{revision: 1}
	for _, r := range records {
		m.records = append(m.records, r)
		m.nextID = max(m.nextID, r.ID)
	}
	return m
}

// Revision returns the current revision.
func (m *Memory) Revision() Revision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revision
}

// FetchFlatList implements Repository.
func (m *Memory) FetchFlatList(_ context.Context) ([]category.Record, Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]category.Record, len(m.records))
	copy(out, m.records)
	return out, m.revision, nil
}

// FetchTree implements Repository.
func (m *Memory) FetchTree(ctx context.Context) ([]category.NestedRecord, Revision, error) {
	flat, rev, err := m.FetchFlatList(ctx)
	if err != nil {
		return nil, 0, err
	}
	tree, _ := category.BuildTree(flat)
	return category.ToNested(tree), rev, nil
}

// MoveCategory implements Repository.
func (m *Memory) MoveCategory(_ context.Context, id, newParentID int64, expected Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expected != m.revision {
		return fmt.Errorf("moving category %d at revision %d (current %d): %w",
			id, expected, m.revision, category.ErrStaleSnapshot)
	}
	tree, _ := category.BuildTree(m.records)
	moved, plan, err := category.MoveSubtree(tree, id, newParentID)
	if err != nil {
		return err
	}
	if plan.NoOp() {
		return nil
	}
	refreshed, err := moved.RefreshSlugs()
	if err != nil {
		return err
	}
	m.records = category.FlattenTree(refreshed)
	m.revision++
	return nil
}

// CreateCategory implements Repository.
func (m *Memory) CreateCategory(_ context.Context, name, slug string, parentID int64) (category.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tree, _ := category.BuildTree(m.records)
	if slug == "" {
		var err error
		slug, err = category.GenerateChildSlug(tree, parentID, name)
		if err != nil {
			return category.Record{}, err
		}
	} else if parentID != category.NoParent && !tree.Has(parentID) {
		return category.Record{}, category.ErrParentNotFound
	}
	for _, r := range m.records {
		if r.Slug == slug {
			return category.Record{}, ErrSlugConflict
		}
	}

	m.nextID++
	rec := category.Record{ID: m.nextID, Name: name, ParentID: category.ParentRef(parentID), Slug: slug, Depth: 1}
	if parent, ok := tree.Node(parentID); ok {
		rec.Depth = parent.Depth + 1
	}
	m.records = append(m.records, rec)
	m.revision++
	return rec, nil
}

// DeleteCategory implements Repository.
func (m *Memory) DeleteCategory(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, r := range m.records {
		if r.ID == id {
			idx = i
		}
		if r.Parent() == id {
			return ErrHasChildren
		}
	}
	if idx < 0 {
		return category.ErrNodeNotFound
	}
	m.records = append(m.records[:idx], m.records[idx+1:]...)
	m.revision++
	return nil
}

var _ Repository = (*Memory)(nil)
