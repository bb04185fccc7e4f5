// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package repository defines how category data is fetched from and persisted
// to the backend, with an HTTP client, a caching decorator and (in package
// store) a SQL implementation.
package repository

import (
	"context"
	"errors"

	"github.com/olegiv/catadmin/internal/category"
)

// Revision identifies a version of the whole category tree. Every successful
// write bumps it; a move carrying an older revision is rejected.
type Revision int64

// Repository is the category data source used by the console and the API.
type Repository interface {
	// FetchTree returns the hierarchy in pre-nested form.
	FetchTree(ctx context.Context) ([]category.NestedRecord, Revision, error)
	// FetchFlatList returns every category as a flat record.
	FetchFlatList(ctx context.Context) ([]category.Record, Revision, error)
	// MoveCategory re-parents id under newParentID (category.NoParent for root).
	// It fails with category.ErrStaleSnapshot when expected is not current.
	MoveCategory(ctx context.Context, id, newParentID int64, expected Revision) error
	// CreateCategory inserts a category. An empty slug is generated from the
	// parent's path.
	CreateCategory(ctx context.Context, name, slug string, parentID int64) (category.Record, error)
	// DeleteCategory removes a leaf category.
	DeleteCategory(ctx context.Context, id int64) error
}

var (
	// ErrHasChildren means a category with children was asked to be deleted.
	ErrHasChildren = errors.New("category has children")
	// ErrSlugConflict means a write would produce a slug that already exists.
	ErrSlugConflict = errors.New("category slug already exists")
)
