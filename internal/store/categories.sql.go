// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const categoryColumns = `id, name, slug, parent_id, depth, position, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Depth, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories ORDER BY position, id`

// ListCategories returns every category ordered by position.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

// GetCategory returns sql.ErrNoRows when id does not exist.
func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
}

const countCategories = `SELECT COUNT(*) FROM categories`

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategories).Scan(&n)
	return n, err
}

const countChildren = `SELECT COUNT(*) FROM categories WHERE parent_id = ?`

func (q *Queries) CountChildren(ctx context.Context, parentID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countChildren, parentID).Scan(&n)
	return n, err
}

const categorySlugExists = `SELECT COUNT(*) FROM categories WHERE slug = ? AND id <> ?`

// CategorySlugExists counts categories other than excludeID using slug.
func (q *Queries) CategorySlugExists(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, categorySlugExists, slug, excludeID).Scan(&n)
	return n, err
}

const nextPosition = `SELECT COALESCE(MAX(position), 0) + 1 FROM categories
WHERE (parent_id = ?) OR (? IS NULL AND parent_id IS NULL)`

// NextPosition returns the position that appends a child to parentID.
func (q *Queries) NextPosition(ctx context.Context, parentID sql.NullInt64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, nextPosition, parentID, parentID).Scan(&n)
	return n, err
}

// CreateCategoryParams holds the columns of a new category.
type CreateCategoryParams struct {
	Name      string
	Slug      string
	ParentID  sql.NullInt64
	Depth     int64
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

const createCategory = `INSERT INTO categories (name, slug, parent_id, depth, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	res, err := q.db.ExecContext(ctx, createCategory,
		arg.Name, arg.Slug, arg.ParentID, arg.Depth, arg.Position, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Category{}, err
	}
	return q.GetCategory(ctx, id)
}

// UpdatePlacementParams holds the structural columns rewritten by a move.
type UpdatePlacementParams struct {
	ID        int64
	ParentID  sql.NullInt64
	Depth     int64
	Slug      string
	Position  int64
	UpdatedAt time.Time
}

const updatePlacement = `UPDATE categories
SET parent_id = ?, depth = ?, slug = ?, position = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdatePlacement(ctx context.Context, arg UpdatePlacementParams) error {
	_, err := q.db.ExecContext(ctx, updatePlacement,
		arg.ParentID, arg.Depth, arg.Slug, arg.Position, arg.UpdatedAt, arg.ID)
	return err
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, id)
	return err
}

const getRevision = `SELECT revision FROM tree_revision WHERE id = 1`

func (q *Queries) GetRevision(ctx context.Context) (int64, error) {
	var rev int64
	err := q.db.QueryRowContext(ctx, getRevision).Scan(&rev)
	return rev, err
}

const bumpRevision = `UPDATE tree_revision SET revision = revision + 1 WHERE id = 1`

func (q *Queries) BumpRevision(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, bumpRevision)
	return err
}

const claimRevision = `UPDATE tree_revision SET revision = revision + 1 WHERE id = 1 AND revision = ?`

// ClaimRevision bumps the revision only if it still equals expected. It
// reports whether the row was updated.
func (q *Queries) ClaimRevision(ctx context.Context, expected int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, claimRevision, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
