// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/repository"
)

// errNoChange rolls back a transaction that turned out to change nothing.
var errNoChange = errors.New("no change")

// CategoryRepository is the SQL implementation of repository.Repository.
// Every write runs in one transaction and bumps the tree revision.
type CategoryRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewCategoryRepository creates a repository over db.
func NewCategoryRepository(db *sql.DB, logger *slog.Logger) *CategoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryRepository{db: db, logger: logger, now: time.Now}
}

// ToRecord converts a row to the wire shape.
func (c Category) ToRecord() category.Record {
	rec := category.Record{
		ID:       c.ID,
		Name:     c.Name,
		Slug:     c.Slug,
		Depth:    int(c.Depth),
		Position: c.Position,
	}
	if c.ParentID.Valid {
		rec.ParentID = category.ParentRef(c.ParentID.Int64)
	}
	return rec
}

func nullParent(id int64) sql.NullInt64 {
	if id == category.NoParent {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

// FetchFlatList implements repository.Repository. Rows and revision are read
// in one transaction so they are consistent.
func (r *CategoryRepository) FetchFlatList(ctx context.Context) ([]category.Record, repository.Revision, error) {
	var (
		records []category.Record
		rev     int64
	)
	err := r.inTx(ctx, nil, func(q *Queries) error {
		var err error
		records, rev, err = loadRecords(ctx, q)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("fetching categories: %w", err)
	}
	return records, repository.Revision(rev), nil
}

// FetchTree implements repository.Repository.
func (r *CategoryRepository) FetchTree(ctx context.Context) ([]category.NestedRecord, repository.Revision, error) {
	records, rev, err := r.FetchFlatList(ctx)
	if err != nil {
		return nil, 0, err
	}
	tree, warnings := category.BuildTree(records)
	r.logWarnings(warnings, rev)
	return category.ToNested(tree), rev, nil
}

// Snapshot returns the current tree and revision.
func (r *CategoryRepository) Snapshot(ctx context.Context) (*category.Tree, repository.Revision, error) {
	records, rev, err := r.FetchFlatList(ctx)
	if err != nil {
		return nil, 0, err
	}
	tree, warnings := category.BuildTree(records)
	r.logWarnings(warnings, rev)
	return tree, rev, nil
}

// MoveCategory implements repository.Repository. The revision is claimed
// first, so concurrent writers serialize on the tree_revision row and a
// stale expected revision fails before anything is read.
func (r *CategoryRepository) MoveCategory(ctx context.Context, id, newParentID int64, expected repository.Revision) error {
	err := r.inTx(ctx, nil, func(q *Queries) error {
		claimed, err := q.ClaimRevision(ctx, int64(expected))
		if err != nil {
			return fmt.Errorf("claiming revision: %w", err)
		}
		if !claimed {
			return category.ErrStaleSnapshot
		}

		records, _, err := loadRecords(ctx, q)
		if err != nil {
			return err
		}
		tree, _ := category.BuildTree(records)
		moved, plan, err := category.MoveSubtree(tree, id, newParentID)
		if err != nil {
			return err
		}
		if plan.NoOp() {
			return errNoChange
		}
		refreshed, err := moved.RefreshSlugs()
		if err != nil {
			return err
		}

		position, err := q.NextPosition(ctx, nullParent(newParentID))
		if err != nil {
			return fmt.Errorf("computing position: %w", err)
		}

		// Slugs are unique; check the whole batch before writing any of it.
		affected := make(map[int64]bool, len(plan.Affected))
		for _, nid := range plan.Affected {
			affected[nid] = true
		}
		taken := make(map[string]int64, len(records))
		for _, rec := range records {
			if !affected[rec.ID] {
				taken[rec.Slug] = rec.ID
			}
		}
		for _, nid := range plan.Affected {
			n, _ := refreshed.Node(nid)
			if owner, ok := taken[n.Slug]; ok {
				return fmt.Errorf("slug %q already used by category %d: %w", n.Slug, owner, repository.ErrSlugConflict)
			}
		}

		// Write in two passes so swapped slugs inside the subtree never collide.
		now := r.now()
		for _, nid := range plan.Affected {
			n, _ := refreshed.Node(nid)
			if err := q.UpdatePlacement(ctx, UpdatePlacementParams{
				ID:        nid,
				ParentID:  nullParent(n.ParentID),
				Depth:     int64(n.Depth),
				Slug:      fmt.Sprintf("%s#moving-%d", n.Slug, nid),
				Position:  n.Position,
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("updating category %d: %w", nid, err)
			}
		}
		for _, nid := range plan.Affected {
			n, _ := refreshed.Node(nid)
			pos := n.Position
			if nid == id {
				pos = position
			}
			if err := q.UpdatePlacement(ctx, UpdatePlacementParams{
				ID:        nid,
				ParentID:  nullParent(n.ParentID),
				Depth:     int64(n.Depth),
				Slug:      n.Slug,
				Position:  pos,
				UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("updating category %d: %w", nid, err)
			}
		}

		r.logger.Info("category moved", "category_id", id, "parent_id", newParentID,
			"affected", len(plan.Affected), "revision", int64(expected)+1)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("moving category %d: %w", id, err)
	}
	return nil
}

// CreateCategory implements repository.Repository.
func (r *CategoryRepository) CreateCategory(ctx context.Context, name, slug string, parentID int64) (category.Record, error) {
	var created Category
	err := r.inTx(ctx, nil, func(q *Queries) error {
		records, _, err := loadRecords(ctx, q)
		if err != nil {
			return err
		}
		tree, _ := category.BuildTree(records)

		depth := int64(1)
		if parentID != category.NoParent {
			parent, ok := tree.Node(parentID)
			if !ok {
				return category.ErrParentNotFound
			}
			depth = int64(parent.Depth) + 1
		}
		if slug == "" {
			if slug, err = category.GenerateChildSlug(tree, parentID, name); err != nil {
				return err
			}
		}

		clash, err := q.CategorySlugExists(ctx, slug, 0)
		if err != nil {
			return err
		}
		if clash > 0 {
			return fmt.Errorf("slug %q: %w", slug, repository.ErrSlugConflict)
		}

		position, err := q.NextPosition(ctx, nullParent(parentID))
		if err != nil {
			return err
		}
		now := r.now()
		created, err = q.CreateCategory(ctx, CreateCategoryParams{
			Name:      name,
			Slug:      slug,
			ParentID:  nullParent(parentID),
			Depth:     depth,
			Position:  position,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		return q.BumpRevision(ctx)
	})
	if err != nil {
		return category.Record{}, fmt.Errorf("creating category: %w", err)
	}
	return created.ToRecord(), nil
}

// DeleteCategory implements repository.Repository. Categories with children
// are refused with repository.ErrHasChildren.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	err := r.inTx(ctx, nil, func(q *Queries) error {
		if _, err := q.GetCategory(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return category.ErrNodeNotFound
			}
			return err
		}
		children, err := q.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return repository.ErrHasChildren
		}
		if err := q.DeleteCategory(ctx, id); err != nil {
			return err
		}
		return q.BumpRevision(ctx)
	})
	if err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	return nil
}

func loadRecords(ctx context.Context, q *Queries) ([]category.Record, int64, error) {
	rows, err := q.ListCategories(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("listing categories: %w", err)
	}
	rev, err := q.GetRevision(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("reading revision: %w", err)
	}
	records := make([]category.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToRecord())
	}
	return records, rev, nil
}

func (r *CategoryRepository) inTx(ctx context.Context, opts *sql.TxOptions, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (r *CategoryRepository) logWarnings(warnings []category.Warning, rev repository.Revision) {
	for _, w := range warnings {
		r.logger.Warn("category data inconsistency", "kind", string(w.Kind),
			"category_id", w.NodeID, "parent_id", w.ParentID, "revision", int64(rev))
	}
}

var _ repository.Repository = (*CategoryRepository)(nil)
