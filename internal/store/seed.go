// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/catadmin/internal/category"
)

// seedNode is one category of the demo hierarchy.
type seedNode struct {
	Name     string
	Children []seedNode
}

// DemoCategories is the hierarchy created by Seed.
var DemoCategories = []seedNode{
	{Name: "Electronics", Children: []seedNode{
		{Name: "Phones", Children: []seedNode{
			{Name: "Smartphones"},
			{Name: "Feature Phones"},
		}},
		{Name: "Laptops"},
		{Name: "Audio", Children: []seedNode{
			{Name: "Headphones"},
			{Name: "Speakers"},
		}},
	}},
	{Name: "Books", Children: []seedNode{
		{Name: "Fiction"},
		{Name: "Non-Fiction"},
	}},
	{Name: "Home & Garden"},
}

// Seed creates the demo category hierarchy when the categories table is empty.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	count, err := queries.CountCategories(ctx)
	if err != nil {
		return fmt.Errorf("counting categories: %w", err)
	}
	if count > 0 {
		slog.Info("categories already exist, skipping seed")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := queries.WithTx(tx)

	now := time.Now()
	created := 0
	var insert func(nodes []seedNode, parent *Category, ancestors []*category.Node) error
	insert = func(nodes []seedNode, parent *Category, ancestors []*category.Node) error {
		for i, n := range nodes {
			var (
				parentID sql.NullInt64
				depth    int64 = 1
			)
			if parent != nil {
				parentID = sql.NullInt64{Int64: parent.ID, Valid: true}
				depth = parent.Depth + 1
			}
			slug, err := demoSlug(ancestors, n.Name)
			if err != nil {
				return err
			}
			row, err := q.CreateCategory(ctx, CreateCategoryParams{
				Name:      n.Name,
				Slug:      slug,
				ParentID:  parentID,
				Depth:     depth,
				Position:  int64(i + 1),
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("creating category %q: %w", n.Name, err)
			}
			created++
			next := append(append([]*category.Node(nil), ancestors...), &category.Node{ID: row.ID, Name: row.Name})
			if err := insert(n.Children, &row, next); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(DemoCategories, nil, nil); err != nil {
		return err
	}
	if err := q.BumpRevision(ctx); err != nil {
		return fmt.Errorf("bumping revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	slog.Info("seeded demo categories", "count", created)
	return nil
}

// demoSlug builds the slug of name under the given ancestor chain.
func demoSlug(ancestors []*category.Node, name string) (string, error) {
	var records []category.Record
	var parent int64
	for _, a := range ancestors {
		records = append(records, category.Record{ID: a.ID, Name: a.Name, ParentID: category.ParentRef(parent)})
		parent = a.ID
	}
	tree, _ := category.BuildTree(records)
	return category.GenerateChildSlug(tree, parent, name)
}
