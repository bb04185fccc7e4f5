// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"log/slog"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/repository"
)

// Dispatcher queues events for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *Event) error
}

// Repository wraps a repository.Repository and dispatches an event after
// every successful write. Reads pass straight through.
type Repository struct {
	repository.Repository
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewRepository creates a notifying decorator around next.
func NewRepository(next repository.Repository, d Dispatcher, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{Repository: next, dispatcher: d, logger: logger}
}

// MoveCategory implements repository.Repository. A move that left the tree
// unchanged produces no event.
func (r *Repository) MoveCategory(ctx context.Context, id, newParentID int64, expected repository.Revision) error {
	if err := r.Repository.MoveCategory(ctx, id, newParentID, expected); err != nil {
		return err
	}
	data := ChangeData{CategoryID: id, ParentID: newParentID}
	rec, rev, ok := r.lookup(ctx, id)
	if ok && rev == expected {
		return nil
	}
	if ok {
		data.Name, data.Slug = rec.Name, rec.Slug
	}
	data.Revision = int64(rev)
	r.dispatch(ctx, NewEvent(EventCategoryMoved, data))
	return nil
}

// CreateCategory implements repository.Repository.
func (r *Repository) CreateCategory(ctx context.Context, name, slug string, parentID int64) (category.Record, error) {
	rec, err := r.Repository.CreateCategory(ctx, name, slug, parentID)
	if err != nil {
		return rec, err
	}
	_, rev, _ := r.lookup(ctx, rec.ID)
	r.dispatch(ctx, NewEvent(EventCategoryCreated, ChangeData{
		CategoryID: rec.ID,
		ParentID:   rec.Parent(),
		Name:       rec.Name,
		Slug:       rec.Slug,
		Revision:   int64(rev),
	}))
	return rec, nil
}

// DeleteCategory implements repository.Repository.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	before, _, found := r.lookup(ctx, id)
	if err := r.Repository.DeleteCategory(ctx, id); err != nil {
		return err
	}
	data := ChangeData{CategoryID: id}
	if found {
		data.ParentID = before.Parent()
		data.Name, data.Slug = before.Name, before.Slug
	}
	if _, rev, err := r.Repository.FetchFlatList(ctx); err == nil {
		data.Revision = int64(rev)
	}
	r.dispatch(ctx, NewEvent(EventCategoryDeleted, data))
	return nil
}

// lookup returns the current record of id and the tree revision. It reports
// false when the record is missing or the list cannot be fetched.
func (r *Repository) lookup(ctx context.Context, id int64) (category.Record, repository.Revision, bool) {
	records, rev, err := r.Repository.FetchFlatList(ctx)
	if err != nil {
		r.logger.Warn("webhook payload lookup failed", "category_id", id, "error", err)
		return category.Record{}, 0, false
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, rev, true
		}
	}
	return category.Record{}, rev, false
}

func (r *Repository) dispatch(ctx context.Context, event *Event) {
	if err := r.dispatcher.Dispatch(ctx, event); err != nil {
		r.logger.Warn("webhook dispatch failed", "event", event.Type,
			"category_id", event.Data.CategoryID, "error", err)
	}
}

var _ repository.Repository = (*Repository)(nil)
