// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/handler"
	"github.com/olegiv/catadmin/internal/logging"
	"github.com/olegiv/catadmin/internal/repository"
	"github.com/olegiv/catadmin/internal/util"
)

// CreateCategoryRequest represents the request body for creating a category.
// A parent_id of 0 creates a root category; an empty slug is generated.
type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Slug     string `json:"slug" validate:"omitempty,max=255"`
	ParentID int64  `json:"parent_id" validate:"gte=0"`
}

// MoveCategoryRequest represents the request body for moving a subtree.
type MoveCategoryRequest struct {
	ParentID         int64 `json:"parent_id" validate:"gte=0"`
	ExpectedRevision int64 `json:"expected_revision" validate:"required,gt=0"`
}

// CategoryDetail is a single category with its ancestor chain.
type CategoryDetail struct {
	category.Record
	Breadcrumbs []category.Breadcrumb `json:"breadcrumbs"`
	ChildIDs    []int64               `json:"child_ids,omitempty"`
}

// SlugPreview is the response of the slug preview endpoint.
type SlugPreview struct {
	Slug string `json:"slug"`
}

// ListCategories handles GET /api/v1/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	records, rev, err := h.repo.FetchFlatList(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err, "list categories")
		return
	}
	if records == nil {
		records = []category.Record{}
	}
	WriteSuccess(w, records, &Meta{Total: int64(len(records)), Revision: int64(rev)})
}

// CategoryTree handles GET /api/v1/categories/tree
func (h *Handler) CategoryTree(w http.ResponseWriter, r *http.Request) {
	nested, rev, err := h.repo.FetchTree(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err, "load category tree")
		return
	}
	if nested == nil {
		nested = []category.NestedRecord{}
	}
	WriteSuccess(w, nested, &Meta{Revision: int64(rev)})
}

// SearchCategories handles GET /api/v1/categories/search?q=
func (h *Handler) SearchCategories(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		WriteBadRequest(w, "Query parameter q is required", map[string]string{"q": "Field is required"})
		return
	}
	tree, rev, err := h.snapshot(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err, "search categories")
		return
	}
	matches := tree.Filter(q)
	if matches == nil {
		matches = []category.Record{}
	}
	WriteSuccess(w, matches, &Meta{Total: int64(len(matches)), Revision: int64(rev)})
}

// GetCategory handles GET /api/v1/categories/{id}
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid category ID", nil)
		return
	}
	tree, rev, err := h.snapshot(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err, "retrieve category")
		return
	}
	n, ok := tree.Node(id)
	if !ok {
		WriteNotFound(w, "Category not found")
		return
	}
	crumbs, err := tree.Breadcrumbs(id)
	if err != nil {
		h.writeDomainError(w, r, err, "resolve category path")
		return
	}
	detail := CategoryDetail{Record: n.Record(), Breadcrumbs: crumbs}
	for _, c := range n.Children {
		detail.ChildIDs = append(detail.ChildIDs, c.ID)
	}
	WriteSuccess(w, detail, &Meta{Revision: int64(rev)})
}

// CategoryPath handles GET /api/v1/categories/{id}/path
func (h *Handler) CategoryPath(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid category ID", nil)
		return
	}
	tree, rev, err := h.snapshot(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err, "resolve category path")
		return
	}
	path, err := tree.ResolvePath(id)
	if err != nil {
		h.writeDomainError(w, r, err, "resolve category path")
		return
	}
	if len(path) == 0 {
		WriteNotFound(w, "Category not found")
		return
	}
	records := make([]category.Record, len(path))
	for i, n := range path {
		records[i] = n.Record()
	}
	WriteSuccess(w, records, &Meta{Total: int64(len(records)), Revision: int64(rev)})
}

// SlugPreview handles GET /api/v1/categories/slug-preview?parent_id=&name=
func (h *Handler) SlugPreview(w http.ResponseWriter, r *http.Request) {
	parentID, err := handler.ParseInt64Query(r, "parent_id", category.NoParent)
	if err != nil {
		WriteBadRequest(w, "Invalid parent ID", nil)
		return
	}
	name := sanitizeName(r.URL.Query().Get("name"))
	if name == "" {
		WriteValidationError(w, map[string]string{"name": "Field is required"})
		return
	}
	tree, rev, err := h.snapshot(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err, "preview slug")
		return
	}
	slug, err := category.GenerateChildSlug(tree, parentID, name)
	if err != nil {
		h.writeDomainError(w, r, err, "preview slug")
		return
	}
	WriteSuccess(w, SlugPreview{Slug: slug}, &Meta{Revision: int64(rev)})
}

// CreateCategory handles POST /api/v1/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = sanitizeName(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if fieldErrors := validateRequest(req); fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}
	if req.Slug != "" && !util.IsValidSlugPath(req.Slug) {
		WriteValidationError(w, map[string]string{"slug": "Slug must be lowercase segments separated by slashes"})
		return
	}

	created, err := h.repo.CreateCategory(r.Context(), req.Name, req.Slug, req.ParentID)
	if err != nil {
		h.writeDomainError(w, r, err, "create category")
		return
	}
	h.logger.InfoContext(r.Context(), "category created", "category_id", created.ID,
		"parent_id", req.ParentID, "slug", created.Slug)
	WriteCreated(w, created, nil)
}

// MoveCategory handles POST /api/v1/categories/{id}/move
func (h *Handler) MoveCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid category ID", nil)
		return
	}
	var req MoveCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fieldErrors := validateRequest(req); fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	ctx := r.Context()
	err = h.repo.MoveCategory(ctx, id, req.ParentID, repository.Revision(req.ExpectedRevision))
	if err != nil {
		if category.IsMoveRejection(err) {
			h.logger.InfoContext(ctx, "category move rejected", "category_id", id,
				"parent_id", req.ParentID, "error", err, "category", logging.EventCategoryMove)
		}
		h.writeDomainError(w, r, err, "move category")
		return
	}

	tree, rev, err := h.snapshot(ctx)
	if err != nil {
		h.writeDomainError(w, r, err, "move category")
		return
	}
	n, ok := tree.Node(id)
	if !ok {
		WriteNotFound(w, "Category not found")
		return
	}
	WriteSuccess(w, n.Record(), &Meta{Revision: int64(rev)})
}

// DeleteCategory handles DELETE /api/v1/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid category ID", nil)
		return
	}
	if err := h.repo.DeleteCategory(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err, "delete category")
		return
	}
	h.logger.InfoContext(r.Context(), "category deleted", "category_id", id)
	w.WriteHeader(http.StatusNoContent)
}
