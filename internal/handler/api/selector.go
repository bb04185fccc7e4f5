// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"slices"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/session"
)

// SelectRequest selects id at level. An id of 0 clears the level.
type SelectRequest struct {
	Level int   `json:"level" validate:"gte=0"`
	ID    int64 `json:"id" validate:"gte=0"`
}

// SelectorOption is one choice offered at a selector level.
type SelectorOption struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	HasChildren bool   `json:"has_children"`
}

// SelectorLevel is one level of the cascading selector.
type SelectorLevel struct {
	Level    int              `json:"level"`
	Selected int64            `json:"selected,omitempty"`
	Options  []SelectorOption `json:"options"`
}

// SelectorState is the selector of the current browser session.
type SelectorState struct {
	Levels    []SelectorLevel       `json:"levels"`
	Path      []category.Breadcrumb `json:"path"`
	Selection []int64               `json:"selection"`
}

// GetSelector handles GET /api/v1/selector
func (h *Handler) GetSelector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tree, rev, err := h.snapshot(ctx)
	if err != nil {
		h.writeDomainError(w, r, err, "load selector")
		return
	}

	saved := session.SelectorPath(ctx, h.sessions)
	sel := category.RestoreSelector(tree, saved)
	if !slices.Equal(saved, sel.Selection()) {
		// Part of the saved path no longer exists.
		session.SetSelectorPath(ctx, h.sessions, sel.Selection())
	}
	WriteSuccess(w, selectorState(sel), &Meta{Revision: int64(rev)})
}

// Select handles POST /api/v1/selector/select
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fieldErrors := validateRequest(req); fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	ctx := r.Context()
	tree, rev, err := h.snapshot(ctx)
	if err != nil {
		h.writeDomainError(w, r, err, "update selector")
		return
	}
	sel := category.RestoreSelector(tree, session.SelectorPath(ctx, h.sessions))
	next, err := sel.SelectAt(req.Level, req.ID)
	if err != nil {
		h.writeDomainError(w, r, err, "update selector")
		return
	}
	session.SetSelectorPath(ctx, h.sessions, next.Selection())
	WriteSuccess(w, selectorState(next), &Meta{Revision: int64(rev)})
}

func selectorState(sel category.Selector) SelectorState {
	state := SelectorState{
		Levels:    make([]SelectorLevel, 0, sel.Len()),
		Path:      []category.Breadcrumb{},
		Selection: sel.Selection(),
	}
	for i, l := range sel.Levels() {
		lv := SelectorLevel{Level: i, Selected: l.Selected, Options: make([]SelectorOption, 0, len(l.Options))}
		for _, opt := range l.Options {
			lv.Options = append(lv.Options, SelectorOption{
				ID:          opt.ID,
				Name:        opt.Name,
				Slug:        opt.Slug,
				HasChildren: opt.HasChildren(),
			})
		}
		state.Levels = append(state.Levels, lv)
	}
	for _, n := range sel.Path() {
		state.Path = append(state.Path, category.Breadcrumb{ID: n.ID, Name: n.Name, Slug: n.Slug})
	}
	return state
}
