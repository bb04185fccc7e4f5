// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteOptions holds middleware applied to groups of API routes.
type RouteOptions struct {
	// Write wraps the mutating category endpoints.
	Write []func(http.Handler) http.Handler
	// Selector wraps the session-backed selector endpoints, after the
	// session has been loaded.
	Selector []func(http.Handler) http.Handler
}

// Mount registers the /api/v1 routes on r.
func (h *Handler) Mount(r chi.Router, opts RouteOptions) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/tree", h.CategoryTree)
		r.Get("/categories/search", h.SearchCategories)
		r.Get("/categories/slug-preview", h.SlugPreview)
		r.Get("/categories/{id}", h.GetCategory)
		r.Get("/categories/{id}/path", h.CategoryPath)

		r.Group(func(r chi.Router) {
			r.Use(opts.Write...)
			r.Post("/categories", h.CreateCategory)
			r.Post("/categories/{id}/move", h.MoveCategory)
			r.Delete("/categories/{id}", h.DeleteCategory)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.sessions.LoadAndSave)
			r.Use(opts.Selector...)
			r.Get("/selector", h.GetSelector)
			r.Post("/selector/select", h.Select)
		})
	})
}
