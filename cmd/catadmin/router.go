// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/catadmin/internal/cache"
	"github.com/olegiv/catadmin/internal/config"
	"github.com/olegiv/catadmin/internal/handler"
	"github.com/olegiv/catadmin/internal/handler/api"
	"github.com/olegiv/catadmin/internal/middleware"
	"github.com/olegiv/catadmin/internal/repository"
)

// requestTimeout bounds every request.
const requestTimeout = 30 * time.Second

// newRouter wires the middleware stack, health probes and the API.
func newRouter(cfg *config.Config, db *sql.DB, repo repository.Repository, c cache.Cacher,
	sessions *scs.SessionManager, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.Timeout(requestTimeout))

	health := handler.NewHealthHandler(db, c)
	r.Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	writeLimiter := middleware.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst)
	csrf := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.ServerAddr(), cfg.IsDevelopment()))

	api.NewHandler(repo, sessions, logger).Mount(r, api.RouteOptions{
		Write:    []func(http.Handler) http.Handler{writeLimiter.WriteMiddleware()},
		Selector: []func(http.Handler) http.Handler{csrf},
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
	return r
}
