// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session keeps per-browser state, such as the cascading selector
// path, in scs sessions.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// selectorKey holds the selected category IDs, root first, comma separated.
const selectorKey = "selector_path"

// New creates a session manager. SQLite databases store sessions in the
// sessions table; other drivers fall back to process memory.
func New(db *sql.DB, driver string, isDev bool) *scs.SessionManager {
	sm := scs.New()

	if db != nil && (driver == "sqlite" || driver == "") {
		sm.Store = sqlite3store.New(db)
	} else {
		sm.Store = memstore.New()
	}

	sm.Lifetime = 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	if !isDev {
		sm.Cookie.Name = "__Host-session"
		sm.Cookie.Path = "/"
	}

	return sm
}

// SelectorPath returns the selected category IDs stored in the session.
// Unparseable entries end the path.
func SelectorPath(ctx context.Context, sm *scs.SessionManager) []int64 {
	raw := sm.GetString(ctx, selectorKey)
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			break
		}
		ids = append(ids, id)
	}
	return ids
}

// SetSelectorPath stores the selected category IDs. An empty path removes the key.
func SetSelectorPath(ctx context.Context, sm *scs.SessionManager, ids []int64) {
	if len(ids) == 0 {
		sm.Remove(ctx, selectorKey)
		return
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	sm.Put(ctx, selectorKey, strings.Join(parts, ","))
}
