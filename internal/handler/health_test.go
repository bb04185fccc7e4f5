// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/catadmin/internal/cache"
	"github.com/olegiv/catadmin/internal/testutil"
)

// downCache is a remote cache whose backend does not answer.
type downCache struct {
	*cache.MemoryCache
}

func (downCache) Ping(context.Context) error { return errors.New("connection refused") }

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return status
}

func TestHealthHandler_Health(t *testing.T) {
	_, db := testutil.SeededRepository(t)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	h := NewHealthHandler(db, mem)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health?verbose=true", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q; want application/json", ct)
	}

	status := decodeHealth(t, w)
	if status.Status != "healthy" {
		t.Errorf("status = %q; want healthy", status.Status)
	}
	if status.Revision != 2 {
		t.Errorf("revision = %d; want 2", status.Revision)
	}
	if status.Checks["database"].Status != "healthy" || status.Checks["cache"].Status != "healthy" {
		t.Errorf("checks = %+v", status.Checks)
	}
	if status.System == nil || status.System.Cache == nil {
		t.Error("verbose response should include system and cache stats")
	}
}

func TestHealthHandler_Health_CacheDown(t *testing.T) {
	db := testutil.TestDB(t)
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })
	h := NewHealthHandler(db, downCache{mem})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusServiceUnavailable)
	}
	if got := decodeHealth(t, w).Status; got != "degraded" {
		t.Errorf("status = %q; want degraded", got)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	db := testutil.TestDB(t)
	h := NewHealthHandler(db, nil)

	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}

	_ = db.Close()
	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status after close = %d; want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(nil, nil)
	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := ParseIDParam(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIDParam(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseIDParam(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseInt64Query(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?parent_id=7&bad=x&neg=-1", nil)

	if v, err := ParseInt64Query(req, "parent_id", 0); err != nil || v != 7 {
		t.Errorf("parent_id = %d, %v; want 7", v, err)
	}
	if v, err := ParseInt64Query(req, "missing", 3); err != nil || v != 3 {
		t.Errorf("missing = %d, %v; want default 3", v, err)
	}
	if _, err := ParseInt64Query(req, "bad", 0); err == nil {
		t.Error("bad should fail")
	}
	if _, err := ParseInt64Query(req, "neg", 0); err == nil {
		t.Error("negative should fail")
	}
}
