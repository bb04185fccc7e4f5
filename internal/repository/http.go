// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/olegiv/catadmin/internal/category"
)

// RequestIDHeader carries a per-request UUID to the backend.
const RequestIDHeader = "X-Request-ID"

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:8080.
	BaseURL string
	// Timeout bounds every single request.
	Timeout time.Duration
	// ReadRetries is how many times an idempotent GET is retried on a
	// network error or 5xx response. Writes are never retried.
	ReadRetries uint64
	// RetryBase is the first backoff delay; it doubles per attempt.
	RetryBase time.Duration
	// Client overrides the underlying http.Client (tests).
	Client *http.Client
}

// HTTPClient is a Repository backed by the catadmin REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	retries uint64
	base    time.Duration
	logger  *slog.Logger
}

// NewHTTPClient creates a REST repository.
func NewHTTPClient(cfg HTTPConfig, logger *slog.Logger) *HTTPClient {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	base := cfg.RetryBase
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		retries: cfg.ReadRetries,
		base:    base,
		logger:  logger,
	}
}

// RemoteError is an error response returned by the backend.
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps well-known error codes to the category sentinels.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case "not_found":
		return category.ErrNodeNotFound
	case "parent_not_found":
		return category.ErrParentNotFound
	case "self_parent":
		return category.ErrSelfParent
	case "cycle_detected":
		return category.ErrCycleDetected
	case "stale_snapshot":
		return category.ErrStaleSnapshot
	case "has_children":
		return ErrHasChildren
	case "slug_conflict":
		return ErrSlugConflict
	}
	return nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *struct {
		Revision Revision `json:"revision"`
	} `json:"meta"`
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// FetchFlatList implements Repository.
func (c *HTTPClient) FetchFlatList(ctx context.Context) ([]category.Record, Revision, error) {
	var records []category.Record
	rev, err := c.get(ctx, "/api/v1/categories", &records)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching categories: %w", err)
	}
	return records, rev, nil
}

// FetchTree implements Repository.
func (c *HTTPClient) FetchTree(ctx context.Context) ([]category.NestedRecord, Revision, error) {
	var nested []category.NestedRecord
	rev, err := c.get(ctx, "/api/v1/categories/tree", &nested)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching category tree: %w", err)
	}
	return nested, rev, nil
}

// MoveCategory implements Repository.
func (c *HTTPClient) MoveCategory(ctx context.Context, id, newParentID int64, expected Revision) error {
	body := map[string]any{
		"parent_id":         newParentID,
		"expected_revision": expected,
	}
	path := "/api/v1/categories/" + strconv.FormatInt(id, 10) + "/move"
	if _, err := c.send(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("moving category %d: %w", id, err)
	}
	return nil
}

// CreateCategory implements Repository.
func (c *HTTPClient) CreateCategory(ctx context.Context, name, slug string, parentID int64) (category.Record, error) {
	body := map[string]any{
		"name":      name,
		"slug":      slug,
		"parent_id": parentID,
	}
	var created category.Record
	if _, err := c.send(ctx, http.MethodPost, "/api/v1/categories", body, &created); err != nil {
		return category.Record{}, fmt.Errorf("creating category: %w", err)
	}
	return created, nil
}

// DeleteCategory implements Repository.
func (c *HTTPClient) DeleteCategory(ctx context.Context, id int64) error {
	path := "/api/v1/categories/" + strconv.FormatInt(id, 10)
	if _, err := c.send(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	return nil
}

// get performs an idempotent read, retrying transient failures with
// exponential backoff.
func (c *HTTPClient) get(ctx context.Context, path string, out any) (Revision, error) {
	var rev Revision
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		rev, err = c.send(ctx, http.MethodGet, path, nil, out)
		if err == nil {
			return nil
		}
		if ctx.Err() == nil && isTransient(err) {
			c.logger.Debug("retrying category read", "path", path, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	return rev, err
}

// send performs a single request and decodes the response envelope.
func (c *HTTPClient) send(ctx context.Context, method, path string, body, out any) (Revision, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		remote := &RemoteError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Error.Code != "" {
			remote.Code = env.Error.Code
			remote.Message = env.Error.Message
			remote.Details = env.Error.Details
		}
		return 0, remote
	}

	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return 0, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return 0, fmt.Errorf("decoding response data: %w", err)
		}
	}
	var rev Revision
	if env.Meta != nil {
		rev = env.Meta.Revision
	}
	return rev, nil
}

func isTransient(err error) bool {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
