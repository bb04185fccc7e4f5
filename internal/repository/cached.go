// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/olegiv/catadmin/internal/cache"
	"github.com/olegiv/catadmin/internal/category"
)

// Cache keys. Every write drops everything under KeyPrefix.
const (
	KeyPrefix = "categories:"
	keyFlat   = KeyPrefix + "flat"
	keyTree   = KeyPrefix + "tree"
)

// Cached wraps a Repository and keeps fetched snapshots in a cache.
//
// generation counts invalidations. A fetch only stores its result if no
// invalidation happened while it ran, so a snapshot read before a write is
// never cached after it.
type Cached struct {
	next       Repository
	cache      cache.Cacher
	ttl        time.Duration
	logger     *slog.Logger
	generation atomic.Uint64
}

// NewCached creates a caching decorator around next.
func NewCached(next Repository, c cache.Cacher, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: c, ttl: ttl, logger: logger}
}

type cachedFlat struct {
	Records  []category.Record `json:"records"`
	Revision Revision          `json:"revision"`
}

type cachedTree struct {
	Nested   []category.NestedRecord `json:"nested"`
	Revision Revision                `json:"revision"`
}

// FetchFlatList implements Repository.
func (c *Cached) FetchFlatList(ctx context.Context) ([]category.Record, Revision, error) {
	var hit cachedFlat
	if c.load(ctx, keyFlat, &hit) {
		return hit.Records, hit.Revision, nil
	}
	gen := c.generation.Load()
	records, rev, err := c.next.FetchFlatList(ctx)
	if err != nil {
		return nil, 0, err
	}
	c.store(ctx, gen, keyFlat, cachedFlat{Records: records, Revision: rev})
	return records, rev, nil
}

// FetchTree implements Repository.
func (c *Cached) FetchTree(ctx context.Context) ([]category.NestedRecord, Revision, error) {
	var hit cachedTree
	if c.load(ctx, keyTree, &hit) {
		return hit.Nested, hit.Revision, nil
	}
	gen := c.generation.Load()
	nested, rev, err := c.next.FetchTree(ctx)
	if err != nil {
		return nil, 0, err
	}
	c.store(ctx, gen, keyTree, cachedTree{Nested: nested, Revision: rev})
	return nested, rev, nil
}

// MoveCategory implements Repository. The cache is dropped whether or not
// the move succeeds, since a rejection usually means the snapshot is stale.
func (c *Cached) MoveCategory(ctx context.Context, id, newParentID int64, expected Revision) error {
	defer c.Invalidate(ctx)
	return c.next.MoveCategory(ctx, id, newParentID, expected)
}

// CreateCategory implements Repository.
func (c *Cached) CreateCategory(ctx context.Context, name, slug string, parentID int64) (category.Record, error) {
	defer c.Invalidate(ctx)
	return c.next.CreateCategory(ctx, name, slug, parentID)
}

// DeleteCategory implements Repository.
func (c *Cached) DeleteCategory(ctx context.Context, id int64) error {
	defer c.Invalidate(ctx)
	return c.next.DeleteCategory(ctx, id)
}

// Invalidate drops every cached snapshot and discards fetches still in flight.
func (c *Cached) Invalidate(ctx context.Context) {
	c.generation.Add(1)
	if err := c.cache.DeleteByPrefix(ctx, KeyPrefix); err != nil {
		c.logger.Warn("failed to invalidate category cache", "error", err)
	}
}

func (c *Cached) load(ctx context.Context, key string, out any) bool {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("category cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		_ = c.cache.Delete(ctx, key)
		return false
	}
	return true
}

// store caches v under key unless an invalidation happened since gen was
// read. The generation is checked again after the write, since Invalidate
// may have cleared the prefix between the first check and the Set.
func (c *Cached) store(ctx context.Context, gen uint64, key string, v any) {
	if c.generation.Load() != gen {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("category cache write failed", "key", key, "error", err)
		return
	}
	if c.generation.Load() != gen {
		_ = c.cache.Delete(ctx, key)
	}
}

var (
	_ Repository = (*Cached)(nil)
	_ Repository = (*HTTPClient)(nil)
)
