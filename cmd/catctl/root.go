// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/catadmin/internal/cache"
	"github.com/olegiv/catadmin/internal/config"
	"github.com/olegiv/catadmin/internal/console"
	"github.com/olegiv/catadmin/internal/repository"
)

// repoFactory builds the repository the commands talk to and a function
// releasing its resources.
type repoFactory func(cfg *config.ClientConfig, logger *slog.Logger) (repository.Repository, func(), error)

// remoteRepository reads from the backend REST API through the fetch cache.
func remoteRepository(cfg *config.ClientConfig, logger *slog.Logger) (repository.Repository, func(), error) {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	c, backend := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: ttl,
	}, logger)
	logger.Debug("fetch cache ready", "backend", backend)

	client := repository.NewHTTPClient(repository.HTTPConfig{
		BaseURL:     cfg.BackendURL,
		Timeout:     cfg.RequestTimeout,
		ReadRetries: cfg.ReadRetries,
		RetryBase:   cfg.RetryBase,
	}, logger)
	return repository.NewCached(client, c, ttl, logger), func() { _ = c.Close() }, nil
}

// app holds what the commands share. It is opened on first use so that
// commands like version need no backend.
type app struct {
	newRepo repoFactory
	backend string
	asJSON  bool

	logger *slog.Logger
	repo   repository.Repository
	screen *console.Screen
	close  func()
}

func (a *app) open() error {
	if a.repo != nil {
		return nil
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.backend != "" {
		cfg.BackendURL = a.backend
	}

	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	repo, closeFn, err := a.newRepo(cfg, a.logger)
	if err != nil {
		return err
	}
	a.repo = repo
	a.close = closeFn
	a.screen = console.NewScreen(repo, a.logger)
	return nil
}

// loadScreen opens the app and fetches a snapshot.
func (a *app) loadScreen(ctx context.Context) (*console.Screen, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	if err := a.screen.Load(ctx); err != nil {
		return nil, err
	}
	for _, w := range a.screen.Warnings() {
		a.logger.Warn("category data inconsistency", "detail", w.String())
	}
	return a.screen, nil
}

func (a *app) shutdown() {
	if a.close != nil {
		a.close()
	}
}

func newRootCmd(newRepo repoFactory) *cobra.Command {
	a := &app{newRepo: newRepo}

	cmd := &cobra.Command{
		Use:           "catctl",
		Short:         "Browse and edit the catadmin category hierarchy",
		SilenceUsage:  true,
		PersistentPostRun: func(*cobra.Command, []string) {
			a.shutdown()
		},
	}
	cmd.PersistentFlags().StringVar(&a.backend, "backend", "", "Backend URL (overrides CATADMIN_BACKEND_URL)")
	cmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print JSON instead of text")

	cmd.AddCommand(
		newTreeCmd(a),
		newPathCmd(a),
		newSearchCmd(a),
		newSlugCmd(a),
		newCreateCmd(a),
		newMoveCmd(a),
		newDeleteCmd(a),
		newAuditCmd(a),
		newBrowseCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid category id %q", s)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
