// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command catadmin runs the category hierarchy backend: the REST API, the
// session-backed cascading selector and the scheduled integrity audit.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/catadmin/internal/cache"
	"github.com/olegiv/catadmin/internal/config"
	"github.com/olegiv/catadmin/internal/logging"
	"github.com/olegiv/catadmin/internal/repository"
	"github.com/olegiv/catadmin/internal/scheduler"
	"github.com/olegiv/catadmin/internal/session"
	"github.com/olegiv/catadmin/internal/store"
	"github.com/olegiv/catadmin/internal/version"
	"github.com/olegiv/catadmin/internal/webhook"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "catadmin - category hierarchy backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_SESSION_SECRET   Session encryption key (required, min 32 bytes in production)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_DB_DRIVER        sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_DB_PATH          SQLite database path (default: ./data/catadmin.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_DB_DSN           MySQL DSN when the driver is mysql\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_ENV              development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_REDIS_URL        Redis URL for the shared fetch cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_WEBHOOK_URLS     Comma-separated change notification subscribers (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_WEBHOOK_SECRET   HMAC key for the X-Webhook-Signature header\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CATADMIN_DO_SEED          Seed the demo categories on an empty database\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("catadmin %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Upgrade logger to also write WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	fetchCache, backend := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = fetchCache.Close() }()
	slog.Info("fetch cache ready", "backend", backend)

	var repo repository.Repository = repository.NewCached(store.NewCategoryRepository(db, logger), fetchCache,
		time.Duration(cfg.CacheTTL)*time.Second, logger)

	if cfg.UseWebhooks() {
		notifier, err := webhook.NewNotifier(ctx, webhook.Config{
			URLs:         cfg.WebhookURLs,
			Secret:       cfg.WebhookSecret,
			MaxRetries:   cfg.WebhookRetries,
			Timeout:      cfg.WebhookTimeout,
			AllowPrivate: cfg.WebhookAllowPrivate,
		}, logger)
		if err != nil {
			return fmt.Errorf("configuring webhooks: %w", err)
		}
		notifier.Start(ctx)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			notifier.Stop(stopCtx)
		}()
		repo = webhook.NewRepository(repo, notifier, logger)
	}

	sched := scheduler.New(db, scheduler.Config{
		AuditSchedule:  cfg.AuditSchedule,
		EventRetention: cfg.EventRetention(),
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	sessions := session.New(db, cfg.DBDriver, cfg.IsDevelopment())
	r := newRouter(cfg, db, repo, fetchCache, sessions, logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openDatabase connects to the configured database and applies migrations.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if cfg.DBDriver == store.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.NewDB(cfg.DBDriver, cfg.DataSource())
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	slog.Info("running database migrations")
	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")
	return db, nil
}
