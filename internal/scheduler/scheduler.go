// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the backend's periodic maintenance jobs: the
// category integrity audit and event log retention.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/store"
)

// Job names.
const (
	JobIntegrityAudit = "integrity_audit"
	JobEventRetention = "event_retention"
)

// jobTimeout bounds a single job run.
const jobTimeout = 2 * time.Minute

// Config holds job schedules in cron syntax (descriptors like "@every 1h"
// are accepted) and the event retention window.
type Config struct {
	AuditSchedule     string
	RetentionSchedule string
	EventRetention    time.Duration
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
}

type registeredJob struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) error
}

// Scheduler runs maintenance jobs against the category database.
type Scheduler struct {
	queries *store.Queries
	cron    *cron.Cron
	logger  *slog.Logger
	cfg     Config
	now     func() time.Time

	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

// New creates a scheduler. Empty schedules fall back to hourly audits and
// daily retention.
func New(db *sql.DB, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.AuditSchedule == "" {
		cfg.AuditSchedule = "@every 1h"
	}
	if cfg.RetentionSchedule == "" {
		cfg.RetentionSchedule = "@daily"
	}
	if cfg.EventRetention <= 0 {
		cfg.EventRetention = 30 * 24 * time.Hour
	}
	return &Scheduler{
		queries: store.New(db),
		cron:    cron.New(),
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		jobs:    make(map[string]*registeredJob),
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if err := s.register(JobIntegrityAudit, "Check stored categories for broken hierarchy invariants",
		s.cfg.AuditSchedule, func(ctx context.Context) error {
			_, err := s.RunAudit(ctx)
			return err
		}); err != nil {
		return err
	}
	if err := s.register(JobEventRetention, "Delete logged events older than the retention window",
		s.cfg.RetentionSchedule, func(ctx context.Context) error {
			_, err := s.PurgeEvents(ctx)
			return err
		}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) register(name, description, schedule string, run func(ctx context.Context) error) error {
	job := &registeredJob{name: name, description: description, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", name, schedule, err)
	}
	job.entryID = id

	s.mu.Lock()
	s.jobs[name] = job
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) execute(job *registeredJob) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := s.now()
	if err := job.run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", job.name, "error", err)
		return
	}
	s.logger.Debug("scheduled job finished", "job", job.name, "duration", s.now().Sub(start))
}

// Jobs lists registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		entry := s.cron.Entry(job.entryID)
		out = append(out, JobInfo{
			Name:        job.name,
			Description: job.description,
			Schedule:    job.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TriggerNow runs a registered job synchronously.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	return job.run(ctx)
}

// RunAudit loads every stored category and reports rows that break the
// hierarchy invariants. Each violation is logged at WARN, so it also lands
// in the event log.
func (s *Scheduler) RunAudit(ctx context.Context) ([]category.Violation, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	records := make([]category.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToRecord())
	}

	violations := category.CheckRecords(records)
	for _, v := range violations {
		s.logger.Warn("category integrity violation",
			"category", "integrity", "kind", string(v.Kind), "category_id", v.NodeID, "detail", v.Detail)
	}
	s.logger.Info("integrity audit finished", "categories", len(records), "violations", len(violations))
	return violations, nil
}

// PurgeEvents deletes events older than the retention window.
func (s *Scheduler) PurgeEvents(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.EventRetention)
	n, err := s.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged old events", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
