// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/detagroup/detaweb/internal/model"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobRunning  = errors.New("job is already running")
)

// Job is a named unit of periodic work.
type Job struct {
	Name        string
	Description string
	// Schedule is a standard five-field cron expression, evaluated in UTC.
	Schedule string
	Run      func(ctx context.Context) error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	Running     bool      `json:"running"`
	LastRun     time.Time `json:"last_run,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	NextRun     time.Time `json:"next_run,omitzero"`
}

type entry struct {
	job     Job
	id      cron.EntryID
	running bool
	lastRun time.Time
	lastErr string
}

// Scheduler owns a cron instance and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*entry
}

// New creates a scheduler. Jobs run with a context that is cancelled by Stop.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*entry),
	}
}

// Add registers job. Names must be unique.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	e := &entry{job: job}
	id, err := s.cron.AddFunc(job.Schedule, func() { _ = s.run(s.ctx, e) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", job.Schedule, job.Name, err)
	}
	e.id = id
	s.jobs[job.Name] = e
	return nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Jobs lists registered jobs by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		infos = append(infos, JobInfo{
			Name:        e.job.Name,
			Description: e.job.Description,
			Schedule:    e.job.Schedule,
			Running:     e.running,
			LastRun:     e.lastRun,
			LastError:   e.lastErr,
			NextRun:     s.cron.Entry(e.id).Next,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Trigger runs a job now, in the caller's goroutine.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	return s.run(ctx, e)
}

// run executes e unless it is already running. Panics are recovered and
// reported as errors.
func (s *Scheduler) run(ctx context.Context, e *entry) (err error) {
	s.mu.Lock()
	if e.running {
		s.mu.Unlock()
		s.logger.Debug("skipping job still running", "job", e.job.Name)
		return ErrJobRunning
	}
	e.running = true
	s.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}

		s.mu.Lock()
		e.running = false
		e.lastRun = start.UTC()
		e.lastErr = ""
		if err != nil {
			e.lastErr = err.Error()
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Error("scheduled job failed",
				"category", model.EventCategorySystem,
				"job", e.job.Name,
				"error", err,
			)
			return
		}
		s.logger.Debug("scheduled job finished", "job", e.job.Name, "duration", time.Since(start))
	}()

	return e.job.Run(ctx)
}
