// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package scheduler provides cron-based scheduling for the pipeline's worker
// invocations (ingest, cluster-sync, cluster-curate, analytics backfill).
//
// scheduler.go - Job Scheduler
//
// The scheduler:
//   - Runs a 1-second tick loop and fires each registered Job whose cron
//     expression is due
//   - Enforces one in-flight invocation per job name (a late-firing tick
//     while a job is still running is dropped, not queued), which is what
//     gives cluster-sync and cluster-curate their required concurrency=1
//   - Reports every invocation's outcome through a RunRecorder so an
//     operator health view reflects the latest state, independent of
//     whether the job itself succeeded
//
// This mirrors the supervisor tree's lifecycle conventions: Start/Stop are
// idempotent and Stop blocks until the run loop and any in-flight jobs have
// returned.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RunRecorder records the outcome of a single job invocation for operator
// visibility. A failure to record is logged and otherwise ignored — it must
// never mask the underlying job error.
type RunRecorder interface {
	RecordFunctionRun(ctx context.Context, functionID string, state string, details string)
}

const (
	// RunStateSucceeded marks a job invocation that returned no error.
	RunStateSucceeded = "succeeded"
	// RunStateFailed marks a job invocation that returned an error.
	RunStateFailed = "failed"
	// RunStateSkipped marks a tick that was dropped because the prior
	// invocation of the same job had not yet finished.
	RunStateSkipped = "skipped"
)

// JobFunc is a single scheduled unit of work. The context carries a
// per-invocation deadline sized from Job.Timeout.
type JobFunc func(ctx context.Context) error

// Job binds a name, cron schedule, and handler together.
type Job struct {
	// Name identifies the job for logging, metrics, and RunRecorder.
	Name string
	// CronExpr is a standard 5-field cron expression (see ParseCron).
	CronExpr string
	// Timezone is an IANA timezone name; empty means UTC.
	Timezone string
	// Timeout bounds a single invocation; the context passed to Fn is
	// cancelled after this duration. Zero means no deadline.
	Timeout time.Duration
	// Fn is invoked when the job's schedule is due.
	Fn JobFunc
}

// jobState tracks per-job scheduling and concurrency state.
type jobState struct {
	job     Job
	cron    *CronExpression
	nextRun time.Time
	running bool
}

// Config holds scheduler-wide tuning.
type Config struct {
	// TickInterval is how often the scheduler checks for due jobs.
	TickInterval time.Duration
}

// DefaultConfig returns sensible scheduler defaults.
func DefaultConfig() Config {
	return Config{TickInterval: time.Second}
}

// Scheduler runs a fixed set of named cron jobs, each with at most one
// in-flight invocation.
type Scheduler struct {
	recorder RunRecorder
	logger   zerolog.Logger
	config   Config

	mu      sync.Mutex
	jobs    map[string]*jobState
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. recorder may be nil, in which case run
// outcomes are only logged.
func NewScheduler(recorder RunRecorder, logger zerolog.Logger, config Config) *Scheduler {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	return &Scheduler{
		recorder: recorder,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		config:   config,
		jobs:     make(map[string]*jobState),
	}
}

// Register adds a job to the scheduler. Must be called before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("scheduler: job name is required")
	}
	cron, err := ParseCron(job.CronExpr)
	if err != nil {
		return fmt.Errorf("scheduler: job %q: %w", job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("scheduler: job %q already registered", job.Name)
	}
	s.jobs[job.Name] = &jobState{
		job:     job,
		cron:    cron,
		nextRun: cron.NextRun(time.Now(), mustLoadLocation(job.Timezone)),
	}
	return nil
}

func mustLoadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Start begins the tick loop. Safe to call once; returns an error if
// already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("starting scheduler")
	go s.run(ctx)
	return nil
}

// Stop halts the tick loop and waits for any in-flight job invocations to
// return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick fires every due job that is not already running.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	due := make([]*jobState, 0)
	for _, st := range s.jobs {
		if !now.Before(st.nextRun) {
			loc := mustLoadLocation(st.job.Timezone)
			if st.running {
				s.logger.Warn().Str("job", st.job.Name).Msg("tick dropped: previous invocation still running")
				s.recordRun(ctx, st.job.Name, RunStateSkipped, "previous invocation still running")
				st.nextRun = st.cron.NextRun(now, loc)
				continue
			}
			st.running = true
			due = append(due, st)
			st.nextRun = st.cron.NextRun(now, loc)
		}
	}
	s.mu.Unlock()

	for _, st := range due {
		s.wg.Add(1)
		go s.invoke(ctx, st)
	}
}

func (s *Scheduler) invoke(ctx context.Context, st *jobState) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		st.running = false
		s.mu.Unlock()
	}()

	runCtx := ctx
	var cancel context.CancelFunc
	if st.job.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, st.job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := st.job.Fn(runCtx)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Error().Err(err).Str("job", st.job.Name).Dur("elapsed", elapsed).Msg("job invocation failed")
		s.recordRun(ctx, st.job.Name, RunStateFailed, err.Error())
		return
	}
	s.logger.Info().Str("job", st.job.Name).Dur("elapsed", elapsed).Msg("job invocation succeeded")
	s.recordRun(ctx, st.job.Name, RunStateSucceeded, "")
}

// recordRun is best-effort: a failure to persist run status is logged but
// never allowed to mask the underlying job outcome.
func (s *Scheduler) recordRun(ctx context.Context, name, state, details string) {
	if s.recorder == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Interface("panic", r).Str("job", name).Msg("run recorder panicked")
		}
	}()
	s.recorder.RecordFunctionRun(ctx, name, state, details)
}

// IsRunning reports whether the tick loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerNow forces an immediate invocation of the named job, bypassing its
// cron schedule. Used by the backfill event handler and the operator CLI.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	s.mu.Lock()
	st, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: unknown job %q", name)
	}
	if st.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: job %q already running", name)
	}
	st.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.invoke(ctx, st)
	return nil
}
