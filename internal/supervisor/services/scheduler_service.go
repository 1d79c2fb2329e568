// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package services

import (
	"context"
	"fmt"
)

// SchedulerManager matches internal/scheduler.Scheduler's Start/Stop
// lifecycle, kept as an interface so this package never imports
// internal/scheduler directly.
type SchedulerManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService wraps the cron scheduler as a supervised service,
// adapting its Start/Stop lifecycle to suture's Serve pattern: start,
// block until the context is canceled, then stop.
type SchedulerService struct {
	manager SchedulerManager
	name    string
}

// NewSchedulerService creates a scheduler service wrapper.
func NewSchedulerService(manager SchedulerManager) *SchedulerService {
	return &SchedulerService{manager: manager, name: "scheduler"}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *SchedulerService) String() string {
	return s.name
}
