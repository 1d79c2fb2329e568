// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package concurrency provides per-function concurrency caps as buffered
// channel semaphores, the same acquire/release-via-channel shape the
// teacher's newsletter scheduler uses to bound concurrent deliveries.
package concurrency

import "context"

// Semaphore bounds how many callers may hold it at once.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore builds a Semaphore allowing up to n concurrent holders. n<=0
// is treated as 1, since an unbounded semaphore defeats the point of
// naming a cap in configuration.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		n = 1
	}
	return &Semaphore{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire.
func (s *Semaphore) Release() {
	<-s.slots
}

// Limits bundles the per-function concurrency caps, sized from
// internal/config.ConcurrencyConfig.
type Limits struct {
	Embed           *Semaphore
	ClusterReview   *Semaphore
	ClusterSync     *Semaphore
	ClusterCurate   *Semaphore
	ClusterBackfill *Semaphore
}

// NewLimits builds the full set of named semaphores from per-function
// caps.
func NewLimits(embed, clusterReview, clusterSync, clusterCurate, clusterBackfill int) *Limits {
	return &Limits{
		Embed:           NewSemaphore(embed),
		ClusterReview:   NewSemaphore(clusterReview),
		ClusterSync:     NewSemaphore(clusterSync),
		ClusterCurate:   NewSemaphore(clusterCurate),
		ClusterBackfill: NewSemaphore(clusterBackfill),
	}
}
