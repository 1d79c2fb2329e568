// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package pgstore

import (
	"context"
	"fmt"
)

// clusterSyncLockKey is the pg_advisory_lock key guarding cluster-sync,
// belt-and-braces alongside the in-process concurrency semaphore — a
// second server instance pointed at the same database must not run
// cluster-sync concurrently either.
const clusterSyncLockKey = 84724001

// TryAcquireSyncLock attempts a session-scoped advisory lock for
// cluster-sync. The lock is held by whichever pool connection executes
// pg_try_advisory_lock and must be released on that same connection, so on
// success the function keeps that connection and returns a release func
// that unlocks on it and hands it back to the pool.
func (s *Store) TryAcquireSyncLock(ctx context.Context) (bool, func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, func() {}, fmt.Errorf("pgstore: acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", clusterSyncLockKey).Scan(&acquired); err != nil {
		conn.Release()
		return false, func() {}, fmt.Errorf("pgstore: try advisory lock: %w", err)
	}

	if !acquired {
		conn.Release()
		return false, func() {}, nil
	}

	release := func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", clusterSyncLockKey)
		conn.Release()
	}
	return true, release, nil
}
