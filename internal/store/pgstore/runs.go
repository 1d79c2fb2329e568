// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/newsclust/internal/store"
)

// RecordFunctionRun appends a row to the operator health view backing
// internal/runstatus. finished_at is set for every state other than
// "running"; a "running" row leaves it null.
func (s *Store) RecordFunctionRun(ctx context.Context, functionID, state, details string) error {
	start := time.Now()
	var finishedAt interface{}
	if state != "running" {
		finishedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingestion_runs (function_id, state, details, finished_at)
		VALUES ($1, $2, $3, $4)
	`, functionID, state, details, finishedAt)
	recordQuery("insert", "ingestion_runs", start, err)
	if err != nil {
		return fmt.Errorf("pgstore: record function run: %w", err)
	}
	return nil
}

func (s *Store) LatestRuns(ctx context.Context, limit int) ([]store.IngestionRun, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, function_id, state, details, started_at, finished_at
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	recordQuery("select", "ingestion_runs", start, err)
	if err != nil {
		return nil, fmt.Errorf("pgstore: latest runs: %w", err)
	}
	defer rows.Close()

	var out []store.IngestionRun
	for rows.Next() {
		var r store.IngestionRun
		if err := rows.Scan(&r.ID, &r.FunctionID, &r.State, &r.Details, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
