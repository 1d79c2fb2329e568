// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package runstatus implements the operator health view: a thin adapter
// from internal/scheduler.RunRecorder onto store.RunStore, plus a read-side
// summary the HTTP API's health endpoint serves.
package runstatus

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/store"
)

// Recorder adapts store.RunStore to scheduler.RunRecorder. Recording is
// best-effort from the scheduler's point of view; this type additionally
// logs a failure to persist so operators can see storage trouble even
// though it never masks the underlying job outcome.
type Recorder struct {
	runs   store.RunStore
	logger zerolog.Logger
}

// NewRecorder builds a Recorder over the given RunStore.
func NewRecorder(runs store.RunStore, logger zerolog.Logger) *Recorder {
	return &Recorder{runs: runs, logger: logger.With().Str("component", "runstatus").Logger()}
}

// RecordFunctionRun persists one job invocation outcome. Matches
// scheduler.RunRecorder's signature (state, not error, since skipped ticks
// have no error).
func (r *Recorder) RecordFunctionRun(ctx context.Context, functionID, state, details string) {
	if err := r.runs.RecordFunctionRun(ctx, functionID, state, details); err != nil {
		r.logger.Warn().Err(err).Str("function_id", functionID).Str("state", state).Msg("failed to record function run")
	}
}

// FunctionSummary is the latest known state of one scheduled function, for
// the health endpoint.
type FunctionSummary struct {
	FunctionID string `json:"function_id"`
	State      string `json:"state"`
	Details    string `json:"details,omitempty"`
}

// Summary reports the most recent run of every distinct function seen in
// the last `limit` recorded runs, most-recent first per function.
func Summary(ctx context.Context, runs store.RunStore, limit int) ([]FunctionSummary, error) {
	rows, err := runs.LatestRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []FunctionSummary
	for _, row := range rows {
		if seen[row.FunctionID] {
			continue
		}
		seen[row.FunctionID] = true
		out = append(out, FunctionSummary{
			FunctionID: row.FunctionID,
			State:      row.State,
			Details:    row.Details,
		})
	}
	return out, nil
}
