// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/newsclust/internal/store/pgvector"
)

var stabilityCmd = &cobra.Command{
	Use:   "cluster-stability-eval",
	Short: "Compare clustering outcomes across candidate similarity thresholds",
	Long: `Re-runs the connected-components clustering pass used by cluster-sync
over the configured lookback window at several candidate
SIMILARITY_THRESHOLD values, without writing anything back to the store, and
compares the resulting component count and size distribution to what's
currently live. Components smaller than the configured MIN_CLUSTER_SIZE are
dropped, as cluster-sync drops them, so with the default of 2 the SINGLETONS
column stays at zero: a threshold that fragments a real story shows up as
fewer and smaller components, and one that collapses too many posts into
one shows up as an oversized LARGEST value.`,
	RunE: runStability,
}

func init() {
	stabilityCmd.Flags().String("thresholds", "0.90,0.92,0.94,0.96,0.98",
		"comma-separated SIMILARITY_THRESHOLD candidates to evaluate")
}

type stabilityRow struct {
	Threshold      float64 `json:"threshold"`
	Components     int     `json:"components"`
	SingletonCount int     `json:"singleton_count"`
	LargestSize    int     `json:"largest_size"`
	MeanSize       float64 `json:"mean_size"`
}

type stabilitySnapshot struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	LookbackHours  int            `json:"lookback_hours"`
	CandidateCount int            `json:"candidate_count"`
	LiveClusterCount int          `json:"live_cluster_count"`
	Rows           []stabilityRow `json:"rows"`
}

func runStability(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, cfg, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	hours := flagInt(cmd, "hours")
	thresholdsFlag := flagString(cmd, "thresholds")
	out := flagString(cmd, "out")

	thresholds, err := parseThresholds(thresholdsFlag)
	if err != nil {
		return err
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	candidates, err := st.EmbeddingCandidates(ctx, since)
	if err != nil {
		return fmt.Errorf("load embedding candidates: %w", err)
	}

	live, err := st.ListActiveClusters(ctx, since, flagInt(cmd, "limit"))
	if err != nil {
		return fmt.Errorf("load live clusters: %w", err)
	}

	rows := make([]stabilityRow, 0, len(thresholds))
	for _, threshold := range thresholds {
		components := pgvector.ClusterByEmbedding(candidates, pgvector.Params{
			SimilarityThreshold: threshold,
			MinClusterSize:      cfg.ClusterSync.MinClusterSize,
			MaxDaysWindow:       cfg.ClusterSync.MaxDaysWindow,
		})
		rows = append(rows, summarizeComponents(threshold, components))
	}

	printStabilityTable(cmd, rows, len(candidates), len(live))

	snapshot := stabilitySnapshot{
		GeneratedAt:      time.Now(),
		LookbackHours:    hours,
		CandidateCount:   len(candidates),
		LiveClusterCount: len(live),
		Rows:             rows,
	}
	path, err := writeSnapshot(out, "cluster-stability-eval", snapshot.GeneratedAt, snapshot)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "snapshot written to", path)
	return nil
}

func parseThresholds(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	thresholds := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", p, err)
		}
		thresholds = append(thresholds, v)
	}
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("no thresholds given")
	}
	return thresholds, nil
}

func summarizeComponents(threshold float64, components []pgvector.Component) stabilityRow {
	row := stabilityRow{Threshold: threshold, Components: len(components)}
	var total int
	for _, c := range components {
		size := len(c.PostIDs)
		total += size
		if size == 1 {
			row.SingletonCount++
		}
		if size > row.LargestSize {
			row.LargestSize = size
		}
	}
	if len(components) > 0 {
		row.MeanSize = float64(total) / float64(len(components))
	}
	return row
}

func printStabilityTable(cmd *cobra.Command, rows []stabilityRow, candidateCount, liveClusterCount int) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "candidates: %d\tlive clusters: %d\n\n", candidateCount, liveClusterCount)
	fmt.Fprintln(w, "THRESHOLD\tCOMPONENTS\tSINGLETONS\tLARGEST\tMEAN SIZE")
	for _, r := range rows {
		fmt.Fprintf(w, "%.2f\t%d\t%d\t%d\t%.2f\n", r.Threshold, r.Components, r.SingletonCount, r.LargestSize, r.MeanSize)
	}
	w.Flush()
}
