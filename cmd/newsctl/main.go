// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Command newsctl is the operator evaluation harness for the newsclust
// pipeline: three read-only subcommands that compare clustering/embedding
// strategies against live data without touching the production tables,
// each printing a comparison table to stdout and writing a timestamped
// JSON snapshot next to a "*-latest.json" pointer an operator (or a
// follow-up CI step) can diff across runs.
//
// None of these subcommands write to posts, clusters, or any other
// pipeline table: they read through store.Store and otherwise call the
// same functions (internal/store/pgvector, internal/normalize,
// internal/embed, internal/cluster/filter) the production pipeline does, at alternate parameter
// values, so a proposed threshold or model change can be evaluated against
// real data before it's rolled into the scheduled jobs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "newsctl",
	Short: "Read-only evaluation harness for the newsclust pipeline",
	Long: `newsctl runs clustering and normalization strategies against live
data without mutating any pipeline table, for comparing a candidate
threshold or model change against what's currently deployed.`,
}

func init() {
	rootCmd.PersistentFlags().Int("hours", 24, "lookback window in hours")
	rootCmd.PersistentFlags().Int("limit", 200, "maximum rows to evaluate")
	rootCmd.PersistentFlags().String("provider", "", "override the embedding provider endpoint for this run; the normalize LLM endpoint is unchanged (blank uses configured default)")
	rootCmd.PersistentFlags().String("model", "", "override LLM/embedding model for this run (blank uses configured default)")
	rootCmd.PersistentFlags().String("out", "./snapshots", "directory snapshots are written to")

	rootCmd.AddCommand(stabilityCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "newsctl:", err)
		os.Exit(1)
	}
}
