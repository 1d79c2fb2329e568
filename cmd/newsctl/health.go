// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/newsclust/internal/cluster/filter"
	"github.com/tomtom215/newsclust/internal/store"
	"github.com/tomtom215/newsclust/internal/store/pgstore"
)

var healthCmd = &cobra.Command{
	Use:   "cluster-health-check",
	Short: "Audit live clusters against the invariants cluster-sync relies on",
	Long: `Walks active clusters within the lookback window and checks them
against the invariants cluster-sync, curate, and review all assume hold:
tweet_count matches actual membership, a merged cluster is inactive, and
is_story_candidate agrees with the current promo/spam and low-information
heuristics. A clean run prints zero violations; any violation is a sign a
concurrent write raced a stats recompute, or that the candidacy thresholds
drifted out of sync with what's persisted.`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().Int("min-tweets", 3, "MIN_TWEETS threshold to re-check is_story_candidate against")
	healthCmd.Flags().Int("min-users", 2, "MIN_USERS threshold to re-check is_story_candidate against")
}

type healthViolation struct {
	ClusterID int64  `json:"cluster_id"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
}

type healthSnapshot struct {
	GeneratedAt   time.Time         `json:"generated_at"`
	ClustersChecked int             `json:"clusters_checked"`
	Violations    []healthViolation `json:"violations"`
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	st, _, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	hours := flagInt(cmd, "hours")
	limit := flagInt(cmd, "limit")
	out := flagString(cmd, "out")
	minTweets, _ := cmd.Flags().GetInt("min-tweets")
	minUsers, _ := cmd.Flags().GetInt("min-users")

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	clusters, err := st.ListActiveClusters(ctx, since, limit)
	if err != nil {
		return fmt.Errorf("load active clusters: %w", err)
	}

	var violations []healthViolation
	for _, c := range clusters {
		violations = append(violations, checkCluster(ctx, st, c, minTweets, minUsers)...)
	}

	printHealthTable(cmd, len(clusters), violations)

	snapshot := healthSnapshot{
		GeneratedAt:     time.Now(),
		ClustersChecked: len(clusters),
		Violations:      violations,
	}
	path, err := writeSnapshot(out, "cluster-health-check", snapshot.GeneratedAt, snapshot)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "snapshot written to", path)
	if len(violations) > 0 {
		return fmt.Errorf("%d invariant violation(s) found", len(violations))
	}
	return nil
}

// checkCluster re-derives the invariants cluster-sync's stats recompute
// enforces and reports any mismatch against what's currently persisted.
func checkCluster(ctx context.Context, st *pgstore.Store, c store.Cluster, minTweets, minUsers int) []healthViolation {
	var violations []healthViolation

	if c.MergedIntoClusterID != nil && c.IsActive {
		violations = append(violations, healthViolation{
			ClusterID: c.ID, Kind: "merged-but-active",
			Detail: fmt.Sprintf("merged_into_cluster_id=%d but is_active=true", *c.MergedIntoClusterID),
		})
	}

	members, err := st.ClusterMemberPosts(ctx, c.ID, 10000)
	if err != nil {
		violations = append(violations, healthViolation{
			ClusterID: c.ID, Kind: "load-error", Detail: err.Error(),
		})
		return violations
	}

	if len(members) != c.TweetCount {
		violations = append(violations, healthViolation{
			ClusterID: c.ID, Kind: "tweet-count-mismatch",
			Detail: fmt.Sprintf("stored tweet_count=%d, actual membership=%d", c.TweetCount, len(members)),
		})
	}

	uniqueUsers := map[string]bool{}
	memberTexts := make([]string, 0, len(members))
	authorHandles := make([]string, 0, len(members))
	for _, m := range members {
		uniqueUsers[m.AuthorHandle] = true
		memberTexts = append(memberTexts, m.RawText)
		authorHandles = append(authorHandles, m.AuthorHandle)
	}
	if len(uniqueUsers) != c.UniqueUserCount {
		violations = append(violations, healthViolation{
			ClusterID: c.ID, Kind: "unique-user-count-mismatch",
			Detail: fmt.Sprintf("stored unique_user_count=%d, actual=%d", c.UniqueUserCount, len(uniqueUsers)),
		})
	}

	expectedCandidate := filter.IsStoryCandidate(filter.Input{
		Headline:      c.NormalizedHeadline,
		Facts:         c.NormalizedFacts,
		MemberTexts:   memberTexts,
		AuthorHandles: authorHandles,
	}, c.TweetCount, c.UniqueUserCount, filter.StoryCandidateParams{
		MinTweets: minTweets,
		MinUsers:  minUsers,
	})
	if expectedCandidate != c.IsStoryCandidate {
		violations = append(violations, healthViolation{
			ClusterID: c.ID, Kind: "story-candidate-mismatch",
			Detail: fmt.Sprintf("stored is_story_candidate=%v, recomputed=%v", c.IsStoryCandidate, expectedCandidate),
		})
	}

	return violations
}

func printHealthTable(cmd *cobra.Command, checked int, violations []healthViolation) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "clusters checked: %d\tviolations: %d\n\n", checked, len(violations))
	if len(violations) == 0 {
		w.Flush()
		return
	}
	fmt.Fprintln(w, "CLUSTER ID\tKIND\tDETAIL")
	for _, v := range violations {
		fmt.Fprintf(w, "%d\t%s\t%s\n", v.ClusterID, v.Kind, v.Detail)
	}
	w.Flush()
}
