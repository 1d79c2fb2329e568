// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package curate

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/store"
)

// activeLookbackWindow bounds how far back ListActiveClusters looks for
// candidates, independent of cluster-sync's own lookback.
const activeLookbackWindow = 48 * time.Hour

// activeClusterLimit caps how many active clusters one curate pass loads.
const activeClusterLimit = 500

// Store is the subset of store.ClusterStore curate depends on.
type Store interface {
	ListActiveClusters(ctx context.Context, lastSeenSince time.Time, limit int) ([]store.Cluster, error)
	ReloadUnmerged(ctx context.Context, clusterIDs []int64) ([]store.Cluster, error)
	MergeCluster(ctx context.Context, sourceID, targetID int64, reason string) error
	RecomputeClusterStats(ctx context.Context, clusterID int64, minTweets, minUsers int) error
}

// Worker runs one cluster-curate pass per invocation.
type Worker struct {
	store     Store
	client    *llm.Client
	model     string
	minTweets int
	minUsers  int
	logger    zerolog.Logger
}

// NewWorker builds a Worker.
func NewWorker(st Store, client *llm.Client, model string, minTweets, minUsers int, logger zerolog.Logger) *Worker {
	return &Worker{store: st, client: client, model: model, minTweets: minTweets, minUsers: minUsers, logger: logger}
}

// Run loads active unmerged clusters last seen within the lookback window,
// proposes merge groups via the LLM, then executes each proposed merge
// sequentially against a freshly re-read snapshot.
func (w *Worker) Run(ctx context.Context) error {
	since := time.Now().Add(-activeLookbackWindow)
	clusters, err := w.store.ListActiveClusters(ctx, since, activeClusterLimit)
	if err != nil {
		return err
	}
	if len(clusters) < 2 {
		return nil
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].TweetCount > clusters[j].TweetCount })

	groups := BuildCandidateGroups(clusters)
	if len(groups) == 0 {
		return nil
	}

	proposed, err := ProposeMerges(ctx, w.client, w.model, groups, w.logger)
	if err != nil {
		return err
	}

	for _, group := range proposed {
		if err := w.executeMerge(ctx, group); err != nil {
			w.logger.Warn().Err(err).Interface("cluster_ids", group.ClusterIDs).Msg("curate: merge failed")
		}
	}
	return nil
}

// executeMerge re-reads the proposed clusters, requires at least two to
// still be unmerged, picks the target by largest tweet_count (ties broken
// by earlier first_seen_at, then lower id), and merges every remaining
// source into it.
func (w *Worker) executeMerge(ctx context.Context, group MergeGroup) error {
	fresh, err := w.store.ReloadUnmerged(ctx, group.ClusterIDs)
	if err != nil {
		return err
	}
	if len(fresh) < 2 {
		return nil
	}

	target := pickTarget(fresh)
	for _, c := range fresh {
		if c.ID == target.ID {
			continue
		}
		if err := w.store.MergeCluster(ctx, c.ID, target.ID, group.Reason); err != nil {
			return err
		}
	}

	return w.store.RecomputeClusterStats(ctx, target.ID, w.minTweets, w.minUsers)
}

func pickTarget(clusters []store.Cluster) store.Cluster {
	best := clusters[0]
	for _, c := range clusters[1:] {
		if c.TweetCount > best.TweetCount {
			best = c
			continue
		}
		if c.TweetCount < best.TweetCount {
			continue
		}
		if c.FirstSeenAt.Before(best.FirstSeenAt) {
			best = c
			continue
		}
		if c.FirstSeenAt.After(best.FirstSeenAt) {
			continue
		}
		if c.ID < best.ID {
			best = c
		}
	}
	return best
}
