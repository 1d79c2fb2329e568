// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package review

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/llm"
	"github.com/tomtom215/newsclust/internal/store"
)

// Store is the subset of store.ClusterStore the review worker depends on.
type Store interface {
	GetCluster(ctx context.Context, clusterID int64) (store.Cluster, error)
	ClusterMemberPosts(ctx context.Context, clusterID int64, limit int) ([]store.Post, error)
	RemoveClusterMembers(ctx context.Context, clusterID int64, postIDs []int64) error
	RecomputeClusterStats(ctx context.Context, clusterID int64, minTweets, minUsers int) error
	SetClusterReviewed(ctx context.Context, clusterID int64, reviewedAt time.Time) error
}

// Worker reviews one cluster per ReviewOne call.
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

// ReviewOne reviews clusterID: skipped if reviewed within skipRecentWindow
// or it has fewer than minMembersToReview members; otherwise loads up to
// maxMembersLoaded member posts, asks the LLM which do not belong, removes
// them, recomputes stats, and stamps reviewed_at regardless of whether any
// removal happened.
func (w *Worker) ReviewOne(ctx context.Context, clusterID int64) error {
	cluster, err := w.store.GetCluster(ctx, clusterID)
	if err != nil {
		return err
	}

	if cluster.ReviewedAt != nil && time.Since(*cluster.ReviewedAt) < skipRecentWindow {
		return nil
	}
	if cluster.TweetCount < minMembersToReview {
		return nil
	}

	members, err := w.store.ClusterMemberPosts(ctx, clusterID, maxMembersLoaded)
	if err != nil {
		return err
	}

	toRemove := ProposeRemovals(ctx, w.client, w.model, cluster.NormalizedHeadline, members)
	if len(toRemove) > 0 {
		if err := w.store.RemoveClusterMembers(ctx, clusterID, toRemove); err != nil {
			return err
		}
		if err := w.store.RecomputeClusterStats(ctx, clusterID, w.minTweets, w.minUsers); err != nil {
			w.logger.Warn().Err(err).Int64("cluster_id", clusterID).Msg("review: recompute stats failed")
		}
	}

	return w.store.SetClusterReviewed(ctx, clusterID, time.Now())
}
