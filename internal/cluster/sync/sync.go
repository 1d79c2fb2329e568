// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package sync reconciles a stateless embedding-similarity clustering pass
// against the persistent cluster store: match each freshly computed
// component against its best-plurality-owner cluster, apply membership
// updates or create a new cluster, recompute stats, deactivate stale
// clusters, and emit review events for new or substantially grown
// clusters. Guarded by an in-process semaphore and a store-level advisory
// lock so at most one instance runs this at a time.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsclust/internal/concurrency"
	"github.com/tomtom215/newsclust/internal/eventbus"
	"github.com/tomtom215/newsclust/internal/store"
	"github.com/tomtom215/newsclust/internal/store/pgvector"
)

// Store is the subset of store.ClusterStore + store.PostStore the
// cluster-sync pass depends on.
type Store interface {
	EmbeddingCandidates(ctx context.Context, since time.Time) ([]store.EmbeddingCandidate, error)
	ClusterOwnerCounts(ctx context.Context, postIDs []int64) (map[int64]int64, error)
	WindowMembers(ctx context.Context, clusterID int64, since time.Time) ([]int64, error)
	CreateCluster(ctx context.Context, firstSeen, lastSeen time.Time, memberPostIDs []int64) (int64, error)
	RemoveClusterMembers(ctx context.Context, clusterID int64, postIDs []int64) error
	AddClusterMembers(ctx context.Context, clusterID int64, postIDs []int64) error
	AssignedClusterIDs(ctx context.Context, postIDs []int64) (map[int64]int64, error)
	RecomputeClusterStats(ctx context.Context, clusterID int64, minTweets, minUsers int) error
	DeactivateStaleClusters(ctx context.Context, idleSince time.Time) ([]int64, error)
}

// Locker is the store-level advisory lock guarding cluster-sync across
// process instances, belt-and-braces alongside the in-process semaphore.
type Locker interface {
	TryAcquireSyncLock(ctx context.Context) (bool, func(), error)
}

// Publisher emits review events for new or substantially grown clusters.
type Publisher interface {
	PublishEvent(ctx context.Context, event *eventbus.Event) error
}

// Params bundles the closed configuration enumeration cluster-sync reads,
// from internal/config.ClusterSyncConfig.
type Params struct {
	SimilarityThreshold    float64
	MatchJaccardThreshold  float64
	MinIntersection        int
	MinClusterSize         int
	MaxDaysWindow          int
	MinTweets              int
	MinUsers               int
	ReviewMinNewMembers    int
	StaleDeactivateHours   int
	SyncLookbackHours      int
}

// Syncer runs one cluster-sync pass per invocation.
type Syncer struct {
	store     Store
	locker    Locker
	publisher Publisher
	sem       *concurrency.Semaphore
	params    Params
	logger    zerolog.Logger
}

// NewSyncer builds a Syncer.
func NewSyncer(st Store, locker Locker, publisher Publisher, sem *concurrency.Semaphore, params Params, logger zerolog.Logger) *Syncer {
	return &Syncer{store: st, locker: locker, publisher: publisher, sem: sem, params: params, logger: logger}
}

// Run executes Steps A-F for the window starting SyncLookbackHours before
// now. If the advisory lock is already held elsewhere, Run returns nil
// without error: another instance is running this pass.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.sem.Acquire(ctx); err != nil {
		return err
	}
	defer s.sem.Release()

	acquired, release, err := s.locker.TryAcquireSyncLock(ctx)
	if err != nil {
		return fmt.Errorf("cluster sync: acquire advisory lock: %w", err)
	}
	if !acquired {
		s.logger.Info().Msg("cluster sync: advisory lock held elsewhere, skipping pass")
		return nil
	}
	defer release()

	now := time.Now()
	since := now.Add(-time.Duration(s.params.SyncLookbackHours) * time.Hour)

	candidates, err := s.store.EmbeddingCandidates(ctx, since)
	if err != nil {
		return fmt.Errorf("cluster sync: load candidates: %w", err)
	}

	components := pgvector.ClusterByEmbedding(candidates, pgvector.Params{
		SimilarityThreshold: s.params.SimilarityThreshold,
		MinClusterSize:      s.params.MinClusterSize,
		MaxDaysWindow:       s.params.MaxDaysWindow,
	})

	touched := make(map[int64]struct{})
	toReview := make(map[int64]struct{})

	for _, component := range components {
		clusterID, reviewNeeded, err := s.reconcileComponent(ctx, component, since)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cluster sync: reconcile component failed")
			continue
		}
		touched[clusterID] = struct{}{}
		if reviewNeeded {
			toReview[clusterID] = struct{}{}
		}
	}

	for clusterID := range touched {
		if err := s.store.RecomputeClusterStats(ctx, clusterID, s.params.MinTweets, s.params.MinUsers); err != nil {
			s.logger.Warn().Err(err).Int64("cluster_id", clusterID).Msg("cluster sync: recompute stats failed")
		}
	}

	idleSince := now.Add(-time.Duration(s.params.StaleDeactivateHours) * time.Hour)
	deactivated, err := s.store.DeactivateStaleClusters(ctx, idleSince)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cluster sync: deactivate stale clusters failed")
	} else if len(deactivated) > 0 {
		s.logger.Info().Ints64("cluster_ids", deactivated).Msg("cluster sync: deactivated stale clusters")
	}

	for clusterID := range toReview {
		if err := s.emitReview(ctx, clusterID); err != nil {
			s.logger.Warn().Err(err).Int64("cluster_id", clusterID).Msg("cluster sync: emit review event failed")
		}
	}

	return nil
}

// reconcileComponent applies Steps B and C for one component, returning the
// touched cluster id and whether it warrants a review event (Step F: new,
// or updated with at least ReviewMinNewMembers new members).
func (s *Syncer) reconcileComponent(ctx context.Context, component pgvector.Component, since time.Time) (int64, bool, error) {
	ownerCounts, err := s.store.ClusterOwnerCounts(ctx, component.PostIDs)
	if err != nil {
		return 0, false, fmt.Errorf("load owner counts: %w", err)
	}

	bestCluster, ok := pgvector.PluralityOwner(component.PostIDs, ownerCounts)
	if ok {
		windowMembers, err := s.store.WindowMembers(ctx, bestCluster, since)
		if err != nil {
			return 0, false, fmt.Errorf("load window members: %w", err)
		}

		thresholds := pgvector.MatchThresholds{
			JaccardThreshold: s.params.MatchJaccardThreshold,
			MinIntersection:  s.params.MinIntersection,
		}
		if pgvector.IsUpdateMatch(component.PostIDs, windowMembers, thresholds) {
			return s.applyUpdate(ctx, bestCluster, component, windowMembers)
		}
	}

	return s.applyCreate(ctx, component)
}

func (s *Syncer) applyUpdate(ctx context.Context, clusterID int64, component pgvector.Component, windowMembers []int64) (int64, bool, error) {
	inComponent := toSet(component.PostIDs)
	var toRemove []int64
	for _, id := range windowMembers {
		if _, ok := inComponent[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	if len(toRemove) > 0 {
		if err := s.store.RemoveClusterMembers(ctx, clusterID, toRemove); err != nil {
			return 0, false, fmt.Errorf("remove members: %w", err)
		}
	}

	toAdd, err := s.unassignedMembers(ctx, component.PostIDs)
	if err != nil {
		return 0, false, err
	}
	if len(toAdd) > 0 {
		if err := s.store.AddClusterMembers(ctx, clusterID, toAdd); err != nil {
			return 0, false, fmt.Errorf("add members: %w", err)
		}
	}

	return clusterID, len(toAdd) >= s.params.ReviewMinNewMembers, nil
}

func (s *Syncer) applyCreate(ctx context.Context, component pgvector.Component) (int64, bool, error) {
	toAdd, err := s.unassignedMembers(ctx, component.PostIDs)
	if err != nil {
		return 0, false, err
	}

	clusterID, err := s.store.CreateCluster(ctx, component.Earliest, component.Latest, toAdd)
	if err != nil {
		return 0, false, fmt.Errorf("create cluster: %w", err)
	}
	return clusterID, true, nil
}

func (s *Syncer) unassignedMembers(ctx context.Context, postIDs []int64) ([]int64, error) {
	assigned, err := s.store.AssignedClusterIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("load assigned cluster ids: %w", err)
	}
	var out []int64
	for _, id := range postIDs {
		if _, ok := assigned[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Syncer) emitReview(ctx context.Context, clusterID int64) error {
	event, err := eventbus.NewEvent(uuid.NewString(), eventbus.TopicClusterReviewRequested, eventbus.ClusterReviewPayload{ClusterID: clusterID})
	if err != nil {
		return err
	}
	return s.publisher.PublishEvent(ctx, event)
}

func toSet(ids []int64) map[int64]struct{} {
	s := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
