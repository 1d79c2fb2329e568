// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package story implements the read-only ranking model the HTTP API
// exposes: for each active unmerged cluster touched within a lookback
// window, a freshness/volume/engagement/feedback score, with deterministic
// tie-breaks for equal scores.
package story

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/newsclust/internal/cluster/filter"
	"github.com/tomtom215/newsclust/internal/store"
)

// Params bundles the read model's configuration: lookback window and
// whether to restrict to story candidates.
type Params struct {
	LookbackHours      float64
	OnlyStoryCandidates bool
	Limit               int
}

// Story is one ranked entry in the read model's output.
type Story struct {
	ClusterID         int64
	Headline          string
	Facts             []string
	TweetCount        int
	UniqueUserCount   int
	LastSeenAt        time.Time
	TotalEngagement   float64
	Feedback          store.FeedbackCounts
	IsStoryCandidate  bool
	Score             float64
}

// Score applies the ranking formula:
//
//	freshness = exp(-hours_since_last_seen / 18)
//	volume = ln(1 + tweet_count * max(1, unique_user_count))
//	engagement = ln(1 + total_member_engagement)
//	feedback_penalty = max(0, noise + bad_cluster - useful)
//	score = 120*freshness + 18*volume + 3*engagement - 8*feedback_penalty
func Score(now time.Time, lastSeenAt time.Time, tweetCount, uniqueUserCount int, totalEngagement float64, fb store.FeedbackCounts) float64 {
	hoursSince := now.Sub(lastSeenAt).Hours()
	freshness := math.Exp(-hoursSince / 18)

	userFactor := uniqueUserCount
	if userFactor < 1 {
		userFactor = 1
	}
	volume := math.Log(1 + float64(tweetCount*userFactor))
	engagement := math.Log(1 + totalEngagement)
	penalty := fb.Penalty()

	return 120*freshness + 18*volume + 3*engagement - 8*penalty
}

// Read builds the ranked story list: load active unmerged clusters touched
// within the lookback window, aggregate member engagement and feedback,
// score, optionally filter to story candidates, and sort.
func Read(ctx context.Context, s store.Store, now time.Time, params Params) ([]Story, error) {
	since := now.Add(-time.Duration(params.LookbackHours * float64(time.Hour)))

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	clusters, err := s.ListActiveClusters(ctx, since, limit*4)
	if err != nil {
		return nil, err
	}

	var out []Story
	for _, c := range clusters {
		if params.OnlyStoryCandidates && !c.IsStoryCandidate {
			continue
		}

		members, err := s.ClusterMemberPosts(ctx, c.ID, 500)
		if err != nil {
			return nil, err
		}

		var totalEngagement float64
		var memberTexts []string
		var authorHandles []string
		for _, m := range members {
			totalEngagement += m.Engagement()
			memberTexts = append(memberTexts, m.RawText)
			authorHandles = append(authorHandles, m.AuthorHandle)
		}

		fb, err := s.ClusterFeedbackCounts(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		score := Score(now, c.LastSeenAt, c.TweetCount, c.UniqueUserCount, totalEngagement, fb)

		isCandidate := filter.IsStoryCandidate(filter.Input{
			Headline:      c.NormalizedHeadline,
			Facts:         c.NormalizedFacts,
			MemberTexts:   memberTexts,
			AuthorHandles: authorHandles,
		}, c.TweetCount, c.UniqueUserCount, filter.StoryCandidateParams{MinTweets: 3, MinUsers: 2})

		out = append(out, Story{
			ClusterID:        c.ID,
			Headline:         c.NormalizedHeadline,
			Facts:            c.NormalizedFacts,
			TweetCount:       c.TweetCount,
			UniqueUserCount:  c.UniqueUserCount,
			LastSeenAt:       c.LastSeenAt,
			TotalEngagement:  totalEngagement,
			Feedback:         fb,
			IsStoryCandidate: isCandidate,
			Score:            score,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TweetCount != b.TweetCount {
			return a.TweetCount > b.TweetCount
		}
		if a.UniqueUserCount != b.UniqueUserCount {
			return a.UniqueUserCount > b.UniqueUserCount
		}
		return a.LastSeenAt.After(b.LastSeenAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
