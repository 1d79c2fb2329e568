// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package pgvector

// MatchThresholds bundles the configured match-rule constants:
// MATCH_JACCARD_THRESHOLD (0.25) and MIN_INTERSECTION (2).
type MatchThresholds struct {
	JaccardThreshold float64
	MinIntersection  int
}

// PluralityOwner returns the persistent cluster id that owns the most
// members of component post ids, per owned, and whether any component post
// is already owned by a persistent cluster at all.
func PluralityOwner(componentPostIDs []int64, owned map[int64]int64) (clusterID int64, ok bool) {
	counts := make(map[int64]int)
	for _, id := range componentPostIDs {
		if cid, assigned := owned[id]; assigned {
			counts[cid]++
		}
	}
	var best int64
	bestCount := 0
	for cid, count := range counts {
		if count > bestCount {
			best = cid
			bestCount = count
		}
	}
	if bestCount == 0 {
		return 0, false
	}
	return best, true
}

// Jaccard returns |a∩b| / |a∪b| over the two id sets, and the intersection
// size, needed separately because MIN_INTERSECTION gates independently of
// the ratio: a high ratio with an intersection below the floor is not a
// match.
func Jaccard(a, b []int64) (score float64, intersection int) {
	setA := toSet(a)
	setB := toSet(b)

	inter := 0
	for id := range setA {
		if setB[id] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0, 0
	}
	return float64(inter) / float64(union), inter
}

// IsUpdateMatch applies the match rule: Jaccard >= threshold AND
// intersection >= MinIntersection.
func IsUpdateMatch(componentPostIDs, windowMembers []int64, t MatchThresholds) bool {
	score, inter := Jaccard(componentPostIDs, windowMembers)
	return score >= t.JaccardThreshold && inter >= t.MinIntersection
}

func toSet(ids []int64) map[int64]bool {
	s := make(map[int64]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}
