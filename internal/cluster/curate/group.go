// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package curate finds separate clusters that describe the same event and
// merges them: build candidate duplicate groups (all-in-one for a small
// active set, token-inverted-index connected-components otherwise), ask an
// LLM to propose merge groups within a conservative policy, then execute
// directional merges sequentially against a freshly re-read snapshot.
package curate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tomtom215/newsclust/internal/cache"
	"github.com/tomtom215/newsclust/internal/store"
)

// smallGroupThreshold is the active-cluster count at or below which all
// clusters are fed to the LLM as a single candidate group, skipping the
// token-index step entirely.
const smallGroupThreshold = 100

// minSharedTokens is the minimum number of shared headline tokens for two
// clusters to be linked in the candidate graph.
const minSharedTokens = 2

var tickerPattern = regexp.MustCompile(`^[$]?[A-Z]{2,6}$`)
var numericPattern = regexp.MustCompile(`^[0-9][0-9.,%]*$`)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "of": {}, "to": {},
	"in": {}, "on": {}, "for": {}, "with": {}, "at": {}, "by": {}, "from": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "it": {}, "its": {}, "as": {},
	"that": {}, "this": {}, "will": {}, "has": {}, "have": {}, "had": {}, "after": {}, "over": {},
}

// tokenize normalizes a headline into the token set used for the candidate
// duplicate-group index: lowercased, stopword-filtered, with tickers and
// short numerics preserved and all other tokens required to be >= 3 chars.
func tokenize(headline string) []string {
	fields := strings.Fields(headline)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		trimmed := strings.Trim(f, ".,!?;:'\"()")
		if trimmed == "" {
			continue
		}
		if tickerPattern.MatchString(trimmed) || numericPattern.MatchString(trimmed) {
			out = append(out, strings.ToLower(trimmed))
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, stop := stopwords[lower]; stop {
			continue
		}
		if len(lower) < 3 {
			continue
		}
		out = append(out, lower)
	}
	return out
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// BuildCandidateGroups partitions clusters into groups worth sending to the
// LLM for duplicate evaluation. When len(clusters) <= smallGroupThreshold,
// every cluster is returned as a single group. Otherwise clusters are
// linked in a graph when their normalized headlines share at least
// minSharedTokens tokens, and the connected components of that graph are
// the candidate groups. Clusters with an empty headline or fewer than
// minSharedTokens tokens never link to anything and form singleton groups,
// which are dropped since a duplicate group needs at least two members.
func BuildCandidateGroups(clusters []store.Cluster) [][]store.Cluster {
	if len(clusters) == 0 {
		return nil
	}
	if len(clusters) <= smallGroupThreshold {
		return [][]store.Cluster{clusters}
	}

	tokenSets := make([][]string, len(clusters))
	for i, c := range clusters {
		tokenSets[i] = tokenize(c.NormalizedHeadline)
	}

	// index maps each headline token to the clusters it appears in, the
	// same inverted-index shape a map would give, but built on the shared
	// Trie so the curation-window token index and the rest of the cache
	// package's prefix structures stay one code path.
	index := cache.NewTrie()
	for i, tokens := range tokenSets {
		for _, tok := range tokens {
			if existing, ok := index.Search(tok); ok {
				members := existing.(*[]int)
				*members = append(*members, i)
				continue
			}
			members := []int{i}
			index.InsertWithData(tok, &members)
		}
	}

	uf := newUnionFind(len(clusters))
	shared := make(map[[2]int]int)
	for _, entry := range index.GetAll() {
		members := *entry.Data.(*[]int)
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				key := [2]int{members[a], members[b]}
				shared[key]++
			}
		}
	}
	for key, count := range shared {
		if count >= minSharedTokens {
			uf.union(key[0], key[1])
		}
	}

	groups := make(map[int][]int)
	for i := range clusters {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	var out [][]store.Cluster
	var roots []int
	for root := range groups {
		roots = append(roots, root)
	}
	sort.Ints(roots)
	for _, root := range roots {
		idxs := groups[root]
		if len(idxs) < 2 {
			continue
		}
		group := make([]store.Cluster, 0, len(idxs))
		for _, idx := range idxs {
			group = append(group, clusters[idx])
		}
		out = append(out, group)
	}
	return out
}
