// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package filter implements the promotional/spam and low-information
// heuristics that gate a cluster's is_story_candidate flag. Both are kept
// deliberately conservative and pluggable: they suppress recurring
// promotional campaigns in the candidate set, not general content
// moderation.
package filter

import (
	"regexp"
	"strings"

	"github.com/tomtom215/newsclust/internal/cache"
)

// promotionalTerms is the fixed list scanned for hit-counting. Three or
// more distinct hits mark a cluster promotional outright; two hits plus a
// handle-pattern majority is the weaker secondary branch.
var promotionalTerms = []string{
	"airdrop",
	"presale",
	"whitelist spot",
	"limited slots",
	"dm to join",
	"guaranteed returns",
	"100x gem",
	"pump signal",
	"early access link",
	"claim your tokens",
}

// promotionalMatcher scans combined cluster text for every promotionalTerms
// entry in one pass rather than one strings.Contains per term.
var promotionalMatcher = cache.NewPatternMatcherFromSlice(promotionalTerms, nil)

var signalServicePattern = regexp.MustCompile(`trading signal|signal service|telegram channel|accuracy rate|free signals`)

var handlePattern = regexp.MustCompile(`^[0-9]{4,}`)

// lowInfoHeadlinePatterns catch headlines that restate an unverified claim
// without attribution, e.g. "user claims token will 10x" or "someone says
// exchange is insolvent" — content with no independently checkable fact.
var lowInfoHeadlinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^user claims\b`),
	regexp.MustCompile(`(?i)^someone (says|claims|alleges)\b`),
	regexp.MustCompile(`(?i)\bclaims without evidence\b`),
	regexp.MustCompile(`(?i)^unverified (report|claim)\b`),
}

// Input bundles the fields the heuristics read, assembled by the caller
// (internal/story, or newsctl's cluster-health-check).
type Input struct {
	Headline      string
	Facts         []string
	MemberTexts   []string
	AuthorHandles []string
}

func combinedText(in Input) string {
	var b strings.Builder
	b.WriteString(in.Headline)
	b.WriteByte(' ')
	for _, f := range in.Facts {
		b.WriteString(f)
		b.WriteByte(' ')
	}
	for _, t := range in.MemberTexts {
		b.WriteString(t)
		b.WriteByte(' ')
	}
	return strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
}

// IsPromotional applies the promo/spam rule.
func IsPromotional(in Input) bool {
	text := combinedText(in)

	if strings.Contains(text, "gwei") && strings.Contains(text, "airdrop") {
		return true
	}
	if signalServicePattern.MatchString(text) {
		return true
	}

	matched := make(map[string]bool)
	for _, m := range promotionalMatcher.Match(text) {
		matched[m.Pattern] = true
	}
	hits := len(matched)
	if hits >= 3 {
		return true
	}
	if hits >= 2 && len(in.AuthorHandles) >= 3 {
		numericHandles := 0
		for _, h := range in.AuthorHandles {
			if handlePattern.MatchString(strings.TrimPrefix(h, "@")) {
				numericHandles++
			}
		}
		if float64(numericHandles)/float64(len(in.AuthorHandles)) >= 0.6 {
			return true
		}
	}
	return false
}

// IsLowInformation applies the low-information rule: no facts, an empty
// headline, or a headline matching an unattributed-claim pattern.
func IsLowInformation(in Input) bool {
	if len(in.Facts) == 0 {
		return true
	}
	headline := strings.TrimSpace(in.Headline)
	if headline == "" {
		return true
	}
	for _, p := range lowInfoHeadlinePatterns {
		if p.MatchString(headline) {
			return true
		}
	}
	return false
}

// StoryCandidateParams bundles the configured size thresholds
// (MIN_TWEETS, MIN_USERS).
type StoryCandidateParams struct {
	MinTweets int
	MinUsers  int
}

// IsStoryCandidate applies the full equivalence:
// is_story_candidate ⇔ tweet_count >= MIN_TWEETS AND unique_user_count >=
// MIN_USERS AND NOT promo/spam AND NOT low-information.
func IsStoryCandidate(in Input, tweetCount, uniqueUserCount int, params StoryCandidateParams) bool {
	if tweetCount < params.MinTweets || uniqueUserCount < params.MinUsers {
		return false
	}
	return !IsPromotional(in) && !IsLowInformation(in)
}
