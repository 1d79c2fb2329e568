// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package urlfetch

import (
	"net/url"
	"strings"
)

// skippedHosts are never fetched or stored: the posting site's own domain,
// its short-link domain, and well-known video hosts whose pages never
// yield readable article text.
var skippedHosts = map[string]struct{}{
	"twitter.com":     {},
	"x.com":           {},
	"t.co":            {},
	"youtube.com":     {},
	"www.youtube.com": {},
	"youtu.be":        {},
	"vimeo.com":       {},
	"tiktok.com":      {},
}

// shouldSkip reports whether rawURL's host is in the skip list.
func shouldSkip(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	_, skip := skippedHosts[host]
	return skip
}
