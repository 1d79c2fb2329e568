// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object out of a model response by trying, in
// order: the whole trimmed string, a fenced ```json code block, and the
// substring from the first '{' to the last '}'. Returns an error only if
// none of the three yield a non-empty candidate.
func ExtractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("llm: empty response")
	}
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, nil
	}

	if fenced, ok := extractFenced(trimmed); ok {
		return fenced, nil
	}

	if first := strings.IndexByte(trimmed, '{'); first >= 0 {
		if last := strings.LastIndexByte(trimmed, '}'); last > first {
			return trimmed[first : last+1], nil
		}
	}

	return "", fmt.Errorf("llm: no JSON object found in response")
}

func extractFenced(s string) (string, bool) {
	const openTag = "```json"
	start := strings.Index(s, openTag)
	if start < 0 {
		start = strings.Index(s, "```")
		if start < 0 {
			return "", false
		}
		start += len("```")
	} else {
		start += len(openTag)
	}

	rest := s[start:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	body := strings.TrimSpace(rest[:end])
	if body == "" {
		return "", false
	}
	return body, true
}
