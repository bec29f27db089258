package search

import (
	"sort"
	"strings"

	"ai-assistant-be/pkg/store"
)

const DefaultMaxCitations = 8

// Deduplicate drops every result whose URL was already seen. Results without a
// URL are never duplicates. The first occurrence wins, so callers must pass
// results in priority order.
func Deduplicate(results []store.SearchResult) []store.SearchResult {
	seen := make(map[string]bool, len(results))
	out := make([]store.SearchResult, 0, len(results))
	for _, r := range results {
		if r.URL != "" {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
		}
		out = append(out, r)
	}
	return out
}

// SortByScore orders results by descending score. Ties keep priority order.
func SortByScore(results []store.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// BuildCitations derives numbered citations from results carrying a URL, capped at max.
func BuildCitations(results []store.SearchResult, max int) []store.Citation {
	if max <= 0 {
		max = DefaultMaxCitations
	}
	citations := make([]store.Citation, 0, max)
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = r.URL
		}
		citations = append(citations, store.Citation{ID: len(citations) + 1, Title: title, URL: r.URL})
		if len(citations) == max {
			break
		}
	}
	return citations
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
