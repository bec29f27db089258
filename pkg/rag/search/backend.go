package search

import (
	"context"

	"ai-assistant-be/pkg/store"
)

// DocumentSearcher queries one collection. Each call fails independently.
type DocumentSearcher interface {
	Search(ctx context.Context, ref store.CollectionReference, query string, filters *store.Filters, limit int) ([]store.SearchResult, error)
}

// WebSearcher queries the open web.
type WebSearcher interface {
	WebSearch(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error)
}

// Crawler replaces snippet content with page text for up to maxURLs results.
// The returned slice keeps the input order and length.
type Crawler interface {
	CrawlTopURLs(ctx context.Context, results []store.SearchResult, maxURLs int) ([]store.SearchResult, error)
}

// WebSourceID marks results that came from the web backend.
const WebSourceID = "web"
