package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-assistant-be/pkg/store"

	"go.uber.org/zap"
)

// ResultCache stores web results between requests.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]store.SearchResult, bool)
	Set(ctx context.Context, key string, results []store.SearchResult, ttl time.Duration)
}

// SearxNGSearcher queries a SearxNG instance through its JSON API.
type SearxNGSearcher struct {
	baseURL  string
	language string
	client   *http.Client
	cache    ResultCache
	ttl      time.Duration
	logger   *zap.Logger
}

func NewSearxNGSearcher(baseURL, language string, timeout time.Duration, cache ResultCache, ttl time.Duration, logger *zap.Logger) *SearxNGSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearxNGSearcher{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		client:   &http.Client{Timeout: timeout},
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

type searxResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"publishedDate"`
}

type searxResponse struct {
	Results []searxResult `json:"results"`
}

func (s *SearxNGSearcher) WebSearch(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error) {
	key := webCacheKey(s.language, query, maxResults)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	if s.language != "" {
		params.Set("language", s.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("searxng HTTP %d: %s", resp.StatusCode, string(body))
	}

	var parsed searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode searxng response: %w", err)
	}

	results := normalizeWebResults(parsed, maxResults)
	if s.cache != nil && len(results) > 0 {
		s.cache.Set(ctx, key, results, s.ttl)
	}
	return results, nil
}

// normalizeWebResults maps engine scores into [0,1] relative to the best hit and
// falls back to rank order when the engine reports none.
func normalizeWebResults(parsed searxResponse, maxResults int) []store.SearchResult {
	n := len(parsed.Results)
	if maxResults > 0 && n > maxResults {
		n = maxResults
	}

	var best float64
	for _, r := range parsed.Results[:n] {
		if r.Score > best {
			best = r.Score
		}
	}

	results := make([]store.SearchResult, 0, n)
	for i, r := range parsed.Results[:n] {
		if r.URL == "" {
			continue
		}
		score := 1 - float64(i)/float64(n+1)
		if best > 0 {
			score = r.Score / best
		}
		res := store.SearchResult{
			SourceID: WebSourceID,
			Title:    strings.TrimSpace(r.Title),
			Content:  strings.TrimSpace(r.Content),
			URL:      r.URL,
			Score:    clampScore(score),
		}
		if t, err := time.Parse(time.RFC3339, r.PublishedDate); err == nil {
			res.PublishedAt = &t
		}
		results = append(results, res)
	}
	return results
}

func webCacheKey(language, query string, maxResults int) string {
	h := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%s", language, maxResults, strings.ToLower(strings.TrimSpace(query)))))
	return "websearch:" + hex.EncodeToString(h[:])
}
