package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ai-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]store.SearchResult
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]store.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[key]
	return r, ok
}

func (c *memoryCache) Set(ctx context.Context, key string, results []store.SearchResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = results
}

const searxBody = `{"results":[
 {"url":"https://news.example/a","title":" Haushalt 2025 ","content":"Der Bundestag...","score":4.0,"publishedDate":"2024-11-20T10:00:00Z"},
 {"url":"","title":"kein Link","content":"x","score":3.0},
 {"url":"https://news.example/b","title":"Kommentar","content":"Die Opposition...","score":2.0},
 {"url":"https://news.example/c","title":"zu viel","content":"...","score":1.0}
]}`

func TestSearxNGSearcher_WebSearch(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "de-DE", r.URL.Query().Get("language"))
		assert.Equal(t, "Haushalt", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searxBody))
	}))
	defer srv.Close()

	cache := &memoryCache{data: map[string][]store.SearchResult{}}
	s := NewSearxNGSearcher(srv.URL+"/", "de-DE", 2*time.Second, cache, time.Minute, nil)

	results, err := s.WebSearch(context.Background(), "Haushalt", 3)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Haushalt 2025", results[0].Title)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.5, results[1].Score)
	assert.Equal(t, WebSourceID, results[1].SourceID)
	require.NotNil(t, results[0].PublishedAt)
	assert.Equal(t, 2024, results[0].PublishedAt.Year())

	again, err := s.WebSearch(context.Background(), "Haushalt", 3)
	require.NoError(t, err)
	assert.Equal(t, results, again)
	mu.Lock()
	assert.Equal(t, 1, hits)
	mu.Unlock()
}

func TestSearxNGSearcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewSearxNGSearcher(srv.URL, "", time.Second, nil, 0, nil)
	_, err := s.WebSearch(context.Background(), "Haushalt", 3)
	assert.ErrorContains(t, err, "429")
}

func TestNormalizeWebResults_RankFallback(t *testing.T) {
	parsed := searxResponse{Results: []searxResult{{URL: "https://a"}, {URL: "https://b"}}}

	results := normalizeWebResults(parsed, 0)

	require.Len(t, results, 2)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.LessOrEqual(t, results[0].Score, 1.0)
}

func TestRedisResultCache_NilClient(t *testing.T) {
	var c *RedisResultCache
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	c.Set(context.Background(), "k", nil, time.Minute)

	c = NewRedisResultCache(nil, nil)
	_, ok = c.Get(context.Background(), "k")
	assert.False(t, ok)
}
