package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"ai-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDocuments struct {
	results map[string][]store.SearchResult
	errs    map[string]error
	delays  map[string]time.Duration
	panics  map[string]bool
	calls   atomic.Int32
}

func (f *fakeDocuments) Search(ctx context.Context, ref store.CollectionReference, query string, filters *store.Filters, limit int) ([]store.SearchResult, error) {
	f.calls.Add(1)
	if f.panics[ref.ID] {
		panic("backend exploded")
	}
	if d := f.delays[ref.ID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[ref.ID]; err != nil {
		return nil, err
	}
	src := f.results[ref.ID]
	out := make([]store.SearchResult, len(src))
	copy(out, src)
	return out, nil
}

type fakeWeb struct {
	results []store.SearchResult
	err     error
	queries []string
}

func (f *fakeWeb) WebSearch(ctx context.Context, query string, maxResults int) ([]store.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]store.SearchResult, len(f.results))
	copy(out, f.results)
	return out, nil
}

type fakeCrawler struct {
	err    error
	mutate func([]store.SearchResult) []store.SearchResult
}

func (f *fakeCrawler) CrawlTopURLs(ctx context.Context, results []store.SearchResult, maxURLs int) ([]store.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.mutate(results), nil
}

func refs(ids ...string) []store.CollectionReference {
	out := make([]store.CollectionReference, len(ids))
	for i, id := range ids {
		out[i] = store.CollectionReference{ID: id}
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TaskTimeout = 500 * time.Millisecond
	cfg.CrawlTimeout = 500 * time.Millisecond
	return cfg
}

func TestOrchestrator_Search(t *testing.T) {
	t.Run("duplicate URL keeps the higher priority entry", func(t *testing.T) {
		docs := &fakeDocuments{results: map[string][]store.SearchResult{
			"first":  {{Title: "Erste Fassung", URL: "https://example.org/a", Score: 0.4}},
			"second": {{Title: "Zweite Fassung", URL: "https://example.org/a", Score: 0.9}},
		}}
		o := NewOrchestrator(docs, nil, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Collections: refs("first", "second"), Query: "Haushalt"})

		require.Len(t, out.Results, 1)
		assert.Equal(t, "Erste Fassung", out.Results[0].Title)
		assert.Equal(t, "first", out.Results[0].SourceID)
	})

	t.Run("order does not depend on completion order", func(t *testing.T) {
		docs := &fakeDocuments{
			results: map[string][]store.SearchResult{
				"slow": {{Title: "slow", URL: "https://example.org/s", Score: 0.5}},
				"fast": {{Title: "fast", URL: "https://example.org/f", Score: 0.5}},
			},
			delays: map[string]time.Duration{"slow": 50 * time.Millisecond},
		}
		o := NewOrchestrator(docs, nil, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Collections: refs("slow", "fast"), Query: "Energie"})

		require.Len(t, out.Results, 2)
		assert.Equal(t, "slow", out.Results[0].Title)
		assert.Equal(t, "fast", out.Results[1].Title)
	})

	t.Run("results are sorted by descending score", func(t *testing.T) {
		docs := &fakeDocuments{results: map[string][]store.SearchResult{
			"a": {{Title: "low", Score: 0.2}, {Title: "high", Score: 0.95}},
			"b": {{Title: "mid", Score: 0.6}},
		}}
		o := NewOrchestrator(docs, nil, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Collections: refs("a", "b"), Query: "Rente"})

		var titles []string
		for _, r := range out.Results {
			titles = append(titles, r.Title)
		}
		assert.Equal(t, []string{"high", "mid", "low"}, titles)
	})

	t.Run("failing and panicking branches are isolated", func(t *testing.T) {
		docs := &fakeDocuments{
			results: map[string][]store.SearchResult{
				"ok": {{Title: "survivor", URL: "https://example.org/ok", Score: 0.7}},
			},
			errs:   map[string]error{"broken": errors.New("connection refused")},
			panics: map[string]bool{"panicky": true},
		}
		o := NewOrchestrator(docs, nil, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Collections: refs("broken", "panicky", "ok"), Query: "Bildung"})

		require.Len(t, out.Results, 1)
		assert.Equal(t, "survivor", out.Results[0].Title)
		assert.ElementsMatch(t, []string{"broken", "panicky"}, out.FailedSources)
		assert.Equal(t, []string{"broken", "panicky", "ok"}, out.SearchedCollections)
	})

	t.Run("slow branch times out without blocking the rest", func(t *testing.T) {
		docs := &fakeDocuments{
			results: map[string][]store.SearchResult{
				"hung": {{Title: "never"}},
				"ok":   {{Title: "done", Score: 0.3}},
			},
			delays: map[string]time.Duration{"hung": 5 * time.Second},
		}
		cfg := testConfig()
		cfg.TaskTimeout = 30 * time.Millisecond
		o := NewOrchestrator(docs, nil, nil, nil, cfg, nil)

		start := time.Now()
		out := o.Search(context.Background(), Request{Collections: refs("hung", "ok"), Query: "Pflege"})

		assert.Less(t, time.Since(start), 2*time.Second)
		require.Len(t, out.Results, 1)
		assert.Equal(t, "done", out.Results[0].Title)
		assert.Equal(t, []string{"hung"}, out.FailedSources)
	})

	t.Run("total outage yields an empty outcome", func(t *testing.T) {
		docs := &fakeDocuments{errs: map[string]error{
			"a": errors.New("down"),
			"b": errors.New("down"),
		}}
		web := &fakeWeb{err: errors.New("searx down")}
		o := NewOrchestrator(docs, web, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Collections: refs("a", "b"), Query: "Migration", Web: true})

		assert.Empty(t, out.Results)
		assert.Empty(t, out.Citations)
		assert.Equal(t, 3, out.SearchCount)
	})

	t.Run("citations are capped and skip results without URL", func(t *testing.T) {
		var results []store.SearchResult
		for i := 0; i < 12; i++ {
			results = append(results, store.SearchResult{
				Title: fmt.Sprintf("Dok %d", i),
				URL:   fmt.Sprintf("https://example.org/%d", i),
				Score: 0.9 - float64(i)*0.01,
			})
		}
		results = append(results, store.SearchResult{Title: "ohne Link", Score: 0.99})
		docs := &fakeDocuments{results: map[string][]store.SearchResult{"a": results}}
		o := NewOrchestrator(docs, nil, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Collections: refs("a"), Query: "Wohnungsbau"})

		assert.Len(t, out.Results, 13)
		require.Len(t, out.Citations, DefaultMaxCitations)
		for i, c := range out.Citations {
			assert.Equal(t, i+1, c.ID)
			assert.NotEmpty(t, c.URL)
		}
	})

	t.Run("sub-queries fan out per collection", func(t *testing.T) {
		docs := &fakeDocuments{results: map[string][]store.SearchResult{"a": {{Title: "x"}}}}
		o := NewOrchestrator(docs, nil, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{
			Collections: refs("a"),
			Query:       "Mindestlohn",
			SubQueries:  []string{"Mindestlohn 2024", "mindestlohn", " "},
		})

		assert.Equal(t, 2, out.SearchCount)
		assert.EqualValues(t, 2, docs.calls.Load())
	})

	t.Run("results below the collection quality threshold are dropped", func(t *testing.T) {
		docs := &fakeDocuments{results: map[string][]store.SearchResult{
			"curated": {{Title: "weak", Score: 0.2}, {Title: "strong", Score: 0.8}},
		}}
		o := NewOrchestrator(docs, nil, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{
			Collections: []store.CollectionReference{{ID: "curated", MinQuality: 0.5}},
			Query:       "Steuer",
		})

		require.Len(t, out.Results, 1)
		assert.Equal(t, "strong", out.Results[0].Title)
	})

	t.Run("web results are tagged and recorded", func(t *testing.T) {
		web := &fakeWeb{results: []store.SearchResult{{Title: "Nachricht", URL: "https://news.example/1", Score: 0.5}}}
		o := NewOrchestrator(nil, web, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Query: "Wahl", Web: true})

		require.Len(t, out.Results, 1)
		assert.Equal(t, WebSourceID, out.Results[0].SourceID)
		assert.Equal(t, []string{WebSourceID}, out.SearchedCollections)
	})

	t.Run("failed crawl keeps snippets", func(t *testing.T) {
		web := &fakeWeb{results: []store.SearchResult{{Title: "t", Content: "snippet", URL: "https://news.example/1", Score: 0.5}}}
		o := NewOrchestrator(nil, web, &fakeCrawler{err: context.DeadlineExceeded}, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Query: "Wahl", Web: true, Crawl: true})

		require.Len(t, out.Results, 1)
		assert.Equal(t, "snippet", out.Results[0].Content)
	})

	t.Run("crawler returning a different length is ignored", func(t *testing.T) {
		web := &fakeWeb{results: []store.SearchResult{{Title: "t", Content: "snippet", URL: "https://news.example/1", Score: 0.5}}}
		crawler := &fakeCrawler{mutate: func([]store.SearchResult) []store.SearchResult { return nil }}
		o := NewOrchestrator(nil, web, crawler, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Query: "Wahl", Web: true, Crawl: true})

		require.Len(t, out.Results, 1)
		assert.Equal(t, "snippet", out.Results[0].Content)
	})

	t.Run("successful crawl replaces content", func(t *testing.T) {
		web := &fakeWeb{results: []store.SearchResult{{Title: "t", Content: "snippet", URL: "https://news.example/1", Score: 0.5}}}
		crawler := &fakeCrawler{mutate: func(in []store.SearchResult) []store.SearchResult {
			out := make([]store.SearchResult, len(in))
			copy(out, in)
			out[0].Content = "full page text"
			return out
		}}
		o := NewOrchestrator(nil, web, crawler, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Query: "Wahl", Web: true, Crawl: true})

		require.Len(t, out.Results, 1)
		assert.Equal(t, "full page text", out.Results[0].Content)
	})

	t.Run("empty query searches nothing", func(t *testing.T) {
		docs := &fakeDocuments{}
		o := NewOrchestrator(docs, nil, nil, nil, testConfig(), nil)

		out := o.Search(context.Background(), Request{Collections: refs("a"), Query: "  "})

		assert.Zero(t, out.SearchCount)
		assert.Zero(t, docs.calls.Load())
	})
}
