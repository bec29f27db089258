package rerank

import (
	"context"
	"strings"
	"testing"

	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		n       int
		want    []Score
		wantErr bool
	}{
		{
			name: "out of range index and score are discarded",
			raw:  `{"scores":[{"index":0,"score":5},{"index":1,"score":6},{"index":-1,"score":3}]}`,
			n:    3,
			want: []Score{{Index: 0, Value: 5}},
		},
		{
			name: "json wrapped in prose",
			raw:  "Hier die Bewertung:\n```json\n{\"scores\":[{\"index\":1,\"score\":2}]}\n```\nFertig.",
			n:    2,
			want: []Score{{Index: 1, Value: 2}},
		},
		{
			name: "index beyond input length",
			raw:  `{"scores":[{"index":2,"score":4},{"index":1,"score":4}]}`,
			n:    2,
			want: []Score{{Index: 1, Value: 4}},
		},
		{
			name: "fractional and missing values",
			raw:  `{"scores":[{"index":0,"score":4.5},{"index":1},{"score":3},{"index":2,"score":0}]}`,
			n:    3,
			want: []Score{},
		},
		{
			name: "repeated index keeps first",
			raw:  `{"scores":[{"index":0,"score":2},{"index":0,"score":5}]}`,
			n:    1,
			want: []Score{{Index: 0, Value: 2}},
		},
		{
			name:    "no json",
			raw:     "I cannot rate these documents.",
			n:       3,
			wantErr: true,
		},
		{
			name:    "object without scores",
			raw:     `{"ranking":[0,1]}`,
			n:       2,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScores(tt.raw, tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(1))
	assert.Equal(t, 0.5, Normalize(3))
	assert.Equal(t, 1.0, Normalize(5))
}

func sample() []store.SearchResult {
	return []store.SearchResult{
		{Title: "a", Content: "Alpha", Score: 0.9},
		{Title: "b", Content: "Beta", Score: 0.8},
		{Title: "c", Content: "Gamma", Score: 0.7},
	}
}

func titles(results []store.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Title
	}
	return out
}

func replying(content string) llm.Processor {
	return llm.ProcessorFunc(func(ctx context.Context, req llm.Request) llm.Response {
		return llm.Response{Success: true, Content: content}
	})
}

func TestReranker_Rerank(t *testing.T) {
	t.Run("reorders and prunes irrelevant entries", func(t *testing.T) {
		r := NewReranker(replying(`{"scores":[{"index":0,"score":1},{"index":1,"score":3},{"index":2,"score":5}]}`), DefaultConfig(), nil)

		got, applied := r.Rerank(context.Background(), "Gamma", sample())

		assert.True(t, applied)
		assert.Equal(t, []string{"c", "b"}, titles(got))
		assert.Equal(t, 1.0, got[0].Score)
		assert.Equal(t, 0.5, got[1].Score)
	})

	t.Run("keeps irrelevant entries when nothing else remains", func(t *testing.T) {
		r := NewReranker(replying(`{"scores":[{"index":0,"score":1},{"index":1,"score":1},{"index":2,"score":1}]}`), DefaultConfig(), nil)

		got, applied := r.Rerank(context.Background(), "Delta", sample())

		assert.True(t, applied)
		assert.Equal(t, []string{"a", "b", "c"}, titles(got))
	})

	t.Run("unscored entries keep their retrieval score", func(t *testing.T) {
		r := NewReranker(replying(`{"scores":[{"index":2,"score":5},{"index":0,"score":2}]}`), DefaultConfig(), nil)

		got, _ := r.Rerank(context.Background(), "Gamma", sample())

		assert.Equal(t, []string{"c", "b", "a"}, titles(got))
		assert.Equal(t, 0.8, got[1].Score)
		assert.Equal(t, 0.25, got[2].Score)
	})

	t.Run("unavailable pool leaves order unchanged", func(t *testing.T) {
		r := NewReranker(nil, DefaultConfig(), nil)

		got, applied := r.Rerank(context.Background(), "Gamma", sample())

		assert.False(t, applied)
		assert.Equal(t, sample(), got)
	})

	t.Run("unparseable output leaves order unchanged", func(t *testing.T) {
		r := NewReranker(replying("Dokument 3 ist am besten."), DefaultConfig(), nil)

		got, applied := r.Rerank(context.Background(), "Gamma", sample())

		assert.False(t, applied)
		assert.Equal(t, sample(), got)
	})

	t.Run("only invalid entries leaves order unchanged", func(t *testing.T) {
		r := NewReranker(replying(`{"scores":[{"index":7,"score":5}]}`), DefaultConfig(), nil)

		got, applied := r.Rerank(context.Background(), "Gamma", sample())

		assert.False(t, applied)
		assert.Equal(t, sample(), got)
	})

	t.Run("prompt lists capped candidates with excerpts", func(t *testing.T) {
		var prompt string
		pool := llm.ProcessorFunc(func(ctx context.Context, req llm.Request) llm.Response {
			assert.Equal(t, llm.RequestRerank, req.Type)
			prompt = req.Messages[0].Content
			return llm.Response{Success: true, Content: `{"scores":[]}`}
		})
		cfg := DefaultConfig()
		cfg.MaxCandidates = 2
		cfg.ExcerptChars = 3
		r := NewReranker(pool, cfg, nil)

		r.Rerank(context.Background(), "Frage", sample())

		assert.Contains(t, prompt, "QUERY: Frage")
		assert.Contains(t, prompt, "[0] a\nAlp…")
		assert.Contains(t, prompt, "[1] b\nBet…")
		assert.False(t, strings.Contains(prompt, "[2]"))
	})

	t.Run("single result is not sent to the model", func(t *testing.T) {
		called := false
		pool := llm.ProcessorFunc(func(ctx context.Context, req llm.Request) llm.Response {
			called = true
			return llm.Response{}
		})
		r := NewReranker(pool, DefaultConfig(), nil)

		got, applied := r.Rerank(context.Background(), "x", sample()[:1])

		assert.False(t, called)
		assert.False(t, applied)
		assert.Len(t, got, 1)
	})
}
