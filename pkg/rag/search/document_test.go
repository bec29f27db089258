package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ai-assistant-be/pkg/embedding"
	"ai-assistant-be/pkg/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string, taskType embedding.TaskType) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0}, nil
}

func (e *countingEmbedder) Dimensions() int { return 2 }

type fakeIndex struct {
	queries []VectorQuery
	results []store.SearchResult
	err     error
}

func (f *fakeIndex) SearchSimilar(ctx context.Context, q VectorQuery) ([]store.SearchResult, error) {
	f.queries = append(f.queries, q)
	return f.results, f.err
}

func TestVectorSearcher_Search(t *testing.T) {
	ref := store.CollectionReference{ID: "de_bundestag", Store: "document_chunks", MinQuality: 0.4, DefaultFilter: map[string]string{"region": "DE"}}
	filters := &store.Filters{ContentTypes: []string{"speech"}}

	t.Run("passes the collection to the index and caches the embedding", func(t *testing.T) {
		emb := &countingEmbedder{}
		idx := &fakeIndex{results: []store.SearchResult{{Title: "Rede", Score: 0.8}}}
		s := NewVectorSearcher(emb, idx, time.Minute, 0, nil)

		res, err := s.Search(context.Background(), ref, "Klimaschutz", filters, 5)
		require.NoError(t, err)
		_, err = s.Search(context.Background(), ref, " klimaschutz ", filters, 5)
		require.NoError(t, err)

		assert.Len(t, res, 1)
		assert.Equal(t, 1, emb.calls)
		require.Len(t, idx.queries, 2)
		q := idx.queries[0]
		assert.Equal(t, "de_bundestag", q.CollectionID)
		assert.Equal(t, "document_chunks", q.Store)
		assert.Equal(t, 0.4, q.MinQuality)
		assert.Equal(t, 5, q.Limit)
		assert.Same(t, filters, q.Filters)
		assert.Equal(t, "DE", q.DefaultFilter["region"])
	})

	t.Run("missing table is an empty collection", func(t *testing.T) {
		idx := &fakeIndex{err: fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"})}
		s := NewVectorSearcher(&countingEmbedder{}, idx, 0, 0, nil)

		res, err := s.Search(context.Background(), ref, "Klimaschutz", nil, 5)
		assert.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("other database errors propagate", func(t *testing.T) {
		idx := &fakeIndex{err: errors.New("connection reset")}
		s := NewVectorSearcher(&countingEmbedder{}, idx, 0, 0, nil)

		_, err := s.Search(context.Background(), ref, "Klimaschutz", nil, 5)
		assert.ErrorContains(t, err, "de_bundestag")
	})

	t.Run("embedding failure propagates", func(t *testing.T) {
		s := NewVectorSearcher(&countingEmbedder{err: errors.New("ollama down")}, &fakeIndex{}, 0, 0, nil)

		_, err := s.Search(context.Background(), ref, "Klimaschutz", nil, 5)
		assert.ErrorContains(t, err, "embed query")
	})
}

func TestVectorSearcherWithoutCleanupStartsNoGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewVectorSearcher(&countingEmbedder{}, &fakeIndex{}, time.Millisecond, 0, nil)
	_, err := s.Search(context.Background(), store.CollectionReference{ID: "de_press"}, "Rente", nil, 3)
	require.NoError(t, err)
}
