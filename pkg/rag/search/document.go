package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-assistant-be/pkg/embedding"
	"ai-assistant-be/pkg/store"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// pgUndefinedTable is returned when a collection's backing table was never created.
const pgUndefinedTable = "42P01"

// VectorQuery is a similarity lookup inside one collection.
type VectorQuery struct {
	Store         string
	CollectionID  string
	Embedding     []float32
	Filters       *store.Filters
	DefaultFilter map[string]string
	MinQuality    float64
	Limit         int
}

// VectorIndex runs the similarity query against the chunk store.
type VectorIndex interface {
	SearchSimilar(ctx context.Context, q VectorQuery) ([]store.SearchResult, error)
}

// VectorSearcher embeds the query once and searches collections through a VectorIndex.
type VectorSearcher struct {
	embedder embedding.EmbeddingProvider
	index    VectorIndex
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewVectorSearcher caches query embeddings for ttl. A positive cleanup starts
// go-cache's janitor goroutine, which runs until the process exits; with
// cleanup <= 0 expired entries are only skipped on read.
func NewVectorSearcher(embedder embedding.EmbeddingProvider, index VectorIndex, ttl, cleanup time.Duration, logger *zap.Logger) *VectorSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &VectorSearcher{
		embedder: embedder,
		index:    index,
		cache:    cache.New(ttl, cleanup),
		logger:   logger,
	}
}

func (s *VectorSearcher) Search(ctx context.Context, ref store.CollectionReference, query string, filters *store.Filters, limit int) ([]store.SearchResult, error) {
	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.index.SearchSimilar(ctx, VectorQuery{
		Store:         ref.Store,
		CollectionID:  ref.ID,
		Embedding:     vec,
		Filters:       filters,
		DefaultFilter: ref.DefaultFilter,
		MinQuality:    ref.MinQuality,
		Limit:         limit,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
			s.logger.Warn("collection store missing", zap.String("collection", ref.ID), zap.String("store", ref.Store))
			return nil, nil
		}
		return nil, fmt.Errorf("search collection %s: %w", ref.ID, err)
	}
	return results, nil
}

// embed caches query vectors; fan-out searches the same query across many collections.
func (s *VectorSearcher) embed(ctx context.Context, query string) ([]float32, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if v, found := s.cache.Get(key); found {
		return v.([]float32), nil
	}
	vec, err := s.embedder.Embed(ctx, query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	s.cache.Set(key, vec, cache.DefaultExpiration)
	return vec, nil
}
