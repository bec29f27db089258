package service

import (
	"context"

	"ai-assistant-be/internal/repository/contract"
	"ai-assistant-be/internal/repository/unitofwork"
	"ai-assistant-be/pkg/rag/search"
	"ai-assistant-be/pkg/store"
)

// documentIndex runs collection searches against the pgvector chunk tables.
type documentIndex struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewDocumentIndex(uowFactory unitofwork.RepositoryFactory) search.VectorIndex {
	return &documentIndex{uowFactory: uowFactory}
}

func (d *documentIndex) SearchSimilar(ctx context.Context, q search.VectorQuery) ([]store.SearchResult, error) {
	query := contract.ChunkSearch{
		Store:        q.Store,
		CollectionId: q.CollectionID,
		Embedding:    q.Embedding,
		Metadata:     q.DefaultFilter,
		Threshold:    q.MinQuality,
		Limit:        q.Limit,
	}
	if f := q.Filters; !f.IsEmpty() {
		query.ContentTypes = f.ContentTypes
		query.Regions = f.Regions
		query.DateFrom = f.DateFrom
		query.DateTo = f.DateTo
	}

	uow := d.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilar(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]store.SearchResult, 0, len(scored))
	for _, s := range scored {
		c := s.Chunk
		results = append(results, store.SearchResult{
			SourceID:    q.CollectionID,
			DocumentID:  c.DocumentId.String(),
			Title:       c.Title,
			Content:     c.Content,
			URL:         c.Url,
			Score:       s.Similarity,
			PublishedAt: c.PublishedAt,
		})
	}
	return results, nil
}
