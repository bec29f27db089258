package implementation

import (
	"context"
	"fmt"
	"sort"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/mapper"
	"ai-assistant-be/internal/model"
	"ai-assistant-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

func storeTable(store string) (string, error) {
	if store == "" {
		return model.DefaultStore, nil
	}
	if !model.IsValidStoreName(store) {
		return "", fmt.Errorf("invalid store name %q", store)
	}
	return store, nil
}

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, store string, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	table, err := storeTable(store)
	if err != nil {
		return err
	}

	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	if err := r.db.WithContext(ctx).Table(table).CreateInBatches(models, 100).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

// DeleteByDocumentId hard-deletes so a re-indexed document never leaves stale chunks behind.
func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, store string, documentId uuid.UUID) error {
	table, err := storeTable(store)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Table(table).
		Unscoped().
		Where("document_id = ?", documentId).
		Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, store string, collectionId string) (int64, error) {
	table, err := storeTable(store)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.WithContext(ctx).
		Table(table).
		Where("collection_id = ?", collectionId).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *DocumentChunkRepositoryImpl) SearchSimilar(ctx context.Context, q contract.ChunkSearch) ([]*contract.ScoredDocumentChunk, error) {
	table, err := storeTable(q.Store)
	if err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity.
	type result struct {
		model.DocumentChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(q.Embedding)

	query := r.db.WithContext(ctx).
		Table(table).
		Select(table+".*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL")

	if q.CollectionId != "" {
		query = query.Where("collection_id = ?", q.CollectionId)
	}
	if len(q.ContentTypes) > 0 {
		query = query.Where("content_type IN ?", q.ContentTypes)
	}
	if len(q.Regions) > 0 {
		query = query.Where("region IN ?", q.Regions)
	}
	if q.DateFrom != nil {
		query = query.Where("published_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("published_at <= ?", *q.DateTo)
	}

	keys := make([]string, 0, len(q.Metadata))
	for k := range q.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		query = query.Where("metadata ->> ? = ?", k, q.Metadata[k])
	}

	if q.Threshold > 0 {
		query = query.Where("1 - (embedding_value <=> ?) >= ?", queryVector, q.Threshold)
	}

	err = query.
		Order("similarity DESC").
		Limit(q.Limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocumentChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredDocumentChunk{
			Chunk:      r.mapper.ToEntity(&res.DocumentChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
