package contract

import (
	"context"
	"time"

	"ai-assistant-be/internal/entity"

	"github.com/google/uuid"
)

// ChunkSearch is a similarity query against one collection store.
type ChunkSearch struct {
	Store        string
	CollectionId string
	Embedding    []float32
	ContentTypes []string
	Regions      []string
	DateFrom     *time.Time
	DateTo       *time.Time
	Metadata     map[string]string
	Threshold    float64
	Limit        int
}

// ScoredDocumentChunk wraps DocumentChunk with its cosine similarity
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, store string, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, store string, documentId uuid.UUID) error
	Count(ctx context.Context, store string, collectionId string) (int64, error)
	SearchSimilar(ctx context.Context, q ChunkSearch) ([]*ScoredDocumentChunk, error)
}
