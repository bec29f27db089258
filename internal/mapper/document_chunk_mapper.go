package mapper

import (
	"encoding/json"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentChunkMapper struct{}

func NewDocumentChunkMapper() *DocumentChunkMapper {
	return &DocumentChunkMapper{}
}

func (m *DocumentChunkMapper) ToEntity(c *model.DocumentChunk) *entity.DocumentChunk {
	if c == nil {
		return nil
	}

	var metadata map[string]string
	if len(c.Metadata) > 0 {
		// Non-string values are dropped rather than failing the whole row.
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	return &entity.DocumentChunk{
		Id:             c.Id,
		CollectionId:   c.CollectionId,
		DocumentId:     c.DocumentId,
		Title:          c.Title,
		Url:            c.Url,
		Content:        c.Content,
		ContentType:    c.ContentType,
		Region:         c.Region,
		PublishedAt:    c.PublishedAt,
		ChunkIndex:     c.ChunkIndex,
		Metadata:       metadata,
		EmbeddingValue: c.EmbeddingValue.Slice(),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      optionalTime(c.UpdatedAt),
		DeletedAt:      fromDeletedAt(c.DeletedAt),
		IsDeleted:      c.DeletedAt.Valid,
	}
}

func (m *DocumentChunkMapper) ToModel(c *entity.DocumentChunk) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	var metadata datatypes.JSON
	if len(c.Metadata) > 0 {
		raw, err := json.Marshal(c.Metadata)
		if err == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	return &model.DocumentChunk{
		Id:             c.Id,
		CollectionId:   c.CollectionId,
		DocumentId:     c.DocumentId,
		Title:          c.Title,
		Url:            c.Url,
		Content:        c.Content,
		ContentType:    c.ContentType,
		Region:         c.Region,
		PublishedAt:    c.PublishedAt,
		ChunkIndex:     c.ChunkIndex,
		Metadata:       metadata,
		EmbeddingValue: pgvector.NewVector(c.EmbeddingValue),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      derefTime(c.UpdatedAt),
		DeletedAt:      toDeletedAt(c.DeletedAt, c.IsDeleted),
	}
}
