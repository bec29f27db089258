package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id             uuid.UUID
	CollectionId   string
	DocumentId     uuid.UUID
	Title          string
	Url            string
	Content        string
	ContentType    string
	Region         string
	PublishedAt    *time.Time
	ChunkIndex     int
	Metadata       map[string]string
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
