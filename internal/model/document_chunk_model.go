package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentChunk is one embedded slice of a source document. Every collection
// store is a table with this layout; DefaultStore is used when none is named.
type DocumentChunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CollectionId   string          `gorm:"type:varchar(64);not null;index"`
	DocumentId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title          string          `gorm:"type:text"`
	Url            string          `gorm:"type:text"`
	Content        string          `gorm:"type:text;not null"`
	ContentType    string          `gorm:"type:varchar(32);index"`
	Region         string          `gorm:"type:varchar(16);index"`
	PublishedAt    *time.Time      `gorm:"index"`
	ChunkIndex     int             `gorm:"default:0"`
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

const DefaultStore = "document_chunks"

// Store names become table names, so only plain identifiers are accepted.
var storeNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

func IsValidStoreName(name string) bool {
	return storeNamePattern.MatchString(name)
}

func (DocumentChunk) TableName() string {
	return DefaultStore
}
