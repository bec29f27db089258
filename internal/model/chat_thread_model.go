package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatThread struct {
	Id                     uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId                 uuid.UUID      `gorm:"type:uuid;not null;index"`
	AgentId                *uuid.UUID     `gorm:"type:uuid;index"`
	Title                  string         `gorm:"type:text;not null"`
	Locale                 string         `gorm:"type:varchar(16)"`
	LastIntent             string         `gorm:"type:varchar(32)"`
	Summary                string         `gorm:"type:text"`
	CompactedUpToMessageId *uuid.UUID     `gorm:"type:uuid"`
	CompactedMessageCount  int            `gorm:"not null;default:0"`
	CompactedAt            *time.Time
	Version                int            `gorm:"not null;default:0"` // bumped by every compaction write
	CreatedAt              time.Time      `gorm:"autoCreateTime"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime"`
	DeletedAt              gorm.DeletedAt `gorm:"index"`
}

func (ChatThread) TableName() string {
	return "chat_threads"
}
