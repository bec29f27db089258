package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatThreadId uuid.UUID      `gorm:"type:uuid;not null;index:idx_chat_messages_thread_created"`
	Role         string         `gorm:"type:varchar(16);not null"`
	Content      string         `gorm:"type:text;not null"`
	Intent       string         `gorm:"type:varchar(32)"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index:idx_chat_messages_thread_created"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
