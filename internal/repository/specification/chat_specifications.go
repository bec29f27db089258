package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatThreadID struct {
	ChatThreadID uuid.UUID
}

func (s ByChatThreadID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_thread_id = ?", s.ChatThreadID)
}

// ThreadOwnedBy keeps a thread lookup inside one user's data.
type ThreadOwnedBy struct {
	UserID uuid.UUID
}

func (s ThreadOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// NewestFirst orders threads by creation time, latest first.
type NewestFirst struct{}

func (s NewestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
