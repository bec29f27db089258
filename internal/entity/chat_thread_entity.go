package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatThread struct {
	Id                     uuid.UUID
	UserId                 uuid.UUID
	AgentId                *uuid.UUID
	Title                  string
	Locale                 string
	LastIntent             string
	Summary                string
	CompactedUpToMessageId *uuid.UUID
	CompactedMessageCount  int
	CompactedAt            *time.Time
	Version                int
	CreatedAt              time.Time
	UpdatedAt              *time.Time
	DeletedAt              *time.Time
	IsDeleted              bool
}

type ChatMessage struct {
	Id           uuid.UUID
	ChatThreadId uuid.UUID
	Role         string
	Content      string
	Intent       string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
