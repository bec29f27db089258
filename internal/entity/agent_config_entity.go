package entity

import (
	"time"

	"github.com/google/uuid"
)

type AgentConfig struct {
	Id                 uuid.UUID
	Name               string
	Instructions       string
	AllowedCollections []string
	DefaultCollection  string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	DeletedAt          *time.Time
	IsDeleted          bool
}

type UserSettings struct {
	UserId           uuid.UUID
	Locale           string
	DefaultNotebooks []string
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
