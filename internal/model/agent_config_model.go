package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AgentConfig restricts an assistant agent to a set of collections.
type AgentConfig struct {
	Id                 uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name               string                      `gorm:"type:varchar(100);not null"`
	Instructions       string                      `gorm:"type:text"`
	AllowedCollections datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	DefaultCollection  string                      `gorm:"type:varchar(64)"`
	IsActive           bool                        `gorm:"default:true;index"`
	CreatedAt          time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt          time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt              `gorm:"index"`
}

func (AgentConfig) TableName() string {
	return "agent_configs"
}
