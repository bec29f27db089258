package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserSettings struct {
	UserId           uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Locale           string                      `gorm:"type:varchar(16)"`
	DefaultNotebooks datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}
