package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID matches the primary key of threads and agent configurations.
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}
