package specification

import "gorm.io/gorm"

// ActiveOnly skips disabled agent configurations.
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}
