package scope

import "gorm.io/gorm"

// OrderByCreatedAsc breaks created_at ties on id so thread history has one stable order.
func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
