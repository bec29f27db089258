package specification

import "gorm.io/gorm"

// Specification narrows a repository query. Repositories apply them in the
// order they are passed.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
