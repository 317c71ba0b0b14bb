package scope

import "gorm.io/gorm"

// NewestFirst orders by creation time with the id as a tie breaker, so that
// offset pages never skip or repeat rows created within the same instant.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
