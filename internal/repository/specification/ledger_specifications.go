package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByOrganizationID struct {
	OrganizationID uuid.UUID
}

func (s ByOrganizationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("organization_id = ?", s.OrganizationID)
}

type ByReferenceID struct {
	ReferenceID uuid.UUID
}

func (s ByReferenceID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reference_id = ?", s.ReferenceID)
}

type ByActionType struct {
	ActionType string
}

func (s ByActionType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("action_type = ?", s.ActionType)
}
