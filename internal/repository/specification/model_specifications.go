package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByModelID struct {
	ModelID uuid.UUID
}

func (s ByModelID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("model_id = ?", s.ModelID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ImagesOfOrganization restricts images to models owned by the organization.
type ImagesOfOrganization struct {
	OrganizationID uuid.UUID
}

func (s ImagesOfOrganization) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("model_id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Table("models").Select("id").Where("organization_id = ?", s.OrganizationID))
}
