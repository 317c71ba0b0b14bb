package model

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(255);not null"`
	BrandGuidelines *string   `gorm:"type:text"`
	Tokens          int       `gorm:"not null;default:0;check:chk_organizations_tokens_non_negative,tokens >= 0"`
	OwnerId         uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Organization) TableName() string {
	return "organizations"
}
